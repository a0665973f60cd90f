package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/store"
)

// fakeChannel records every pushed event. With fail set it rejects all
// pushes, standing in for a dead socket.
type fakeChannel struct {
	mu     sync.Mutex
	events []models.Event
	fail   bool
	closed bool
}

var errPushFailed = errors.New("push failed")

func (f *fakeChannel) Push(ctx context.Context, ev models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errPushFailed
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeChannel) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// byType returns the recorded events of one type, since presence
// broadcasts arrive asynchronously and interleave with everything else.
func (f *fakeChannel) byType(t models.EventType) []models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Event
	for _, ev := range f.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// waitFor polls until cond holds or the deadline expires.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newTestChat(t *testing.T) (*Chat, *MemoryQueue) {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logger := zerolog.Nop()
	directory, err := NewDirectory(context.Background(), fs, logger)
	if err != nil {
		t.Fatal(err)
	}
	presence := NewPresence(logger, 500*time.Millisecond)
	queue := NewMemoryQueue()
	dispatcher := NewDispatcher(presence, queue, directory, 500*time.Millisecond, logger)
	return New(presence, directory, queue, dispatcher, fs, logger), queue
}
