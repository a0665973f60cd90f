package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/store"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *Presence, *MemoryQueue) {
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
	return NewDispatcher(presence, queue, directory, 500*time.Millisecond, logger), presence, queue
}

func TestNotifyUserDelivered(t *testing.T) {
	d, p, q := newTestDispatcher(t)
	ch := &fakeChannel{}
	p.Login("bob", ch)

	out := d.NotifyUser(context.Background(), "bob", models.NewDirectMessage("alice", "hi"))
	if out != Delivered {
		t.Fatalf("expected Delivered, got %s", out)
	}
	if got := ch.byType(models.EventDirectMessage); len(got) != 1 || got[0].Body != "hi" {
		t.Fatalf("unexpected pushed events: %+v", got)
	}
	if q.Depth("bob") != 0 {
		t.Fatal("delivered event must not also be queued")
	}
}

func TestNotifyUserQueuedWhenOffline(t *testing.T) {
	d, _, q := newTestDispatcher(t)

	out := d.NotifyUser(context.Background(), "bob", models.NewDirectMessage("alice", "hi"))
	if out != Queued {
		t.Fatalf("expected Queued, got %s", out)
	}
	if q.Depth("bob") != 1 {
		t.Fatalf("expected 1 queued event, got %d", q.Depth("bob"))
	}
}

func TestNotifyUserQueuedOnPushFailure(t *testing.T) {
	d, p, q := newTestDispatcher(t)
	p.Login("bob", &fakeChannel{fail: true})

	out := d.NotifyUser(context.Background(), "bob", models.NewDirectMessage("alice", "hi"))
	if out != Queued {
		t.Fatalf("expected Queued after failed push, got %s", out)
	}
	if q.Depth("bob") != 1 {
		t.Fatalf("expected 1 queued event, got %d", q.Depth("bob"))
	}
}

func TestNotifyUserDropsNonQueueable(t *testing.T) {
	d, _, q := newTestDispatcher(t)

	out := d.NotifyUser(context.Background(), "bob", models.NewPresenceChange("alice", true))
	if out != Dropped {
		t.Fatalf("presence events must never queue, got %s", out)
	}
	if q.Depth("bob") != 0 {
		t.Fatal("dropped event must not be queued")
	}
}

func TestNotifyMembersExcludesSender(t *testing.T) {
	d, p, _ := newTestDispatcher(t)
	aliceCh := &fakeChannel{}
	bobCh := &fakeChannel{}
	p.Login("alice", aliceCh)
	p.Login("bob", bobCh)

	ev := models.NewGroupMessage("team", "alice", "hello")
	d.NotifyMembers(context.Background(), []string{"alice", "bob"}, "alice", ev, nil)

	if len(bobCh.byType(models.EventGroupMessage)) != 1 {
		t.Fatal("bob should receive the group message")
	}
	if len(aliceCh.byType(models.EventGroupMessage)) != 0 {
		t.Fatal("sender must be excluded from fan-out")
	}
}

func TestNotifyMembersReportsPerMemberOutcome(t *testing.T) {
	d, p, _ := newTestDispatcher(t)
	p.Login("bob", &fakeChannel{})

	var mu sync.Mutex
	outcomes := make(map[string]Outcome)
	ev := models.NewGroupMessage("team", "alice", "hello")
	d.NotifyMembers(context.Background(), []string{"bob", "carol"}, "alice", ev, func(member string, out Outcome) {
		mu.Lock()
		outcomes[member] = out
		mu.Unlock()
	})

	if outcomes["bob"] != Delivered {
		t.Fatalf("bob: expected Delivered, got %s", outcomes["bob"])
	}
	if outcomes["carol"] != Queued {
		t.Fatalf("carol: expected Queued, got %s", outcomes["carol"])
	}
}
