package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

// Session is the live binding between a username and its current push
// channel. On re-login the channel is swapped inside the existing
// session rather than allocating a new one, so anything holding the
// handle keeps targeting the same logical user.
type Session struct {
	ID        uuid.UUID
	Username  string
	CreatedAt time.Time

	mu      sync.RWMutex
	channel PushChannel
}

func newSession(username string, ch PushChannel) *Session {
	return &Session{
		ID:        uuid.New(),
		Username:  username,
		CreatedAt: time.Now(),
		channel:   ch,
	}
}

// Channel returns the currently bound push channel, which may be nil
// for a polling-only session.
func (s *Session) Channel() PushChannel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channel
}

func (s *Session) setChannel(ch PushChannel) {
	s.mu.Lock()
	old := s.channel
	s.channel = ch
	s.mu.Unlock()

	if old != nil && old != ch {
		old.Close()
	}
}

// Push delivers an event on the session's current channel.
func (s *Session) Push(ctx context.Context, ev models.Event) error {
	ch := s.Channel()
	if ch == nil {
		return ErrNoChannel
	}
	return ch.Push(ctx, ev)
}

// close releases the bound channel, if any.
func (s *Session) close() {
	s.mu.Lock()
	ch := s.channel
	s.channel = nil
	s.mu.Unlock()

	if ch != nil {
		ch.Close()
	}
}
