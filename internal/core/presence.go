package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/metrics"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

// Presence is the live map of username to active session. All
// operations are safe under concurrent invocation; login and logout for
// the same username serialize on the registry lock, so a logout racing
// a login can never leave a live channel behind for a user reported
// offline.
type Presence struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	pushTimeout time.Duration
	logger      zerolog.Logger
}

// NewPresence creates an empty presence registry.
func NewPresence(logger zerolog.Logger, pushTimeout time.Duration) *Presence {
	if pushTimeout <= 0 {
		pushTimeout = 3 * time.Second
	}
	return &Presence{
		sessions:    make(map[string]*Session),
		pushTimeout: pushTimeout,
		logger:      logger.With().Str("component", "presence").Logger(),
	}
}

// Login binds a channel to the username. If the user already has a live
// session the channel is replaced in place and the existing handle is
// returned, supporting reconnect without losing identity. Every login
// triggers a best-effort presence broadcast to all other live sessions.
func (p *Presence) Login(username string, ch PushChannel) *Session {
	p.mu.Lock()
	sess, existed := p.sessions[username]
	if existed {
		sess.setChannel(ch)
	} else {
		sess = newSession(username, ch)
		p.sessions[username] = sess
	}
	online := len(p.sessions)
	p.mu.Unlock()

	metrics.OnlineUsers.Set(float64(online))
	p.logger.Info().Str("user", username).Bool("reconnect", existed).Msg("session bound")

	go p.broadcast(models.NewPresenceChange(username, true), username)
	return sess
}

// Logout removes the user's session and reports whether one existed.
// Like Login it triggers a presence broadcast to the remaining
// sessions.
func (p *Presence) Logout(username string) bool {
	p.mu.Lock()
	sess, ok := p.sessions[username]
	if ok {
		delete(p.sessions, username)
	}
	online := len(p.sessions)
	p.mu.Unlock()

	if !ok {
		return false
	}
	sess.close()

	metrics.OnlineUsers.Set(float64(online))
	p.logger.Info().Str("user", username).Msg("session removed")

	go p.broadcast(models.NewPresenceChange(username, false), username)
	return true
}

// Resolve returns the live session for a username, if any.
func (p *Presence) Resolve(username string) (*Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	sess, ok := p.sessions[username]
	return sess, ok
}

// IsOnline reports whether the user currently has a live session.
func (p *Presence) IsOnline(username string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.sessions[username]
	return ok
}

// Online returns the sorted list of users with a live session.
func (p *Presence) Online() []string {
	p.mu.RLock()
	users := make([]string, 0, len(p.sessions))
	for u := range p.sessions {
		users = append(users, u)
	}
	p.mu.RUnlock()

	sort.Strings(users)
	return users
}

// broadcast pushes an event to every live session except the excluded
// user. Delivery is best-effort and never queued: a disconnected
// subscriber simply misses it. Each recipient is pushed on its own
// goroutine so one stale channel cannot abort or delay the rest.
func (p *Presence) broadcast(ev models.Event, exclude string) {
	p.mu.RLock()
	targets := make([]*Session, 0, len(p.sessions))
	for u, sess := range p.sessions {
		if u == exclude {
			continue
		}
		targets = append(targets, sess)
	}
	p.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sess := range targets {
		wg.Add(1)
		go func(sess *Session) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), p.pushTimeout)
			defer cancel()
			if err := sess.Push(ctx, ev); err != nil {
				p.logger.Debug().Err(err).
					Str("user", sess.Username).
					Str("event", string(ev.Type)).
					Msg("presence broadcast push failed")
			}
		}(sess)
	}
	wg.Wait()
}
