package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/metrics"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

// Outcome reports what the dispatcher did with an event.
type Outcome string

const (
	// Delivered: the push on the live channel was confirmed.
	Delivered Outcome = "delivered"
	// Queued: the event went to the recipient's pending queue.
	Queued Outcome = "queued"
	// Dropped: the event was neither deliverable nor queueable.
	Dropped Outcome = "dropped"
)

// Dispatcher resolves reachable push channels and delivers events,
// falling back to the pending queue when a recipient is absent or its
// channel fails. Push failures are recovered locally and never surface
// to callers: losing the live notification is acceptable, losing the
// message is not.
type Dispatcher struct {
	presence    *Presence
	queue       Queue
	directory   *Directory
	pushTimeout time.Duration
	logger      zerolog.Logger
}

// NewDispatcher wires a dispatcher over the shared registries.
func NewDispatcher(presence *Presence, queue Queue, directory *Directory, pushTimeout time.Duration, logger zerolog.Logger) *Dispatcher {
	if pushTimeout <= 0 {
		pushTimeout = 3 * time.Second
	}
	return &Dispatcher{
		presence:    presence,
		queue:       queue,
		directory:   directory,
		pushTimeout: pushTimeout,
		logger:      logger.With().Str("component", "dispatch").Logger(),
	}
}

// NotifyUser delivers an event to one user. The push attempt is bounded
// by the dispatcher timeout; after that it is treated as failed. A
// confirmed push suppresses queueing — the queue holds only events the
// recipient has not already seen live.
func (d *Dispatcher) NotifyUser(ctx context.Context, target string, ev models.Event) Outcome {
	if sess, ok := d.presence.Resolve(target); ok {
		pushCtx, cancel := context.WithTimeout(ctx, d.pushTimeout)
		err := sess.Push(pushCtx, ev)
		cancel()
		if err == nil {
			metrics.Deliveries.WithLabelValues(string(Delivered)).Inc()
			return Delivered
		}
		d.logger.Warn().Err(err).
			Str("user", target).
			Str("event", string(ev.Type)).
			Msg("live push failed, falling back to queue")
	}

	if !ev.Queueable() {
		metrics.Deliveries.WithLabelValues(string(Dropped)).Inc()
		return Dropped
	}
	if err := d.queue.Enqueue(ctx, target, ev); err != nil {
		d.logger.Error().Err(err).Str("user", target).Msg("enqueue failed")
		metrics.Deliveries.WithLabelValues(string(Dropped)).Inc()
		return Dropped
	}
	metrics.Deliveries.WithLabelValues(string(Queued)).Inc()
	return Queued
}

// NotifyGroup fans an event out to the group's member snapshot taken at
// call time, excluding the sender. Members are notified in parallel and
// failures are isolated per member. The call returns once every member
// has been either delivered or queued, so two sequential group sends
// from the same origin keep per-recipient queue order.
func (d *Dispatcher) NotifyGroup(ctx context.Context, group, from string, ev models.Event) {
	d.NotifyMembers(ctx, d.directory.MembersOf(group), from, ev, nil)
}

// NotifyMembers is the fan-out primitive behind NotifyGroup. The
// optional done callback observes each member's outcome; it may be
// invoked concurrently.
func (d *Dispatcher) NotifyMembers(ctx context.Context, members []string, exclude string, ev models.Event, done func(member string, out Outcome)) {
	var wg sync.WaitGroup
	for _, member := range members {
		if member == exclude {
			continue
		}
		wg.Add(1)
		go func(member string) {
			defer wg.Done()
			out := d.NotifyUser(ctx, member, ev)
			if done != nil {
				done(member, out)
			}
		}(member)
	}
	wg.Wait()
}
