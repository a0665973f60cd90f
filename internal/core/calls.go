package core

import (
	"context"
	"fmt"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/metrics"
	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

// Call signaling is a pure relay between two online peers: nothing is
// persisted or queued, and the payload is never interpreted. An
// unreachable target fails the call immediately — signaling is
// real-time only.

// InitiateCall notifies the target of an incoming call.
func (c *Chat) InitiateCall(ctx context.Context, from, to string) error {
	return c.relaySignal(ctx, to, models.NewCallSignal(models.SignalIncomingCall, from, ""))
}

// AcceptCall notifies the original caller that the call was accepted.
func (c *Chat) AcceptCall(ctx context.Context, from, to string) error {
	return c.relaySignal(ctx, to, models.NewCallSignal(models.SignalCallAccepted, from, ""))
}

// EndCall notifies the peer that the call ended. A peer that is already
// unreachable is treated as already hung up, not as an error.
func (c *Chat) EndCall(ctx context.Context, from, to string) error {
	// Terminal state is idempotent: an unreachable peer already counts
	// as hung up.
	_ = c.relaySignal(ctx, to, models.NewCallSignal(models.SignalCallEnded, from, ""))
	return nil
}

// SendSignal relays a WebRTC offer or answer.
func (c *Chat) SendSignal(ctx context.Context, from, to, signalType, payload string) error {
	if signalType != models.SignalOffer && signalType != models.SignalAnswer {
		return fmt.Errorf("unknown signal type %q", signalType)
	}
	return c.relaySignal(ctx, to, models.NewCallSignal(signalType, from, payload))
}

// SendICECandidate relays an ICE candidate.
func (c *Chat) SendICECandidate(ctx context.Context, from, to, candidate string) error {
	return c.relaySignal(ctx, to, models.NewCallSignal(models.SignalICECandidate, from, candidate))
}

// SendAudioChunk relays an in-call audio fragment.
func (c *Chat) SendAudioChunk(ctx context.Context, from, to string, chunk []byte) error {
	ev := models.NewCallSignal(models.SignalAudioChunk, from, "")
	ev.Data = chunk
	return c.relaySignal(ctx, to, ev)
}

func (c *Chat) relaySignal(ctx context.Context, to string, ev models.Event) error {
	sess, ok := c.presence.Resolve(to)
	if !ok {
		return fmt.Errorf("relay %s to %s: %w", ev.Signal, to, ErrTargetOffline)
	}

	pushCtx, cancel := context.WithTimeout(ctx, c.dispatcher.pushTimeout)
	defer cancel()
	if err := sess.Push(pushCtx, ev); err != nil {
		return fmt.Errorf("relay %s to %s: %w", ev.Signal, to, err)
	}
	metrics.SignalsRelayed.WithLabelValues(ev.Signal).Inc()
	return nil
}
