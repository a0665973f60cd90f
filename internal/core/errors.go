package core

import "errors"

var (
	// ErrTargetOffline is returned by signaling operations when the
	// target has no live session. Messaging never returns it: absent
	// recipients fall back to the pending queue instead.
	ErrTargetOffline = errors.New("target is offline")

	// ErrNoChannel means a session exists but has no push channel
	// bound (polling-only login).
	ErrNoChannel = errors.New("session has no push channel")
)
