package core

import (
	"context"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

// PushChannel is the transport-provided capability to deliver events to
// one live session. The core assumes nothing about the underlying
// connection: the transport invalidates the channel on disconnect and
// calls the core disconnect hook.
type PushChannel interface {
	// Push delivers one event. Implementations must respect the
	// context deadline; the dispatcher bounds every push attempt.
	Push(ctx context.Context, ev models.Event) error
	Close() error
}
