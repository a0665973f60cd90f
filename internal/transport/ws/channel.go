package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

const defaultWriteWait = 10 * time.Second

// Channel adapts a websocket connection to the core push contract.
// Writes are serialized: gorilla connections allow one concurrent
// writer.
type Channel struct {
	conn *websocket.Conn

	// writeMu guards conn writes; Push may be called from many
	// goroutines at once during broadcasts and fan-outs.
	writeMu chan struct{}
}

// NewChannel wraps an upgraded websocket connection.
func NewChannel(conn *websocket.Conn) *Channel {
	ch := &Channel{
		conn:    conn,
		writeMu: make(chan struct{}, 1),
	}
	ch.writeMu <- struct{}{}
	return ch
}

// Push writes one event as a JSON message, honoring the context
// deadline. A slow or dead peer surfaces as a write error, which the
// dispatcher turns into a queue fallback.
func (c *Channel) Push(ctx context.Context, ev models.Event) error {
	select {
	case <-c.writeMu:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { c.writeMu <- struct{}{} }()

	deadline := time.Now().Add(defaultWriteWait)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteJSON(ev)
}

// Close closes the underlying connection.
func (c *Channel) Close() error {
	return c.conn.Close()
}
