package core

import (
	"context"
	"sync"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

// Queue is the offline fallback path for events that could not be
// confirmed delivered live. Per-user order is FIFO.
type Queue interface {
	Enqueue(ctx context.Context, username string, ev models.Event) error
	// Drain returns the user's backlog in insertion order and
	// atomically clears it: a second Drain with no intervening Enqueue
	// returns nothing.
	Drain(ctx context.Context, username string) ([]models.Event, error)
}

// MemoryQueue keeps per-user backlogs in process memory. Queues are
// created lazily on first enqueue and have no size bound: a user who
// never reconnects accretes entries until restart, an accepted resource
// risk of the design.
type MemoryQueue struct {
	mu      sync.Mutex
	pending map[string][]models.Event
}

// NewMemoryQueue creates an empty queue set.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{pending: make(map[string][]models.Event)}
}

// Enqueue appends to the user's backlog.
func (q *MemoryQueue) Enqueue(ctx context.Context, username string, ev models.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[username] = append(q.pending[username], ev)
	return nil
}

// Drain returns and clears the user's backlog.
func (q *MemoryQueue) Drain(ctx context.Context, username string) ([]models.Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := q.pending[username]
	delete(q.pending, username)
	return events, nil
}

// Depth reports the user's current backlog size.
func (q *MemoryQueue) Depth(username string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending[username])
}
