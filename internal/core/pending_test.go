package core

import (
	"context"
	"testing"

	"github.com/Juanjvr123/proyecto-final-compunet-1/internal/models"
)

func TestMemoryQueueFIFO(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	for _, body := range []string{"first", "second", "third"} {
		if err := q.Enqueue(ctx, "bob", models.NewDirectMessage("alice", body)); err != nil {
			t.Fatal(err)
		}
	}

	events, err := q.Drain(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, want := range []string{"first", "second", "third"} {
		if events[i].Body != want {
			t.Fatalf("event %d: expected %q, got %q", i, want, events[i].Body)
		}
	}
}

func TestMemoryQueueDrainClears(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	q.Enqueue(ctx, "bob", models.NewDirectMessage("alice", "hi"))
	if _, err := q.Drain(ctx, "bob"); err != nil {
		t.Fatal(err)
	}

	events, err := q.Drain(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("second drain should be empty, got %d events", len(events))
	}
}

func TestMemoryQueuePerUserIsolation(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()

	q.Enqueue(ctx, "bob", models.NewDirectMessage("alice", "for bob"))
	q.Enqueue(ctx, "carol", models.NewDirectMessage("alice", "for carol"))

	events, _ := q.Drain(ctx, "bob")
	if len(events) != 1 || events[0].Body != "for bob" {
		t.Fatalf("unexpected bob backlog: %+v", events)
	}
	if q.Depth("carol") != 1 {
		t.Fatalf("carol backlog should be untouched, depth %d", q.Depth("carol"))
	}
}
