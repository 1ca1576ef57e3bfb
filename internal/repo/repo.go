// Package repo implements the entity repositories over the key-value
// storage adapter. Each repository owns one storage key holding a JSON
// envelope around its collection, computes new collections functionally
// on write, and persists the whole collection back.
//
// Operations block for a small simulated latency before returning, to
// preserve the latency profile of a network-backed store for consumers
// that surface loading state. Reads degrade to the empty collection on
// a missing or corrupt envelope; write failures propagate as
// *storage.StorageError.
package repo

import (
	"context"
	"time"
)

// Storage keys, one disjoint key per entity collection.
const (
	horsesKey = "horses"
	tasksKey  = "tasks"
	eventsKey = "horseEvents"
)

// DefaultLatency is the simulated minimum latency of repository calls.
const DefaultLatency = 10 * time.Millisecond

// simulate blocks for the configured latency, honoring cancellation.
// The preceding storage operation has already completed by the time
// this runs, so a canceled caller still gets its write applied.
func simulate(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
