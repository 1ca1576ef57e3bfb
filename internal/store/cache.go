// Package store implements the read/write coordinators consumed by the
// presentation layer. Each coordinator wraps a repository with a cached
// "all records" read, mutation operations that invalidate the cache,
// change notification for consumers, and aggregate loading/error state.
package store

import (
	"context"
	"sync"
)

// Cache holds one cached read of a full collection, keyed by a logical
// collection name. A successful mutation invalidates it, forcing the
// next Get to refetch. Subscribers are notified on invalidation and on
// explicit publishes, so consumers can re-render without polling.
type Cache[T any] struct {
	name  string
	fetch func(context.Context) ([]T, error)

	mu      sync.Mutex
	valid   bool
	records []T
	subs    map[int]func()
	nextSub int
}

// NewCache creates a cache for the named collection using fetch to load
// the full record set.
func NewCache[T any](name string, fetch func(context.Context) ([]T, error)) *Cache[T] {
	return &Cache[T]{
		name:  name,
		fetch: fetch,
		subs:  map[int]func(){},
	}
}

// Get returns the cached collection, fetching it first when the cache
// is invalid. A fetch failure leaves the cache invalid.
func (c *Cache[T]) Get(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	if c.valid {
		records := c.records
		c.mu.Unlock()
		return records, nil
	}
	c.mu.Unlock()

	records, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.valid = true
	c.records = records
	c.mu.Unlock()
	return records, nil
}

// Invalidate discards the cached read and notifies subscribers.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.records = nil
	c.mu.Unlock()
	c.Publish()
}

// Subscribe registers fn to run on every invalidation or publish. The
// returned function unsubscribes.
func (c *Cache[T]) Subscribe(fn func()) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Publish notifies subscribers without touching the cached read. Used
// for derived-state changes that do not require a refetch, such as the
// selected date.
func (c *Cache[T]) Publish() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// opState tracks the aggregate loading/error state of one coordinator:
// the read-pending flag, the count of in-flight mutations, and the last
// error of the read and of each mutation kind.
type opState struct {
	mu       sync.Mutex
	reading  bool
	inFlight int
	errs     []error // fixed priority order, read error first
}

func newOpState(slots int) *opState {
	return &opState{errs: make([]error, slots)}
}

func (o *opState) beginRead() {
	o.mu.Lock()
	o.reading = true
	o.mu.Unlock()
}

func (o *opState) endRead(err error) {
	o.mu.Lock()
	o.reading = false
	o.errs[0] = err
	o.mu.Unlock()
}

func (o *opState) beginMutation() {
	o.mu.Lock()
	o.inFlight++
	o.mu.Unlock()
}

// endMutation records err in the given priority slot.
func (o *opState) endMutation(slot int, err error) {
	o.mu.Lock()
	o.inFlight--
	o.errs[slot] = err
	o.mu.Unlock()
}

// loading reports whether the read or any mutation is in flight.
func (o *opState) loading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reading || o.inFlight > 0
}

// err returns the first recorded error in priority order, as a string
// for UI consumption, or "" when every operation succeeded.
func (o *opState) err() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.errs {
		if e != nil {
			return e.Error()
		}
	}
	return ""
}
