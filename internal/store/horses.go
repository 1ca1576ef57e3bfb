package store

import (
	"context"

	"github.com/akotova/stablemate/internal/model"
	"github.com/akotova/stablemate/internal/repo"
)

// Error priority slots for the horses coordinator.
const (
	horsesErrRead = iota
	horsesErrAdd
	horsesErrUpdate
	horsesErrRemove
	horsesErrSlots
)

// Horses coordinates reads and writes of the horse collection.
type Horses struct {
	repo  *repo.Horses
	cache *Cache[model.Horse]
	state *opState
}

// NewHorses creates a horses coordinator over the given repository.
func NewHorses(r *repo.Horses) *Horses {
	s := &Horses{
		repo:  r,
		state: newOpState(horsesErrSlots),
	}
	s.cache = NewCache("horses", s.fetchAll)
	return s
}

func (s *Horses) fetchAll(ctx context.Context) ([]model.Horse, error) {
	return s.repo.FindAll(ctx)
}

// List returns the cached horse collection, fetching on a cold or
// invalidated cache.
func (s *Horses) List(ctx context.Context) ([]model.Horse, error) {
	s.state.beginRead()
	horses, err := s.cache.Get(ctx)
	s.state.endRead(err)
	return horses, err
}

// FindByID resolves a horse id against the cached collection. A
// dangling id resolves to nil, not an error.
func (s *Horses) FindByID(ctx context.Context, id model.ID) (*model.Horse, error) {
	horses, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range horses {
		if horses[i].ID == id {
			h := horses[i]
			return &h, nil
		}
	}
	return nil, nil
}

// Add creates a horse and invalidates the cached read.
func (s *Horses) Add(ctx context.Context, horse model.Horse) error {
	s.state.beginMutation()
	_, err := s.repo.Add(ctx, horse)
	s.state.endMutation(horsesErrAdd, err)
	if err == nil {
		s.cache.Invalidate()
	}
	return err
}

// Update applies a partial update and invalidates the cached read.
func (s *Horses) Update(ctx context.Context, id model.ID, patch repo.HorsePatch) error {
	s.state.beginMutation()
	_, err := s.repo.Update(ctx, id, patch)
	s.state.endMutation(horsesErrUpdate, err)
	if err == nil {
		s.cache.Invalidate()
	}
	return err
}

// Remove deletes a horse and invalidates the cached read.
func (s *Horses) Remove(ctx context.Context, id model.ID) error {
	s.state.beginMutation()
	_, err := s.repo.Remove(ctx, id)
	s.state.endMutation(horsesErrRemove, err)
	if err == nil {
		s.cache.Invalidate()
	}
	return err
}

// Loading reports whether the read or any mutation is in flight.
func (s *Horses) Loading() bool {
	return s.state.loading()
}

// Err returns the current aggregate error message, or "".
func (s *Horses) Err() string {
	return s.state.err()
}

// Subscribe registers fn to run whenever the collection changes.
func (s *Horses) Subscribe(fn func()) func() {
	return s.cache.Subscribe(fn)
}
