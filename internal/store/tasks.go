package store

import (
	"context"

	"github.com/akotova/stablemate/internal/model"
	"github.com/akotova/stablemate/internal/repo"
)

// Error priority slots for the tasks coordinator.
const (
	tasksErrRead = iota
	tasksErrAdd
	tasksErrUpdate
	tasksErrRemove
	tasksErrSlots
)

// Tasks coordinates reads and writes of the task collection.
type Tasks struct {
	repo  *repo.Tasks
	cache *Cache[model.Task]
	state *opState
}

// NewTasks creates a tasks coordinator over the given repository.
func NewTasks(r *repo.Tasks) *Tasks {
	s := &Tasks{
		repo:  r,
		state: newOpState(tasksErrSlots),
	}
	s.cache = NewCache("tasks", s.fetchAll)
	return s
}

func (s *Tasks) fetchAll(ctx context.Context) ([]model.Task, error) {
	return s.repo.FindAll(ctx)
}

// List returns the cached task collection.
func (s *Tasks) List(ctx context.Context) ([]model.Task, error) {
	s.state.beginRead()
	tasks, err := s.cache.Get(ctx)
	s.state.endRead(err)
	return tasks, err
}

// FindByID resolves a task id against the cached collection. A
// dangling id resolves to nil, not an error.
func (s *Tasks) FindByID(ctx context.Context, id model.ID) (*model.Task, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			t := tasks[i]
			return &t, nil
		}
	}
	return nil, nil
}

// Add creates a task and invalidates the cached read.
func (s *Tasks) Add(ctx context.Context, task model.Task) error {
	s.state.beginMutation()
	_, err := s.repo.Add(ctx, task)
	s.state.endMutation(tasksErrAdd, err)
	if err == nil {
		s.cache.Invalidate()
	}
	return err
}

// Update applies a partial update and invalidates the cached read.
func (s *Tasks) Update(ctx context.Context, id model.ID, patch repo.TaskPatch) error {
	s.state.beginMutation()
	_, err := s.repo.Update(ctx, id, patch)
	s.state.endMutation(tasksErrUpdate, err)
	if err == nil {
		s.cache.Invalidate()
	}
	return err
}

// Remove deletes a task and invalidates the cached read.
func (s *Tasks) Remove(ctx context.Context, id model.ID) error {
	s.state.beginMutation()
	_, err := s.repo.Remove(ctx, id)
	s.state.endMutation(tasksErrRemove, err)
	if err == nil {
		s.cache.Invalidate()
	}
	return err
}

// Loading reports whether the read or any mutation is in flight.
func (s *Tasks) Loading() bool {
	return s.state.loading()
}

// Err returns the current aggregate error message, or "".
func (s *Tasks) Err() string {
	return s.state.err()
}

// Subscribe registers fn to run whenever the collection changes.
func (s *Tasks) Subscribe(fn func()) func() {
	return s.cache.Subscribe(fn)
}
