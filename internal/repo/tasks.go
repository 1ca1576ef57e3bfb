package repo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/akotova/stablemate/internal/model"
	"github.com/akotova/stablemate/internal/storage"
)

// tasksEnvelope is the persisted shape under the "tasks" key.
type tasksEnvelope struct {
	Tasks []model.Task `json:"tasks"`
}

// TaskPatch carries the fields of a partial task update. Nil fields
// leave the stored value unchanged.
type TaskPatch struct {
	Title *string
	Color *string
}

// Tasks is the repository for the task collection.
type Tasks struct {
	storage storage.Storage
	latency time.Duration

	mu sync.Mutex
}

// NewTasks creates a tasks repository over the given storage.
func NewTasks(st storage.Storage, latency time.Duration) *Tasks {
	return &Tasks{storage: st, latency: latency}
}

func (r *Tasks) load() []model.Task {
	var env tasksEnvelope
	r.storage.GetAsObject(tasksKey, &env)
	return env.Tasks
}

func (r *Tasks) save(tasks []model.Task) error {
	return r.storage.SetObject(tasksKey, tasksEnvelope{Tasks: tasks})
}

// FindAll returns the full task collection.
func (r *Tasks) FindAll(ctx context.Context) ([]model.Task, error) {
	tasks := r.load()
	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Add appends a task to the collection, assigning a unique id when the
// caller omits one, and returns the new collection.
func (r *Tasks) Add(ctx context.Context, task model.Task) ([]model.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, fmt.Errorf("task title must not be empty")
	}

	r.mu.Lock()
	tasks := r.load()
	if task.ID == "" {
		task.ID = model.NewID()
	}
	updated := append(append([]model.Task(nil), tasks...), task)
	err := r.save(updated)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("adding task: %w", err)
	}

	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	return updated, nil
}

// Update applies a partial merge to the task with the given id and
// returns the new collection.
func (r *Tasks) Update(ctx context.Context, id model.ID, patch TaskPatch) ([]model.Task, error) {
	r.mu.Lock()
	tasks := r.load()
	updated := make([]model.Task, len(tasks))
	for i, t := range tasks {
		if t.ID == id {
			if patch.Title != nil {
				t.Title = *patch.Title
			}
			if patch.Color != nil {
				t.Color = *patch.Color
			}
		}
		updated[i] = t
	}
	err := r.save(updated)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}

	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove filters the task with the given id out of the collection and
// returns the new collection. Removing an unknown id is a no-op.
func (r *Tasks) Remove(ctx context.Context, id model.ID) ([]model.Task, error) {
	r.mu.Lock()
	tasks := r.load()
	updated := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			updated = append(updated, t)
		}
	}
	err := r.save(updated)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("removing task %s: %w", id, err)
	}

	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	return updated, nil
}
