package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akotova/stablemate/internal/model"
	"github.com/akotova/stablemate/internal/storage"
)

// eventsEnvelope is the persisted shape under the "horseEvents" key.
type eventsEnvelope struct {
	Events []model.HorseEvent `json:"events"`
}

// EventPatch carries the fields of a partial event update. Nil fields
// leave the stored value unchanged. Completed is deliberately absent:
// completion flips only through ToggleCompleted.
type EventPatch struct {
	HorseID  *model.ID
	TasksIDs *[]model.ID
	Time     *string
	Date     *string
	Name     *string
}

// Events is the repository for the horse-event collection.
type Events struct {
	storage storage.Storage
	latency time.Duration

	mu sync.Mutex
}

// NewEvents creates an events repository over the given storage.
func NewEvents(st storage.Storage, latency time.Duration) *Events {
	return &Events{storage: st, latency: latency}
}

func (r *Events) load() []model.HorseEvent {
	var env eventsEnvelope
	r.storage.GetAsObject(eventsKey, &env)
	return env.Events
}

func (r *Events) save(events []model.HorseEvent) error {
	return r.storage.SetObject(eventsKey, eventsEnvelope{Events: events})
}

// FindAll returns the full event collection.
func (r *Events) FindAll(ctx context.Context) ([]model.HorseEvent, error) {
	events := r.load()
	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	return events, nil
}

// FindByDate returns all events dated exactly date.
func (r *Events) FindByDate(ctx context.Context, date string) ([]model.HorseEvent, error) {
	events := r.load()
	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	filtered := make([]model.HorseEvent, 0, len(events))
	for _, e := range events {
		if e.Date == date {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// FindByHorse returns all events referencing the given horse.
func (r *Events) FindByHorse(ctx context.Context, horseID model.ID) ([]model.HorseEvent, error) {
	events := r.load()
	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	filtered := make([]model.HorseEvent, 0, len(events))
	for _, e := range events {
		if e.HorseID == horseID {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// FindByDateRange returns all events with start <= date <= end.
// Lexicographic comparison is correct for the canonical date format.
func (r *Events) FindByDateRange(ctx context.Context, start, end string) ([]model.HorseEvent, error) {
	events := r.load()
	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	filtered := make([]model.HorseEvent, 0, len(events))
	for _, e := range events {
		if e.Date >= start && e.Date <= end {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// Add appends an event to the collection, assigning a unique id when
// the caller omits one, and returns the new collection. An event must
// carry at least one task.
func (r *Events) Add(ctx context.Context, event model.HorseEvent) ([]model.HorseEvent, error) {
	if len(event.TasksIDs) == 0 {
		return nil, fmt.Errorf("event must have at least one task")
	}

	r.mu.Lock()
	events := r.load()
	if event.ID == "" {
		event.ID = model.NewID()
	}
	updated := append(append([]model.HorseEvent(nil), events...), event)
	err := r.save(updated)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("adding event: %w", err)
	}

	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	return updated, nil
}

// Update applies a partial merge to the event with the given id and
// returns the new collection.
func (r *Events) Update(ctx context.Context, id model.ID, patch EventPatch) ([]model.HorseEvent, error) {
	r.mu.Lock()
	events := r.load()
	updated := make([]model.HorseEvent, len(events))
	for i, e := range events {
		if e.ID == id {
			if patch.HorseID != nil {
				e.HorseID = *patch.HorseID
			}
			if patch.TasksIDs != nil {
				e.TasksIDs = *patch.TasksIDs
			}
			if patch.Time != nil {
				e.Time = *patch.Time
			}
			if patch.Date != nil {
				e.Date = *patch.Date
			}
			if patch.Name != nil {
				e.Name = *patch.Name
			}
		}
		updated[i] = e
	}
	err := r.save(updated)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("updating event %s: %w", id, err)
	}

	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove filters the event with the given id out of the collection and
// returns the new collection. Removing an unknown id is a no-op.
func (r *Events) Remove(ctx context.Context, id model.ID) ([]model.HorseEvent, error) {
	r.mu.Lock()
	events := r.load()
	updated := make([]model.HorseEvent, 0, len(events))
	for _, e := range events {
		if e.ID != id {
			updated = append(updated, e)
		}
	}
	err := r.save(updated)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("removing event %s: %w", id, err)
	}

	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	return updated, nil
}

// ToggleCompleted flips exactly the completed flag of the event with
// the given id and returns the new collection. Every other field is
// left byte-identical.
func (r *Events) ToggleCompleted(ctx context.Context, id model.ID) ([]model.HorseEvent, error) {
	r.mu.Lock()
	events := r.load()
	updated := make([]model.HorseEvent, len(events))
	for i, e := range events {
		if e.ID == id {
			e.Completed = !e.Completed
		}
		updated[i] = e
	}
	err := r.save(updated)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("toggling event %s: %w", id, err)
	}

	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	return updated, nil
}
