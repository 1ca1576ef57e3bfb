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

// horsesEnvelope is the persisted shape under the "horses" key.
type horsesEnvelope struct {
	Horses []model.Horse `json:"horses"`
}

// HorsePatch carries the fields of a partial horse update. Nil fields
// leave the stored value unchanged.
type HorsePatch struct {
	Name   *string
	Colors *[]string
}

// Horses is the repository for the horse collection.
type Horses struct {
	storage storage.Storage
	latency time.Duration

	// mu serializes read-modify-write cycles so overlapping mutations
	// cannot interleave on the shared key.
	mu sync.Mutex
}

// NewHorses creates a horses repository over the given storage.
func NewHorses(st storage.Storage, latency time.Duration) *Horses {
	return &Horses{storage: st, latency: latency}
}

func (r *Horses) load() []model.Horse {
	var env horsesEnvelope
	r.storage.GetAsObject(horsesKey, &env)
	return env.Horses
}

func (r *Horses) save(horses []model.Horse) error {
	return r.storage.SetObject(horsesKey, horsesEnvelope{Horses: horses})
}

// FindAll returns the full horse collection.
func (r *Horses) FindAll(ctx context.Context) ([]model.Horse, error) {
	horses := r.load()
	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	return horses, nil
}

// FindOneByID returns the horse with the given id, or nil when absent.
func (r *Horses) FindOneByID(ctx context.Context, id model.ID) (*model.Horse, error) {
	horses := r.load()
	if err := simulate(ctx, r.latency); err != nil {
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

// Add appends a horse to the collection, assigning a unique id when the
// caller omits one, and returns the new collection.
func (r *Horses) Add(ctx context.Context, horse model.Horse) ([]model.Horse, error) {
	if strings.TrimSpace(horse.Name) == "" {
		return nil, fmt.Errorf("horse name must not be empty")
	}

	r.mu.Lock()
	horses := r.load()
	if horse.ID == "" {
		horse.ID = model.NewID()
	}
	updated := append(append([]model.Horse(nil), horses...), horse)
	err := r.save(updated)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("adding horse: %w", err)
	}

	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	return updated, nil
}

// Update applies a partial merge to the horse with the given id and
// returns the new collection. A non-matching id changes nothing.
func (r *Horses) Update(ctx context.Context, id model.ID, patch HorsePatch) ([]model.Horse, error) {
	r.mu.Lock()
	horses := r.load()
	updated := make([]model.Horse, len(horses))
	for i, h := range horses {
		if h.ID == id {
			if patch.Name != nil {
				h.Name = *patch.Name
			}
			if patch.Colors != nil {
				h.Colors = *patch.Colors
			}
		}
		updated[i] = h
	}
	err := r.save(updated)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("updating horse %s: %w", id, err)
	}

	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove filters the horse with the given id out of the collection and
// returns the new collection. Removing an unknown id is a no-op.
// Events referencing the removed horse are left in place (no cascading
// delete); they become dangling references resolved at read time.
func (r *Horses) Remove(ctx context.Context, id model.ID) ([]model.Horse, error) {
	r.mu.Lock()
	horses := r.load()
	updated := make([]model.Horse, 0, len(horses))
	for _, h := range horses {
		if h.ID != id {
			updated = append(updated, h)
		}
	}
	err := r.save(updated)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("removing horse %s: %w", id, err)
	}

	if err := simulate(ctx, r.latency); err != nil {
		return nil, err
	}
	return updated, nil
}
