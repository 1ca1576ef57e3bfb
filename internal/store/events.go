package store

import (
	"context"
	"sort"
	"sync"

	"github.com/akotova/stablemate/internal/model"
	"github.com/akotova/stablemate/internal/repo"
)

// Error priority slots for the events coordinator.
const (
	eventsErrRead = iota
	eventsErrAdd
	eventsErrUpdate
	eventsErrRemove
	eventsErrToggle
	eventsErrSlots
)

// Events coordinates reads and writes of the horse-event collection and
// derives the per-date views consumed by the schedule screen.
type Events struct {
	repo  *repo.Events
	cache *Cache[model.HorseEvent]
	state *opState

	dateMu       sync.Mutex
	selectedDate string
}

// NewEvents creates an events coordinator over the given repository.
// The selected date defaults to today.
func NewEvents(r *repo.Events) *Events {
	s := &Events{
		repo:         r,
		state:        newOpState(eventsErrSlots),
		selectedDate: model.Today(),
	}
	s.cache = NewCache("horse-events", s.fetchAll)
	return s
}

func (s *Events) fetchAll(ctx context.Context) ([]model.HorseEvent, error) {
	return s.repo.FindAll(ctx)
}

// List returns the cached event collection.
func (s *Events) List(ctx context.Context) ([]model.HorseEvent, error) {
	s.state.beginRead()
	events, err := s.cache.Get(ctx)
	s.state.endRead(err)
	return events, err
}

// SelectedDate returns the date the derived views filter on.
func (s *Events) SelectedDate() string {
	s.dateMu.Lock()
	defer s.dateMu.Unlock()
	return s.selectedDate
}

// SetSelectedDate changes the visible date. Filtering happens
// client-side over the cached collection, so no refetch is triggered;
// subscribers are still notified so views recompute.
func (s *Events) SetSelectedDate(date string) {
	s.dateMu.Lock()
	s.selectedDate = date
	s.dateMu.Unlock()
	s.cache.Publish()
}

// FilteredEvents returns the cached events dated exactly the selected
// date, in stored order.
func (s *Events) FilteredEvents(ctx context.Context) ([]model.HorseEvent, error) {
	return s.ListByDate(ctx, s.SelectedDate())
}

// ListByDate returns the cached events dated exactly date.
func (s *Events) ListByDate(ctx context.Context, date string) ([]model.HorseEvent, error) {
	events, err := s.List(ctx)
	if err != nil {
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

// EventsByTime groups the selected date's events by their exact time
// string and returns the groups sorted ascending by time. Zero-padded
// 24h values make lexicographic comparison sufficient. Events sharing a
// time keep their original relative order.
func (s *Events) EventsByTime(ctx context.Context) ([]model.TimeSlot, error) {
	return s.GroupedByTime(ctx, s.SelectedDate())
}

// GroupedByTime is EventsByTime for an explicit date.
func (s *Events) GroupedByTime(ctx context.Context, date string) ([]model.TimeSlot, error) {
	filtered, err := s.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]model.HorseEvent)
	order := make([]string, 0)
	for _, e := range filtered {
		if _, ok := grouped[e.Time]; !ok {
			order = append(order, e.Time)
		}
		grouped[e.Time] = append(grouped[e.Time], e)
	}
	sort.Strings(order)

	slots := make([]model.TimeSlot, 0, len(order))
	for _, t := range order {
		slots = append(slots, model.TimeSlot{Time: t, Events: grouped[t]})
	}
	return slots, nil
}

// Add creates an event and invalidates the cached read.
func (s *Events) Add(ctx context.Context, event model.HorseEvent) error {
	s.state.beginMutation()
	_, err := s.repo.Add(ctx, event)
	s.state.endMutation(eventsErrAdd, err)
	if err == nil {
		s.cache.Invalidate()
	}
	return err
}

// Update applies a partial update and invalidates the cached read.
func (s *Events) Update(ctx context.Context, id model.ID, patch repo.EventPatch) error {
	s.state.beginMutation()
	_, err := s.repo.Update(ctx, id, patch)
	s.state.endMutation(eventsErrUpdate, err)
	if err == nil {
		s.cache.Invalidate()
	}
	return err
}

// Remove deletes an event and invalidates the cached read.
func (s *Events) Remove(ctx context.Context, id model.ID) error {
	s.state.beginMutation()
	_, err := s.repo.Remove(ctx, id)
	s.state.endMutation(eventsErrRemove, err)
	if err == nil {
		s.cache.Invalidate()
	}
	return err
}

// ToggleCompleted flips an event's completed flag through the dedicated
// repository operation. This is a distinct mutation path from Update:
// routing it through a client-side read-then-update would race a stale
// cached read.
func (s *Events) ToggleCompleted(ctx context.Context, id model.ID) error {
	s.state.beginMutation()
	_, err := s.repo.ToggleCompleted(ctx, id)
	s.state.endMutation(eventsErrToggle, err)
	if err == nil {
		s.cache.Invalidate()
	}
	return err
}

// Loading reports whether the read or any mutation is in flight.
func (s *Events) Loading() bool {
	return s.state.loading()
}

// Err returns the current aggregate error message, or "".
func (s *Events) Err() string {
	return s.state.err()
}

// Subscribe registers fn to run whenever the collection or the selected
// date changes.
func (s *Events) Subscribe(fn func()) func() {
	return s.cache.Subscribe(fn)
}
