// Package sweeper implements the opportunistic maintenance policy that
// archives and prunes old events from the live collection. It is
// pull-based: callers invoke it on startup (or manually), there is no
// timer.
package sweeper

import (
	"fmt"
	"log"
	"time"

	"github.com/akotova/stablemate/internal/model"
	"github.com/akotova/stablemate/internal/storage"
)

const (
	lastCleanupKey = "lastStorageCleanupDate"
	eventsKey      = "horseEvents"
	archiveKey     = "eventsArchive"
)

// eventsEnvelope mirrors the live events storage shape. The archive is
// deliberately a flat array, not enveloped.
type eventsEnvelope struct {
	Events []model.HorseEvent `json:"events"`
}

// Sweeper runs the cleanup policy against the shared storage adapter.
// Each sub-collection is read then written independently, so a failure
// cleaning events never touches anything else.
type Sweeper struct {
	storage storage.Storage
	cfg     model.SweeperConfig

	// now is injectable for tests.
	now func() time.Time
}

// New creates a sweeper with the given retention configuration.
func New(st storage.Storage, cfg model.SweeperConfig) *Sweeper {
	if cfg.ArchiveAfterDays <= 0 {
		cfg.ArchiveAfterDays = 7
	}
	if cfg.PruneCompletedAfterDays <= 0 {
		cfg.PruneCompletedAfterDays = 14
	}
	if cfg.MinIntervalDays <= 0 {
		cfg.MinIntervalDays = 7
	}
	return &Sweeper{storage: st, cfg: cfg, now: time.Now}
}

// CheckAndCleanup runs the cleanup when it is due and reports whether
// it ran. Cleanup is due only on the weekly trigger day with at least
// the configured interval elapsed since the last run. On a fresh
// install the timestamp is initialized and nothing is cleaned.
func (s *Sweeper) CheckAndCleanup() (bool, error) {
	due, err := s.shouldCleanup()
	if err != nil {
		return false, err
	}
	if !due {
		return false, nil
	}

	if err := s.performCleanup(); err != nil {
		return false, err
	}
	if err := s.updateLastCleanupDate(); err != nil {
		return true, err
	}
	return true, nil
}

// ForceCleanup bypasses the eligibility gate entirely.
func (s *Sweeper) ForceCleanup() error {
	if err := s.performCleanup(); err != nil {
		return err
	}
	return s.updateLastCleanupDate()
}

// shouldCleanup evaluates the weekly gate.
func (s *Sweeper) shouldCleanup() (bool, error) {
	lastStr, ok := s.storage.Get(lastCleanupKey)
	if !ok {
		// Never cleaned before: initialize the timestamp and skip, so a
		// fresh install does not immediately archive anything.
		return false, s.updateLastCleanupDate()
	}

	lastCleanup, err := time.Parse(time.RFC3339, lastStr)
	if err != nil {
		return false, fmt.Errorf("parsing last cleanup date %q: %w", lastStr, err)
	}

	now := s.now()
	return now.Weekday() == time.Monday &&
		daysBetween(lastCleanup, now) >= s.cfg.MinIntervalDays, nil
}

// performCleanup archives old events, then prunes old completed events
// from whatever remains live.
func (s *Sweeper) performCleanup() error {
	if err := s.archiveOldEvents(); err != nil {
		return err
	}
	return s.pruneCompletedEvents()
}

// archiveOldEvents moves events older than the archive window out of
// the live collection into the archive. The archive only ever grows.
func (s *Sweeper) archiveOldEvents() error {
	var env eventsEnvelope
	s.storage.GetAsObject(eventsKey, &env)
	if len(env.Events) == 0 {
		return nil
	}

	cutoff := s.now().AddDate(0, 0, -s.cfg.ArchiveAfterDays)

	var old, recent []model.HorseEvent
	for _, e := range env.Events {
		if s.eventBefore(e, cutoff) {
			old = append(old, e)
		} else {
			recent = append(recent, e)
		}
	}
	if len(old) == 0 {
		return nil
	}

	var archive []model.HorseEvent
	s.storage.GetAsObject(archiveKey, &archive)
	archive = append(archive, old...)

	if err := s.storage.SetObject(archiveKey, archive); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := s.storage.SetObject(eventsKey, eventsEnvelope{Events: recent}); err != nil {
		return fmt.Errorf("writing live events: %w", err)
	}

	log.Printf("[sweeper] archived %d events older than %d days", len(old), s.cfg.ArchiveAfterDays)
	return nil
}

// pruneCompletedEvents removes (not archives) completed events older
// than the prune window from the live collection.
func (s *Sweeper) pruneCompletedEvents() error {
	var env eventsEnvelope
	s.storage.GetAsObject(eventsKey, &env)
	if len(env.Events) == 0 {
		return nil
	}

	cutoff := s.now().AddDate(0, 0, -s.cfg.PruneCompletedAfterDays)

	kept := make([]model.HorseEvent, 0, len(env.Events))
	for _, e := range env.Events {
		if e.Completed && s.eventBefore(e, cutoff) {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == len(env.Events) {
		return nil
	}

	if err := s.storage.SetObject(eventsKey, eventsEnvelope{Events: kept}); err != nil {
		return fmt.Errorf("writing live events: %w", err)
	}

	log.Printf("[sweeper] pruned %d completed events older than %d days",
		len(env.Events)-len(kept), s.cfg.PruneCompletedAfterDays)
	return nil
}

// eventBefore reports whether the event's date falls strictly before
// cutoff. An unparseable date keeps the event live.
func (s *Sweeper) eventBefore(e model.HorseEvent, cutoff time.Time) bool {
	d, err := time.Parse(model.DateFormat, e.Date)
	if err != nil {
		return false
	}
	return d.Before(cutoff)
}

func (s *Sweeper) updateLastCleanupDate() error {
	return s.storage.SetPrimitive(lastCleanupKey, s.now().UTC().Format(time.RFC3339))
}

// daysBetween returns the rounded whole-day distance between two times.
func daysBetween(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return int((d.Hours() + 12) / 24)
}
