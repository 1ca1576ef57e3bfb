// Package seed installs the default task set on first run.
package seed

import (
	"context"
	"fmt"
	"log"

	"github.com/akotova/stablemate/internal/model"
	"github.com/akotova/stablemate/internal/repo"
)

// DefaultTasks returns the tasks created when the collection is empty.
func DefaultTasks() []model.Task {
	return []model.Task{
		{ID: model.TaskCollect, Title: "Собрать", Color: "#1976d2"},
		{ID: model.TaskDisassemble, Title: "Разобрать", Color: "#ed6c02"},
		{ID: model.TaskWalk, Title: "Выгулить", Color: "#2e7d32"},
	}
}

// EnsureDefaultTasks seeds the default tasks when the task collection
// is empty. Idempotent: a non-empty collection is left untouched, so
// re-running never duplicates the defaults.
func EnsureDefaultTasks(ctx context.Context, tasks *repo.Tasks) error {
	existing, err := tasks.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("checking existing tasks: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	log.Printf("[seed] installing default tasks")
	for _, t := range DefaultTasks() {
		if _, err := tasks.Add(ctx, t); err != nil {
			return fmt.Errorf("seeding task %s: %w", t.ID, err)
		}
	}
	return nil
}
