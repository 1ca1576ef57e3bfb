// Package app wires the application object graph. The App is
// constructed once at process start and passed to consumers; nothing in
// the core imports a hidden singleton.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/akotova/stablemate/internal/model"
	"github.com/akotova/stablemate/internal/parser"
	"github.com/akotova/stablemate/internal/repo"
	"github.com/akotova/stablemate/internal/seed"
	"github.com/akotova/stablemate/internal/storage"
	"github.com/akotova/stablemate/internal/store"
	"github.com/akotova/stablemate/internal/sweeper"
)

// App owns the storage adapter and exposes the collaborator contract:
// the per-entity coordinators, the schedule parser, and the sweeper.
type App struct {
	Horses  *store.Horses
	Tasks   *store.Tasks
	Events  *store.Events
	Parser  *parser.Parser
	Sweeper *sweeper.Sweeper

	storage *storage.SQLiteStorage
	tasks   *repo.Tasks
}

// New builds the full object graph: storage adapter, repositories,
// coordinators, parser, and sweeper. apiKey may be empty; parsing then
// fails at call time with an API error rather than at startup.
func New(cfg *model.AppConfig, apiKey string) (*App, error) {
	st, err := storage.NewSQLiteStorage(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	latency := time.Duration(cfg.Storage.LatencyMs) * time.Millisecond

	horsesRepo := repo.NewHorses(st, latency)
	tasksRepo := repo.NewTasks(st, latency)
	eventsRepo := repo.NewEvents(st, latency)

	horses := store.NewHorses(horsesRepo)
	tasks := store.NewTasks(tasksRepo)
	events := store.NewEvents(eventsRepo)

	return &App{
		Horses:  horses,
		Tasks:   tasks,
		Events:  events,
		Parser:  parser.New(apiKey, cfg.AI, horses, tasks, events),
		Sweeper: sweeper.New(st, cfg.Sweeper),
		storage: st,
		tasks:   tasksRepo,
	}, nil
}

// Seed installs the default task set when the collection is empty.
func (a *App) Seed(ctx context.Context) error {
	return seed.EnsureDefaultTasks(ctx, a.tasks)
}

// Close releases the underlying storage.
func (a *App) Close() error {
	return a.storage.Close()
}
