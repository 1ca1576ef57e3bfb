package seed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akotova/stablemate/internal/model"
	"github.com/akotova/stablemate/internal/repo"
	"github.com/akotova/stablemate/internal/seed"
	"github.com/akotova/stablemate/tests/testutil"
)

func TestEnsureDefaultTasks_EmptyCollection(t *testing.T) {
	tasks := repo.NewTasks(testutil.NewTestStorage(t), 0)
	ctx := context.Background()

	require.NoError(t, seed.EnsureDefaultTasks(ctx, tasks))

	stored, err := tasks.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	assert.Equal(t, model.Task{ID: model.TaskCollect, Title: "Собрать", Color: "#1976d2"}, stored[0])
	assert.Equal(t, model.Task{ID: model.TaskDisassemble, Title: "Разобрать", Color: "#ed6c02"}, stored[1])
	assert.Equal(t, model.Task{ID: model.TaskWalk, Title: "Выгулить", Color: "#2e7d32"}, stored[2])
}

func TestEnsureDefaultTasks_Idempotent(t *testing.T) {
	tasks := repo.NewTasks(testutil.NewTestStorage(t), 0)
	ctx := context.Background()

	require.NoError(t, seed.EnsureDefaultTasks(ctx, tasks))
	require.NoError(t, seed.EnsureDefaultTasks(ctx, tasks))

	stored, err := tasks.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 3, "re-seeding must not duplicate the defaults")
}

func TestEnsureDefaultTasks_NonEmptyLeftAlone(t *testing.T) {
	tasks := repo.NewTasks(testutil.NewTestStorage(t), 0)
	ctx := context.Background()

	custom := model.Task{ID: "t-custom", Title: "Почистить", Color: "#aa00aa"}
	_, err := tasks.Add(ctx, custom)
	require.NoError(t, err)

	require.NoError(t, seed.EnsureDefaultTasks(ctx, tasks))

	stored, err := tasks.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Task{custom}, stored, "a customized collection must survive seeding")
}
