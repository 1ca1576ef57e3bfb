package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akotova/stablemate/internal/model"
	"github.com/akotova/stablemate/internal/repo"
	"github.com/akotova/stablemate/internal/store"
	"github.com/akotova/stablemate/tests/testutil"
)

func newHorsesStore(t *testing.T) *store.Horses {
	t.Helper()
	return store.NewHorses(repo.NewHorses(testutil.NewTestStorage(t), 0))
}

func TestHorses_AddAndList(t *testing.T) {
	s := newHorsesStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, model.Horse{ID: "h1", Name: "Николь"}))
	require.NoError(t, s.Add(ctx, model.Horse{ID: "h2", Name: "Lis"}))

	horses, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, horses, 2)
	assert.Equal(t, "Николь", horses[0].Name)
}

func TestHorses_FindByID_DanglingResolvesToNil(t *testing.T) {
	s := newHorsesStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, model.Horse{ID: "h1", Name: "Николь"}))

	found, err := s.FindByID(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Николь", found.Name)

	missing, err := s.FindByID(ctx, "removed-long-ago")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestHorses_UpdateRefreshesRead(t *testing.T) {
	s := newHorsesStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, model.Horse{ID: "h1", Name: "Николь"}))
	_, err := s.List(ctx)
	require.NoError(t, err)

	name := "Nicole"
	require.NoError(t, s.Update(ctx, "h1", repo.HorsePatch{Name: &name}))

	horses, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Nicole", horses[0].Name)
}

func TestHorses_FailedAddRecordsError(t *testing.T) {
	s := newHorsesStore(t)

	err := s.Add(context.Background(), model.Horse{Name: ""})
	require.Error(t, err)
	assert.NotEmpty(t, s.Err())
}
