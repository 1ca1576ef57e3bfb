package sweeper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akotova/stablemate/internal/model"
	"github.com/akotova/stablemate/internal/storage"
	"github.com/akotova/stablemate/tests/testutil"
)

// monday is a fixed trigger-day clock for gate tests.
var monday = time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

func newSweeper(t *testing.T, cfg model.SweeperConfig, now time.Time) (*Sweeper, *storage.SQLiteStorage) {
	t.Helper()
	st := testutil.NewTestStorage(t)
	s := New(st, cfg)
	s.now = func() time.Time { return now }
	return s, st
}

func seedLiveEvents(t *testing.T, st storage.Storage, events ...model.HorseEvent) {
	t.Helper()
	require.NoError(t, st.SetObject(eventsKey, eventsEnvelope{Events: events}))
}

func liveEvents(t *testing.T, st storage.Storage) []model.HorseEvent {
	t.Helper()
	var env eventsEnvelope
	st.GetAsObject(eventsKey, &env)
	return env.Events
}

func archivedEvents(t *testing.T, st storage.Storage) []model.HorseEvent {
	t.Helper()
	var archive []model.HorseEvent
	st.GetAsObject(archiveKey, &archive)
	return archive
}

func TestCheckAndCleanup_FreshInstallInitializesAndSkips(t *testing.T) {
	s, st := newSweeper(t, model.SweeperConfig{}, monday)
	seedLiveEvents(t, st, model.HorseEvent{
		ID: "e-old", HorseID: "h1", TasksIDs: []model.ID{model.TaskCollect}, Time: "11:00", Date: "2026-01-01",
	})

	ran, err := s.CheckAndCleanup()
	require.NoError(t, err)
	assert.False(t, ran, "a fresh install must not clean immediately")

	stamp, ok := st.Get("lastStorageCleanupDate")
	require.True(t, ok, "the timestamp must be initialized")
	parsed, err := time.Parse(time.RFC3339, stamp)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(monday))

	assert.Len(t, liveEvents(t, st), 1, "events stay untouched on the initializing run")
}

func TestCheckAndCleanup_SkipsOffTriggerDay(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	s, st := newSweeper(t, model.SweeperConfig{}, tuesday)
	require.NoError(t, st.SetPrimitive("lastStorageCleanupDate",
		tuesday.AddDate(0, 0, -30).Format(time.RFC3339)))

	ran, err := s.CheckAndCleanup()
	require.NoError(t, err)
	assert.False(t, ran, "cleanup only runs on the weekly trigger day")
}

func TestCheckAndCleanup_SkipsWithinMinInterval(t *testing.T) {
	s, st := newSweeper(t, model.SweeperConfig{}, monday)
	require.NoError(t, st.SetPrimitive("lastStorageCleanupDate",
		monday.AddDate(0, 0, -3).Format(time.RFC3339)))

	ran, err := s.CheckAndCleanup()
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestCheckAndCleanup_RunsWhenDue(t *testing.T) {
	s, st := newSweeper(t, model.SweeperConfig{}, monday)
	require.NoError(t, st.SetPrimitive("lastStorageCleanupDate",
		monday.AddDate(0, 0, -14).Format(time.RFC3339)))

	old := model.HorseEvent{
		ID: "e-old", HorseID: "h1", TasksIDs: []model.ID{model.TaskCollect}, Time: "11:00", Date: "2026-08-10",
	}
	recent := model.HorseEvent{
		ID: "e-recent", HorseID: "h1", TasksIDs: []model.ID{model.TaskWalk}, Time: "12:00", Date: "2026-08-23",
	}
	seedLiveEvents(t, st, old, recent)

	ran, err := s.CheckAndCleanup()
	require.NoError(t, err)
	assert.True(t, ran)

	live := liveEvents(t, st)
	require.Len(t, live, 1)
	assert.Equal(t, model.ID("e-recent"), live[0].ID)

	archive := archivedEvents(t, st)
	require.Len(t, archive, 1)
	assert.Equal(t, old, archive[0], "archived events keep every field")

	stamp, _ := st.Get("lastStorageCleanupDate")
	parsed, err := time.Parse(time.RFC3339, stamp)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(monday), "a run refreshes the timestamp")
}

func TestForceCleanup_ArchiveAccumulates(t *testing.T) {
	s, st := newSweeper(t, model.SweeperConfig{}, monday)

	seedLiveEvents(t, st, model.HorseEvent{
		ID: "e1", HorseID: "h1", TasksIDs: []model.ID{model.TaskCollect}, Time: "11:00", Date: "2026-08-01",
	})
	require.NoError(t, s.ForceCleanup())
	assert.Len(t, archivedEvents(t, st), 1)

	seedLiveEvents(t, st, model.HorseEvent{
		ID: "e2", HorseID: "h2", TasksIDs: []model.ID{model.TaskWalk}, Time: "12:00", Date: "2026-08-05",
	})
	require.NoError(t, s.ForceCleanup())

	archive := archivedEvents(t, st)
	require.Len(t, archive, 2, "the archive only ever grows")
	assert.Equal(t, model.ID("e1"), archive[0].ID)
	assert.Equal(t, model.ID("e2"), archive[1].ID)
}

func TestForceCleanup_PrunesOldCompletedWithoutArchiving(t *testing.T) {
	// A wide archive window keeps old events live so the prune pass is
	// what removes them.
	cfg := model.SweeperConfig{ArchiveAfterDays: 60, PruneCompletedAfterDays: 14}
	s, st := newSweeper(t, cfg, monday)

	oldDone := model.HorseEvent{
		ID: "e-done", HorseID: "h1", TasksIDs: []model.ID{model.TaskCollect}, Time: "11:00", Date: "2026-08-01", Completed: true,
	}
	oldPending := model.HorseEvent{
		ID: "e-pending", HorseID: "h1", TasksIDs: []model.ID{model.TaskWalk}, Time: "12:00", Date: "2026-08-01",
	}
	seedLiveEvents(t, st, oldDone, oldPending)

	require.NoError(t, s.ForceCleanup())

	live := liveEvents(t, st)
	require.Len(t, live, 1)
	assert.Equal(t, model.ID("e-pending"), live[0].ID, "incomplete events are never pruned")
	assert.Empty(t, archivedEvents(t, st), "pruned events are dropped, not archived")
}

func TestForceCleanup_UnparseableDateStaysLive(t *testing.T) {
	s, st := newSweeper(t, model.SweeperConfig{}, monday)
	seedLiveEvents(t, st, model.HorseEvent{
		ID: "e-odd", HorseID: "h1", TasksIDs: []model.ID{model.TaskCollect}, Time: "11:00", Date: "когда-нибудь",
	})

	require.NoError(t, s.ForceCleanup())

	assert.Len(t, liveEvents(t, st), 1)
	assert.Empty(t, archivedEvents(t, st))
}

func TestCheckAndCleanup_CorruptTimestampErrors(t *testing.T) {
	s, st := newSweeper(t, model.SweeperConfig{}, monday)
	require.NoError(t, st.SetPrimitive("lastStorageCleanupDate", "not-a-date"))

	_, err := s.CheckAndCleanup()
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, daysBetween(base, base))
	assert.Equal(t, 7, daysBetween(base, base.AddDate(0, 0, 7)))
	assert.Equal(t, 7, daysBetween(base.AddDate(0, 0, 7), base), "order must not matter")
	// 6 days 20 hours rounds to 7.
	assert.Equal(t, 7, daysBetween(base, base.Add(164*time.Hour)))
	// 6 days 6 hours rounds down to 6.
	assert.Equal(t, 6, daysBetween(base, base.Add(150*time.Hour)))
}
