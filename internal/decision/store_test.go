package decision

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mkarlsen/gridsync/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSQLiteStore opens a fresh store against a temp-dir database file.
// The pure-Go driver needs no cgo, so this runs everywhere.
func newSQLiteStore(t *testing.T) *StoreImpl {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decisions.db")
	store, err := NewStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*StoreImpl)
}

func testWindow() schema.ExclusionWindow {
	return schema.ExclusionWindow{
		WindowID:        "w-00deadbeef01",
		Start:           time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC),
		End:             time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC),
		AffectedStreams: []string{"flow", "temp-supply"},
		OverlapDuration: 12 * time.Hour,
		Status:          schema.ProposedWindow,
	}
}

func TestNewStore_NoneBackendIsNil(t *testing.T) {
	store, err := NewStore(schema.NoneBackend, "")
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestNewStore_UnsupportedBackend(t *testing.T) {
	_, err := NewStore(schema.DatabaseBackend("oracle"), "")
	assert.ErrorContains(t, err, "unsupported decision backend")
}

func TestSaveProposal_InsertIfAbsent(t *testing.T) {
	store := newSQLiteStore(t)
	w := testWindow()

	inserted, err := store.SaveProposal(w)
	require.NoError(t, err)
	assert.True(t, inserted)

	// The same window ID proposed again is a no-op.
	inserted, err = store.SaveProposal(w)
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestSaveProposal_DoesNotOverwriteDecision(t *testing.T) {
	store := newSQLiteStore(t)
	w := testWindow()

	_, err := store.SaveProposal(w)
	require.NoError(t, err)
	require.NoError(t, store.RecordDecision(w.WindowID, schema.ApprovedWindow))

	// A re-run proposing the same window must not reset the approval.
	inserted, err := store.SaveProposal(w)
	require.NoError(t, err)
	assert.False(t, inserted)

	status, err := store.GetDecision(w.WindowID)
	require.NoError(t, err)
	assert.Equal(t, schema.ApprovedWindow, status)
}

func TestGetDecision_UnknownWindowIsProposed(t *testing.T) {
	store := newSQLiteStore(t)
	status, err := store.GetDecision("w-000000000000")
	require.NoError(t, err)
	assert.Equal(t, schema.ProposedWindow, status)
}

func TestRecordDecision(t *testing.T) {
	store := newSQLiteStore(t)
	w := testWindow()
	_, err := store.SaveProposal(w)
	require.NoError(t, err)

	require.NoError(t, store.RecordDecision(w.WindowID, schema.RejectedWindow))
	status, err := store.GetDecision(w.WindowID)
	require.NoError(t, err)
	assert.Equal(t, schema.RejectedWindow, status)

	t.Run("unknown window", func(t *testing.T) {
		err := store.RecordDecision("w-00000000ffff", schema.ApprovedWindow)
		assert.ErrorContains(t, err, `unknown window "w-00000000ffff"`)
	})

	t.Run("invalid status", func(t *testing.T) {
		err := store.RecordDecision(w.WindowID, schema.ProposedWindow)
		assert.ErrorContains(t, err, "invalid decision")
	})
}

func TestListWindows_NewestFirstRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)

	older := testWindow()
	newer := schema.ExclusionWindow{
		WindowID:        "w-00deadbeef02",
		Start:           time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		End:             time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
		AffectedStreams: []string{"flow", "temp-return", "temp-supply"},
		OverlapDuration: 9 * time.Hour,
	}
	_, err := store.SaveProposal(older)
	require.NoError(t, err)
	_, err = store.SaveProposal(newer)
	require.NoError(t, err)
	require.NoError(t, store.RecordDecision(older.WindowID, schema.ApprovedWindow))

	windows, err := store.ListWindows()
	require.NoError(t, err)
	require.Len(t, windows, 2)

	assert.Equal(t, newer.WindowID, windows[0].WindowID)
	assert.Equal(t, newer.Start, windows[0].Start)
	assert.Equal(t, []string{"flow", "temp-return", "temp-supply"}, windows[0].AffectedStreams)
	assert.Equal(t, schema.ProposedWindow, windows[0].Status)

	assert.Equal(t, older.WindowID, windows[1].WindowID)
	assert.Equal(t, older.End, windows[1].End)
	assert.Equal(t, 12*time.Hour, windows[1].OverlapDuration)
	assert.Equal(t, schema.ApprovedWindow, windows[1].Status)
}

func TestRunLifecycle(t *testing.T) {
	store := newSQLiteStore(t)

	params := map[string]any{"input": "samples.csv", "workers": 4}
	runID, err := store.BeginRun(params)
	require.NoError(t, err)
	require.Positive(t, runID)

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].RunID)
	assert.Equal(t, schema.AwaitingApprovalState, runs[0].State)
	assert.Nil(t, runs[0].FinishedAt)
	assert.Equal(t, "samples.csv", runs[0].ConfigParams["input"])

	require.NoError(t, store.EndRun(runID, schema.CompletedState, 960, 875, 0.95))

	runs, err = store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, schema.CompletedState, runs[0].State)
	assert.NotNil(t, runs[0].FinishedAt)
	assert.Equal(t, 960, runs[0].RowsTotal)
	assert.Equal(t, 875, runs[0].RowsValid)
	assert.Equal(t, 0.95, runs[0].Confidence)
}

func TestListRuns_LimitAndOrder(t *testing.T) {
	store := newSQLiteStore(t)

	var ids []int64
	for range 3 {
		id, err := store.BeginRun(nil)
		require.NoError(t, err)
		ids = append(ids, id)
		time.Sleep(time.Millisecond) // run IDs are clock-derived
	}

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].RunID)
	assert.Equal(t, ids[1], runs[1].RunID)
}

func TestMigrateRuns_DownRemovesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.db")
	store, err := NewStore(schema.SQLiteBackend, path)
	require.NoError(t, err)
	impl := store.(*StoreImpl)

	// Roll the run-history schema all the way down, then back up.
	require.NoError(t, migrateRunsWithDB(impl.db, schema.SQLiteBackend, 0))
	_, err = impl.db.Exec("SELECT run_id FROM gridsync_runs LIMIT 1")
	assert.Error(t, err)

	require.NoError(t, migrateRunsWithDB(impl.db, schema.SQLiteBackend, -1))
	_, err = store.BeginRun(nil)
	assert.NoError(t, err)
	require.NoError(t, store.Close())
}
