package manifest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := Run{
		ID:                  "run-1",
		SubjectCode:         "R1001E",
		Epoch:               "1985-01-01",
		PartialRecordPolicy: "zero-pad",
	}
	require.NoError(t, store.BeginRun(ctx, run))

	files := []FileRecord{
		{
			RunID:         "run-1",
			InputPath:     "/in/a.edf",
			OutputPath:    "/out/a_R1001E_1985.01.01__00.00.00.edf",
			Status:        "ok",
			Findings:      2,
			Blanked:       1,
			Dropped:       1,
			PartialRecord: true,
			PolicyApplied: "zero-pad",
		},
		{
			RunID:     "run-1",
			InputPath: "/in/b.edf",
			Status:    "failed",
			Reason:    "format violation: unsupported version field",
		},
	}
	for _, rec := range files {
		require.NoError(t, store.RecordFile(ctx, rec))
	}
	require.NoError(t, store.FinishRun(ctx, "run-1", 1, 1, 0))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "R1001E", got.SubjectCode)
	assert.Equal(t, 1, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	assert.NotEmpty(t, got.StartedAt)
	assert.NotEmpty(t, got.FinishedAt)

	recs, err := store.FilesForRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, files[0], recs[0])
	assert.Equal(t, files[1], recs[1])
}

func TestRecordFileUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.BeginRun(ctx, Run{ID: "run-2", SubjectCode: "R1002N", Epoch: "1985-01-01", PartialRecordPolicy: "drop"}))

	rec := FileRecord{RunID: "run-2", InputPath: "/in/a.edf", Status: "failed", Reason: "io failure: short read"}
	require.NoError(t, store.RecordFile(ctx, rec))

	rec.Status = "ok"
	rec.Reason = ""
	rec.OutputPath = "/out/a.edf"
	require.NoError(t, store.RecordFile(ctx, rec))

	recs, err := store.FilesForRun(ctx, "run-2")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ok", recs[0].Status)
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, first.BeginRun(context.Background(), Run{ID: "run-3", SubjectCode: "R1003T", Epoch: "1985-01-01", PartialRecordPolicy: "zero-pad"}))
	require.NoError(t, first.Close())

	second, err := Open(dir)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, filepath.Join(dir, "manifest.db"), second.Path())
	run, err := second.GetRun(context.Background(), "run-3")
	require.NoError(t, err)
	assert.Equal(t, "R1003T", run.SubjectCode)
}
