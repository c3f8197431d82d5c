package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edfanon/internal/config"
	"edfanon/internal/edf"
	"edfanon/internal/edftest"
	"edfanon/internal/logger"
	"edfanon/internal/manifest"
	"edfanon/internal/names"
	"edfanon/internal/redact"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.GetDefaults()
	cfg.Subject.Code = "R1001E"
	cfg.Subject.FirstName = "John"
	cfg.Subject.MiddleNames = "Paul"
	cfg.Subject.LastName = "Smith"
	cfg.Session.InputDir = filepath.Join(t.TempDir(), "in")
	cfg.Session.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.Session.Workers = 2
	require.NoError(t, os.MkdirAll(cfg.Session.InputDir, 0o755))
	return cfg
}

func newOrchestrator(t *testing.T, cfg *config.Config, store *manifest.Store) *Orchestrator {
	t.Helper()
	spec := names.Spec{
		First:  cfg.Subject.FirstName,
		Middle: names.ParseMiddleNames(cfg.Subject.MiddleNames),
		Last:   cfg.Subject.LastName,
	}
	engine, err := redact.NewEngine(cfg.Redaction, spec, logger.NewNop())
	require.NoError(t, err)
	orch, err := New(cfg, engine, logger.NewNop(), store)
	require.NoError(t, err)
	return orch
}

func writeInput(t *testing.T, cfg *config.Config, name string, opts edftest.Options) string {
	t.Helper()
	path := filepath.Join(cfg.Session.InputDir, name)
	require.NoError(t, edftest.WriteFile(path, opts))
	return path
}

func TestRunSession(t *testing.T) {
	cfg := testConfig(t)
	writeInput(t, cfg, "morning.edf", edftest.Options{
		Start: time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC),
		Annotations: []edftest.Annotation{
			{Onset: 0.5, Duration: -1, Text: "Pt John Smith became confused", Record: 0},
			{Onset: 1.5, Duration: -1, Text: "he pulled at electrodes", Record: 1},
			{Onset: 2.5, Duration: -1, Text: "Photic stimulation", Record: 2},
		},
	})
	writeInput(t, cfg, "afternoon.edf", edftest.Options{
		Start: time.Date(2023, 3, 1, 14, 30, 0, 0, time.UTC),
	})

	orch := newOrchestrator(t, cfg, nil)
	summary, err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 2, summary.Anchored)
	require.Len(t, summary.Results, 2)

	// Results follow discovery order (sorted by name)
	afternoon, morning := summary.Results[0], summary.Results[1]
	assert.Equal(t, StatusOK, morning.Status)
	assert.Equal(t, StatusOK, afternoon.Status)

	// The earliest file lands on the epoch, the later one keeps its offset
	assert.Equal(t, time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC), morning.NewStart)
	assert.Equal(t, time.Date(1985, 1, 1, 4, 30, 0, 0, time.UTC), afternoon.NewStart)

	assert.Equal(t, 1, morning.Blanked())
	assert.Equal(t, 1, morning.Dropped())

	// Output names carry subject code and de-identified start
	assert.Equal(t, "morning_R1001E_1985.01.01__00.00.00.edf", filepath.Base(morning.Output))
	assert.Equal(t, "afternoon_R1001E_1985.01.01__04.30.00.edf", filepath.Base(afternoon.Output))

	// The written file is clean: scrubbed header, redacted annotations
	out, err := edf.ReadFile(morning.Output)
	require.NoError(t, err)
	assert.Equal(t, "R1001E X X X", out.Header.Patient)
	assert.Equal(t, "Startdate 01-JAN-1985 X X X", out.Header.Recording)
	assert.Equal(t, time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC), out.Header.Start)
	require.Len(t, out.Annotations, 1)
	assert.Equal(t, "Photic stimulation", out.Annotations[0].Text)

	// No leftover temp files
	entries, err := os.ReadDir(cfg.Session.OutputDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestRunContinuesPastBadFile(t *testing.T) {
	cfg := testConfig(t)
	writeInput(t, cfg, "good.edf", edftest.Options{})
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Session.InputDir, "corrupt.edf"), []byte("not an edf file"), 0o644))

	orch := newOrchestrator(t, cfg, nil)
	summary, err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Results, 2)

	corrupt := summary.Results[0]
	assert.Equal(t, StatusFailed, corrupt.Status)
	assert.NotEmpty(t, corrupt.Reason)
	assert.Empty(t, corrupt.Output)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.DryRun = true
	writeInput(t, cfg, "a.edf", edftest.Options{})

	orch := newOrchestrator(t, cfg, nil)
	summary, err := orch.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.Succeeded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, "dry run", summary.Results[0].Reason)

	entries, err := os.ReadDir(cfg.Session.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunPartialRecordPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.PartialRecordPolicy = "drop"
	writeInput(t, cfg, "short.edf", edftest.Options{TruncateBytes: 100})

	orch := newOrchestrator(t, cfg, nil)
	summary, err := orch.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	r := summary.Results[0]
	assert.Equal(t, StatusOK, r.Status)
	assert.True(t, r.PartialRecord)
	assert.Equal(t, edf.PartialDrop, r.PolicyApplied)

	out, err := edf.ReadMetadata(r.Output)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Header.NumDataRecords)
}

func TestRunEmptyInputDir(t *testing.T) {
	cfg := testConfig(t)

	orch := newOrchestrator(t, cfg, nil)
	_, err := orch.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .edf files")
}

func TestRunCancelledContext(t *testing.T) {
	cfg := testConfig(t)
	for _, name := range []string{"a.edf", "b.edf", "c.edf"} {
		writeInput(t, cfg, name, edftest.Options{})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch := newOrchestrator(t, cfg, nil)
	summary, err := orch.Run(ctx)
	require.NoError(t, err)

	// Every file is accounted for even though none may have run
	assert.Len(t, summary.Results, 3)
	assert.Equal(t, 3, summary.Succeeded+summary.Failed+summary.Skipped)
}

func TestRunWritesManifest(t *testing.T) {
	cfg := testConfig(t)
	writeInput(t, cfg, "a.edf", edftest.Options{TruncateBytes: 100})

	store, err := manifest.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	orch := newOrchestrator(t, cfg, store)
	summary, err := orch.Run(context.Background())
	require.NoError(t, err)

	run, err := store.GetRun(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, "R1001E", run.SubjectCode)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, "zero-pad", run.PartialRecordPolicy)

	recs, err := store.FilesForRun(context.Background(), summary.RunID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ok", recs[0].Status)
	assert.True(t, recs[0].PartialRecord)
	assert.Equal(t, "zero-pad", recs[0].PolicyApplied)
}
