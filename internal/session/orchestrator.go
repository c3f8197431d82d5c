// Package session sequences the de-identification of one subject's EDF
// files: discovery, time-base planning, then per-file header scrubbing,
// annotation redaction and output assembly over a worker pool.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"edfanon/internal/config"
	"edfanon/internal/edf"
	"edfanon/internal/logger"
	"edfanon/internal/manifest"
	"edfanon/internal/redact"
	"edfanon/internal/scrub"
	"edfanon/internal/timebase"
)

// outputTimestampLayout names output files by their de-identified start
// time. Dots instead of colons keep the names portable.
const outputTimestampLayout = "2006.01.02__15.04.05"

// Orchestrator runs one subject session. Its inputs (config, rule
// engine, time-base plan) are immutable during the run, so files fan out
// safely over the worker pool.
type Orchestrator struct {
	cfg    *config.Config
	engine *redact.Engine
	logger *logger.Logger
	store  *manifest.Store // nil disables the manifest
	epoch  time.Time
	policy edf.PartialRecordPolicy
}

// New builds an orchestrator from validated configuration.
func New(cfg *config.Config, engine *redact.Engine, log *logger.Logger, store *manifest.Store) (*Orchestrator, error) {
	epoch, err := cfg.Epoch()
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:    cfg,
		engine: engine,
		logger: log.WithComponent("session"),
		store:  store,
		epoch:  epoch,
		policy: edf.PartialRecordPolicy(cfg.Session.PartialRecordPolicy),
	}, nil
}

// Run processes every EDF file in the input directory and returns the
// per-file outcomes. One bad file never aborts the batch; it is reported
// failed and the rest continue.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := o.logger.WithRunID(runID)

	inputs, err := discover(o.cfg.Session.InputDir)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no .edf files found in %s", o.cfg.Session.InputDir)
	}
	log.Info("Session discovered",
		zap.Int("files", len(inputs)),
		zap.String("subject_code", o.cfg.Subject.Code),
	)

	if err := os.MkdirAll(o.cfg.Session.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	summary := &Summary{
		RunID:       runID,
		SubjectCode: o.cfg.Subject.Code,
		Epoch:       o.epoch,
	}

	// Planning pass: original start times, without loading signal data.
	// Files that cannot even be probed become failed outcomes here.
	starts := make(map[string]time.Time, len(inputs))
	failed := make(map[string]FileResult)
	for _, path := range inputs {
		meta, err := edf.ReadMetadata(path)
		if err != nil {
			log.Warn("Failed to read file metadata", zap.String("file", path), zap.String("reason", describe(err)))
			failed[path] = FileResult{Input: path, Status: StatusFailed, Reason: describe(err), Err: err}
			continue
		}
		starts[path] = meta.Header.Start
	}

	var plan *timebase.Plan
	if len(starts) > 0 {
		plan, err = timebase.Compute(starts, o.epoch)
		if err != nil {
			return nil, err
		}
		summary.Anchored = plan.Len()
		log.Info("Time base computed",
			zap.Int("files", plan.Len()),
			zap.Time("epoch", o.epoch),
		)
	}

	if o.store != nil {
		run := manifest.Run{
			ID:                  runID,
			SubjectCode:         o.cfg.Subject.Code,
			Epoch:               o.epoch.Format(time.RFC3339),
			PartialRecordPolicy: string(o.policy),
			StartedAt:           start.UTC().Format(time.RFC3339),
		}
		if err := o.store.BeginRun(ctx, run); err != nil {
			return nil, err
		}
	}

	results := o.processAll(ctx, plan, starts, log)
	for path, r := range failed {
		results[path] = r
	}

	// Anything planned but never dispatched (cancellation) still shows
	// up in the summary.
	for _, path := range inputs {
		if _, ok := results[path]; !ok {
			results[path] = FileResult{Input: path, Status: StatusSkipped, Reason: "run cancelled"}
		}
	}

	for _, path := range inputs {
		r := results[path]
		switch r.Status {
		case StatusOK:
			summary.Succeeded++
		case StatusFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		}
		summary.Results = append(summary.Results, r)
		if o.store != nil {
			rec := manifest.FileRecord{
				RunID:         runID,
				InputPath:     r.Input,
				OutputPath:    r.Output,
				Status:        string(r.Status),
				Reason:        r.Reason,
				Findings:      len(r.Findings),
				Blanked:       r.Blanked(),
				Dropped:       r.Dropped(),
				PartialRecord: r.PartialRecord,
				PolicyApplied: string(r.PolicyApplied),
			}
			if err := o.store.RecordFile(ctx, rec); err != nil {
				log.Error("Failed to record file outcome", zap.String("file", r.Input), zap.Error(err))
			}
		}
	}

	summary.Duration = time.Since(start)
	if o.store != nil {
		if err := o.store.FinishRun(ctx, runID, summary.Succeeded, summary.Failed, summary.Skipped); err != nil {
			log.Error("Failed to finalize manifest run", zap.Error(err))
		}
	}

	log.Info("Session completed",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// processAll fans the plannable files out over the worker pool. The plan,
// engine and config are shared read-only.
func (o *Orchestrator) processAll(ctx context.Context, plan *timebase.Plan, starts map[string]time.Time, log *logger.Logger) map[string]FileResult {
	results := make(map[string]FileResult, len(starts))
	if plan == nil {
		return results
	}

	paths := make([]string, 0, len(starts))
	for path := range starts {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	workers := o.cfg.Session.Workers
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan string)
	out := make(chan FileResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				out <- o.processFile(path, plan, log)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case <-ctx.Done():
				return
			case jobs <- path:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	for r := range out {
		results[r.Input] = r
	}
	return results
}

// processFile transforms one file end to end. No partial output survives
// a failure: the file is written to a temp path and renamed only once
// complete.
func (o *Orchestrator) processFile(path string, plan *timebase.Plan, log *logger.Logger) FileResult {
	flog := log.WithFile(path)
	result := FileResult{Input: path}

	newStart, ok := plan.NewStart(path)
	if !ok {
		result.Status = StatusFailed
		result.Reason = "file missing from time-base plan"
		return result
	}
	result.NewStart = newStart

	file, err := edf.ReadFile(path)
	if err != nil {
		return failure(result, err)
	}
	result.PartialRecord = file.PartialFinalRecord
	if file.PartialFinalRecord {
		result.PolicyApplied = o.policy
		flog.Warn("Partial final data record",
			zap.Int("bytes_present", file.PartialBytes),
			zap.String("policy", string(o.policy)),
		)
	}

	// Header scrubbing always runs.
	header := scrub.Header(file.Header, o.cfg.Subject.Code, newStart)
	header, swept := scrub.FreeText(header, o.engine)
	file.Header = header
	result.FieldsSwept = swept

	if o.cfg.Redaction.Annotations {
		file.Annotations, result.Findings = o.engine.Apply(file.Annotations)
	}

	outName := outputName(path, o.cfg.Subject.Code, newStart)
	outPath := filepath.Join(o.cfg.Session.OutputDir, outName)
	result.Output = outPath

	if o.cfg.Session.DryRun {
		result.Status = StatusSkipped
		result.Reason = "dry run"
		return result
	}

	tmpPath := outPath + ".tmp"
	if err := file.WriteFile(tmpPath, o.policy); err != nil {
		return failure(result, err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return failure(result, fmt.Errorf("finalize output: %w", err))
	}

	flog.Info("File de-identified",
		zap.String("output", outPath),
		zap.Int("annotations_blanked", result.Blanked()),
		zap.Int("annotations_dropped", result.Dropped()),
		zap.Int("header_fields_swept", swept),
	)
	result.Status = StatusOK
	return result
}

func failure(result FileResult, err error) FileResult {
	result.Status = StatusFailed
	result.Err = err
	result.Reason = describe(err)
	result.Output = ""
	return result
}

// describe renders an error for the run summary, distinguishing format
// violations from plain I/O failures.
func describe(err error) string {
	var formatErr *edf.FormatError
	if errors.As(err, &formatErr) {
		return err.Error()
	}
	return "io failure: " + err.Error()
}

// discover lists the EDF files of the input directory, sorted by name.
func discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".edf") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// outputName keeps the source base name and appends the subject code and
// the de-identified start time.
func outputName(inputPath, subjectCode string, newStart time.Time) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_%s_%s.edf", base, subjectCode, newStart.Format(outputTimestampLayout))
}
