package session

import (
	"time"

	"edfanon/internal/edf"
	"edfanon/internal/redact"
)

// Status is the per-file outcome of a run.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// FileResult reports the outcome of one source file. The original start
// time is deliberately absent: it is identifying, and the summary may be
// shared alongside the de-identified output.
type FileResult struct {
	Input  string
	Output string
	Status Status
	// Reason is the human-readable failure or skip cause.
	Reason string
	Err    error

	NewStart      time.Time
	Findings      []redact.Finding
	FieldsSwept   int
	PartialRecord bool
	// PolicyApplied names the lossy path taken for a partial final
	// record; empty when the file had none.
	PolicyApplied edf.PartialRecordPolicy
}

// Blanked returns how many annotations were blanked in this file.
func (r FileResult) Blanked() int { return r.countAction("blank") }

// Dropped returns how many annotations were dropped from this file.
func (r FileResult) Dropped() int { return r.countAction("drop") }

func (r FileResult) countAction(action string) int {
	n := 0
	for _, f := range r.Findings {
		if f.Action == action {
			n += f.Count
		}
	}
	return n
}

// Summary is the full account of one run. Every discovered source file
// appears exactly once.
type Summary struct {
	RunID       string
	SubjectCode string
	Epoch       time.Time
	Anchored    int
	Results     []FileResult
	Succeeded   int
	Failed      int
	Skipped     int
	Duration    time.Duration
}
