// Package timebase re-anchors recording start times onto a de-identified
// epoch while preserving the elapsed time between files of one session.
package timebase

import (
	"fmt"
	"time"
)

// Plan maps each file of a session to its de-identified start time. The
// anchor is the earliest original start; every file keeps its offset from
// that anchor, re-based onto the epoch. Plans are immutable once computed
// and safe to share across file workers.
type Plan struct {
	Anchor time.Time
	Epoch  time.Time

	newStarts map[string]time.Time
	offsets   map[string]time.Duration
}

// Compute builds the plan from the original start time of every file in
// the session, keyed by path. A single-file session gets offset zero, so
// its new start is exactly the epoch.
func Compute(starts map[string]time.Time, epoch time.Time) (*Plan, error) {
	if len(starts) == 0 {
		return nil, fmt.Errorf("session has no files with readable start times")
	}

	var anchor time.Time
	first := true
	for _, start := range starts {
		if first || start.Before(anchor) {
			anchor = start
			first = false
		}
	}

	plan := &Plan{
		Anchor:    anchor,
		Epoch:     epoch,
		newStarts: make(map[string]time.Time, len(starts)),
		offsets:   make(map[string]time.Duration, len(starts)),
	}
	for key, start := range starts {
		offset := start.Sub(anchor)
		plan.offsets[key] = offset
		plan.newStarts[key] = epoch.Add(offset)
	}
	return plan, nil
}

// NewStart returns the de-identified start time for a file.
func (p *Plan) NewStart(key string) (time.Time, bool) {
	t, ok := p.newStarts[key]
	return t, ok
}

// Offset returns the file's preserved offset from the session anchor.
func (p *Plan) Offset(key string) (time.Duration, bool) {
	d, ok := p.offsets[key]
	return d, ok
}

// Len returns the number of files in the plan.
func (p *Plan) Len() int { return len(p.newStarts) }
