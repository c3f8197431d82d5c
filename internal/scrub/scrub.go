// Package scrub rewrites identifying EDF header fields to de-identified
// values. Transforms are pure: callers get a new header, inputs are never
// mutated.
package scrub

import (
	"time"

	"edfanon/internal/edf"
	"edfanon/internal/redact"
)

// Replacement is what swept free-text fields are set to when a redaction
// rule matches. It matches the conventional EDF "unknown" filler so
// readers treat the field as absent.
const Replacement = "unknown"

// Header returns a scrubbed copy of h: the patient field carries only the
// subject code with sex, birthdate and name set to the EDF+ unknown
// sentinel, the recording field keeps only a rewritten Startdate, and the
// start timestamp becomes newStart. Every other field is copied
// unchanged. Field widths are preserved exactly; the subject code is
// truncated to the patient field width if it ever exceeds it.
func Header(h *edf.Header, subjectCode string, newStart time.Time) *edf.Header {
	out := h.Clone()

	if len(subjectCode) > edf.PatientFieldWidth {
		subjectCode = subjectCode[:edf.PatientFieldWidth]
	}

	if h.IsPlus() {
		patient := edf.PatientID{
			Code:      subjectCode,
			Sex:       edf.Unknown,
			Birthdate: edf.Unknown,
			Name:      edf.Unknown,
		}
		out.Patient = patient.Encode()

		recording := edf.RecordingID{
			StartDate:  edf.PlusDate(newStart),
			AdminCode:  edf.Unknown,
			Technician: edf.Unknown,
			Equipment:  edf.Unknown,
			Plus:       true,
		}
		out.Recording = recording.Encode()
	} else {
		out.Patient = subjectCode
	}

	out.Start = newStart
	return out
}

// FreeText sweeps the remaining free-text header fields (plain-EDF
// recording text, signal transducer and prefilter strings) through the
// redaction engine, replacing any field that matches a rule. Returns the
// swept copy and the number of fields replaced.
func FreeText(h *edf.Header, engine *redact.Engine) (*edf.Header, int) {
	out := h.Clone()
	replaced := 0

	sweep := func(value string) string {
		if value == "" {
			return value
		}
		if engine.Evaluate(value).Action != redact.Pass {
			replaced++
			return Replacement
		}
		return value
	}

	if !h.IsPlus() {
		out.Recording = sweep(out.Recording)
	}
	for i := range out.Signals {
		if out.Signals[i].Label == edf.AnnotationLabel {
			continue
		}
		out.Signals[i].Transducer = sweep(out.Signals[i].Transducer)
		out.Signals[i].Prefilter = sweep(out.Signals[i].Prefilter)
	}

	return out, replaced
}
