package scrub

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edfanon/internal/config"
	"edfanon/internal/edf"
	"edfanon/internal/edftest"
	"edfanon/internal/logger"
	"edfanon/internal/names"
	"edfanon/internal/redact"
)

var newStart = time.Date(1985, 1, 1, 4, 30, 0, 0, time.UTC)

func readFixture(t *testing.T, opts edftest.Options) *edf.Header {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.edf")
	require.NoError(t, edftest.WriteFile(path, opts))
	file, err := edf.ReadMetadata(path)
	require.NoError(t, err)
	return file.Header
}

func TestHeaderPlus(t *testing.T) {
	h := readFixture(t, edftest.Options{})

	out := Header(h, "R1001E", newStart)

	assert.Equal(t, "R1001E X X X", out.Patient)
	assert.Equal(t, "Startdate 01-JAN-1985 X X X", out.Recording)
	assert.Equal(t, newStart, out.Start)
	// Everything else is untouched
	assert.Equal(t, h.Reserved, out.Reserved)
	assert.Equal(t, h.NumDataRecords, out.NumDataRecords)
	assert.Equal(t, h.Signals, out.Signals)

	// The input header is never mutated
	assert.Equal(t, "MRN0042 M 02-AUG-1951 Smith_John_Paul", h.Patient)
}

func TestHeaderPlain(t *testing.T) {
	h := readFixture(t, edftest.Options{
		Plain:     true,
		Patient:   "Smith, John",
		Recording: "routine EEG",
	})

	out := Header(h, "R1001E", newStart)

	assert.Equal(t, "R1001E", out.Patient)
	// Plain-EDF recording text is left for the free-text sweep
	assert.Equal(t, "routine EEG", out.Recording)
	assert.Equal(t, newStart, out.Start)
}

func TestHeaderIdempotent(t *testing.T) {
	h := readFixture(t, edftest.Options{})

	once := Header(h, "R1001E", newStart)
	twice := Header(once, "R1001E", newStart)

	assert.Equal(t, once, twice)
}

func TestHeaderTruncatesOverlongCode(t *testing.T) {
	h := readFixture(t, edftest.Options{Plain: true})

	long := ""
	for i := 0; i < 10; i++ {
		long += "R1001EXXXX"
	}
	out := Header(h, long+"overflow", newStart)
	assert.Len(t, out.Patient, edf.PatientFieldWidth)
}

func TestFreeTextSweep(t *testing.T) {
	h := readFixture(t, edftest.Options{
		Transducer: "placed by Tech Smith",
		Prefilter:  "HP:0.5Hz LP:70Hz",
	})

	engine, err := redact.NewEngine(config.RedactionConfig{
		NameAction:    "blank",
		PronounAction: "drop",
		PatternAction: "drop",
		Pronouns:      config.DefaultPronouns(),
	}, names.Spec{First: "John", Last: "Smith"}, logger.NewNop())
	require.NoError(t, err)

	out, replaced := FreeText(h, engine)

	assert.Equal(t, 2, replaced)
	for i, s := range out.Signals {
		if s.Label == edf.AnnotationLabel {
			assert.Empty(t, s.Transducer, "signal %d", i)
			continue
		}
		assert.Equal(t, Replacement, s.Transducer, "signal %d", i)
		assert.Equal(t, "HP:0.5Hz LP:70Hz", s.Prefilter, "signal %d", i)
	}

	// Inputs stay untouched
	assert.Equal(t, "placed by Tech Smith", h.Signals[0].Transducer)
}
