package edf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edfanon/internal/edftest"
)

func writeFixture(t *testing.T, opts edftest.Options) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.edf")
	require.NoError(t, edftest.WriteFile(path, opts))
	return path
}

func TestParseHeaderFields(t *testing.T) {
	path := writeFixture(t, edftest.Options{})

	file, err := ReadMetadata(path)
	require.NoError(t, err)

	h := file.Header
	assert.Equal(t, "0", h.Version)
	assert.Equal(t, "MRN0042 M 02-AUG-1951 Smith_John_Paul", h.Patient)
	assert.Equal(t, "EDF+C", h.Reserved)
	assert.True(t, h.IsPlus())
	assert.Equal(t, time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC), h.Start)
	assert.Equal(t, 3, h.NumDataRecords)
	assert.Equal(t, 1.0, h.RecordDuration)
	assert.Equal(t, 3, h.NumSignals())
	assert.Equal(t, 2, h.AnnotationSignal())
	assert.Equal(t, "EEG C1", h.Signals[0].Label)
	assert.Equal(t, 16, h.Signals[0].SamplesPerRecord)
}

func TestParseHeaderYearPivot(t *testing.T) {
	cases := []struct {
		start time.Time
	}{
		{time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC)},
		{time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)},
		{time.Date(2084, 6, 15, 12, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		path := writeFixture(t, edftest.Options{Start: tc.start})
		file, err := ReadMetadata(path)
		require.NoError(t, err)
		assert.Equal(t, tc.start, file.Header.Start, "start %s", tc.start)
	}
}

func TestParseHeaderRejectsDiscontinuous(t *testing.T) {
	path := writeFixture(t, edftest.Options{Reserved: "EDF+D"})

	_, err := ReadMetadata(path)
	require.Error(t, err)
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Contains(t, err.Error(), "EDF+D")
}

func TestParseHeaderRejectsWidthMismatch(t *testing.T) {
	raw := edftest.Build(edftest.Options{})
	// Corrupt the declared header length so it no longer matches the
	// signal count
	copy(raw[184:192], []byte("999     "))
	path := filepath.Join(t.TempDir(), "bad.edf")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err := ReadMetadata(path)
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
}

func TestHeaderEncodeRoundTrip(t *testing.T) {
	raw := edftest.Build(edftest.Options{})
	path := filepath.Join(t.TempDir(), "roundtrip.edf")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	file, err := ReadMetadata(path)
	require.NoError(t, err)

	encoded, err := file.Header.Encode()
	require.NoError(t, err)
	assert.Equal(t, raw[:file.Header.HeaderBytes], encoded,
		"re-encoding an unmodified header must be byte identical")
}

func TestEncodeRejectsUnrepresentableYear(t *testing.T) {
	path := writeFixture(t, edftest.Options{})
	file, err := ReadMetadata(path)
	require.NoError(t, err)

	file.Header.Start = time.Date(2120, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = file.Header.Encode()
	require.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	path := writeFixture(t, edftest.Options{})
	file, err := ReadMetadata(path)
	require.NoError(t, err)

	dup := file.Header.Clone()
	dup.Signals[0].Transducer = "changed"
	assert.NotEqual(t, dup.Signals[0].Transducer, file.Header.Signals[0].Transducer)
}
