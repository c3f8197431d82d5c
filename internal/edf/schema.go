package edf

import (
	"fmt"
	"strconv"
	"strings"
)

// The fixed header layout is kept as data so field offsets and widths live
// in exactly one place. All values are left-justified ASCII, space padded.
type fieldSpec struct {
	name   string
	offset int
	width  int
}

// FixedHeaderSize is the byte length of the static portion of every EDF
// header; each signal adds SignalHeaderSize more.
const (
	FixedHeaderSize  = 256
	SignalHeaderSize = 256
	BytesPerSample   = 2

	// PatientFieldWidth is the width of the local patient identification
	// field, the ceiling for encoded subject codes.
	PatientFieldWidth = 80
)

var headerFields = []fieldSpec{
	{"version", 0, 8},
	{"patient", 8, 80},
	{"recording", 88, 80},
	{"startdate", 168, 8},
	{"starttime", 176, 8},
	{"header_bytes", 184, 8},
	{"reserved", 192, 44},
	{"num_data_records", 236, 8},
	{"record_duration", 244, 8},
	{"num_signals", 252, 4},
}

// Signal header fields are stored field-major: all labels first, then all
// transducers, and so on. The width here is per signal.
var signalFields = []fieldSpec{
	{"label", 0, 16},
	{"transducer", 16, 80},
	{"physical_dim", 96, 8},
	{"physical_min", 104, 8},
	{"physical_max", 112, 8},
	{"digital_min", 120, 8},
	{"digital_max", 128, 8},
	{"prefilter", 136, 80},
	{"samples_per_record", 216, 8},
	{"reserved", 224, 32},
}

func headerField(name string) fieldSpec {
	for _, f := range headerFields {
		if f.name == name {
			return f
		}
	}
	panic("edf: unknown header field " + name)
}

// padField right-pads value with spaces to the exact field width. Values
// wider than the field are an error, never a silent truncation.
func padField(value string, width int) (string, error) {
	if len(value) > width {
		return "", fmt.Errorf("value %q exceeds field width %d", value, width)
	}
	return value + strings.Repeat(" ", width-len(value)), nil
}

func parseIntField(raw, name string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("field %s: %q is not an integer", name, raw)
	}
	return v, nil
}

func parseFloatField(raw, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %q is not a number", name, raw)
	}
	return v, nil
}
