package edf

import (
	"fmt"
	"strings"
	"time"
)

// Header holds the fixed 256-byte EDF header plus one SignalHeader per
// signal. Free-text values are stored trimmed; encoding re-pads them to
// their schema widths, so a conformant input round-trips byte for byte.
type Header struct {
	Version        string
	Patient        string
	Recording      string
	Start          time.Time
	HeaderBytes    int
	Reserved       string
	NumDataRecords int
	RecordDuration float64
	Signals        []SignalHeader

	// raw record duration text, preserved so unchanged files re-encode
	// exactly ("1" stays "1", not "1.000000")
	recordDurationRaw string
}

// SignalHeader describes one signal. Numeric calibration fields keep their
// original text form; only the per-record sample count is interpreted.
type SignalHeader struct {
	Label            string
	Transducer       string
	PhysicalDim      string
	PhysicalMin      string
	PhysicalMax      string
	DigitalMin       string
	DigitalMax       string
	Prefilter        string
	SamplesPerRecord int
	Reserved         string
}

// AnnotationLabel is the signal label reserved by EDF+ for the annotation
// channel.
const AnnotationLabel = "EDF Annotations"

// NumSignals returns the signal count including any annotation channel.
func (h *Header) NumSignals() int { return len(h.Signals) }

// IsPlus reports whether the reserved field marks this as an EDF+ file.
func (h *Header) IsPlus() bool { return strings.HasPrefix(h.Reserved, "EDF+") }

// AnnotationSignal returns the index of the EDF+ annotation channel, or -1.
func (h *Header) AnnotationSignal() int {
	for i, s := range h.Signals {
		if s.Label == AnnotationLabel {
			return i
		}
	}
	return -1
}

// RecordBytes returns the byte length of one data record.
func (h *Header) RecordBytes() int {
	total := 0
	for _, s := range h.Signals {
		total += s.SamplesPerRecord * BytesPerSample
	}
	return total
}

// SignalOffset returns the byte offset of signal i within a data record.
func (h *Header) SignalOffset(i int) int {
	offset := 0
	for _, s := range h.Signals[:i] {
		offset += s.SamplesPerRecord * BytesPerSample
	}
	return offset
}

// Clone returns a deep copy, so scrubbing stays a pure transform.
func (h *Header) Clone() *Header {
	dup := *h
	dup.Signals = make([]SignalHeader, len(h.Signals))
	copy(dup.Signals, h.Signals)
	return &dup
}

func parseHeader(buf []byte, path string) (*Header, error) {
	if len(buf) < FixedHeaderSize {
		return nil, formatErrf(path, "file shorter than the %d-byte fixed header", FixedHeaderSize)
	}

	raw := func(name string) string {
		f := headerField(name)
		return string(buf[f.offset : f.offset+f.width])
	}

	h := &Header{
		Version:           strings.TrimSpace(raw("version")),
		Patient:           strings.TrimRight(raw("patient"), " "),
		Recording:         strings.TrimRight(raw("recording"), " "),
		Reserved:          strings.TrimRight(raw("reserved"), " "),
		recordDurationRaw: strings.TrimSpace(raw("record_duration")),
	}

	if h.Version != "0" {
		return nil, formatErrf(path, "unsupported version field %q", h.Version)
	}
	if strings.HasPrefix(h.Reserved, "EDF+D") {
		return nil, formatErrf(path, "discontinuous EDF+D input; split into EDF+C segments first")
	}

	var err error
	if h.HeaderBytes, err = parseIntField(raw("header_bytes"), "header_bytes"); err != nil {
		return nil, formatErrf(path, "%v", err)
	}
	numSignals, err := parseIntField(raw("num_signals"), "num_signals")
	if err != nil {
		return nil, formatErrf(path, "%v", err)
	}
	if numSignals <= 0 {
		return nil, formatErrf(path, "signal count %d out of range", numSignals)
	}
	if want := FixedHeaderSize + numSignals*SignalHeaderSize; h.HeaderBytes != want {
		return nil, formatErrf(path, "header length %d does not match %d signals (want %d); unsupported exporter variant",
			h.HeaderBytes, numSignals, want)
	}
	if h.NumDataRecords, err = parseIntField(raw("num_data_records"), "num_data_records"); err != nil {
		return nil, formatErrf(path, "%v", err)
	}
	if h.RecordDuration, err = parseFloatField(raw("record_duration"), "record_duration"); err != nil {
		return nil, formatErrf(path, "%v", err)
	}
	if h.Start, err = parseStartTimestamp(raw("startdate"), raw("starttime")); err != nil {
		return nil, formatErrf(path, "%v", err)
	}

	if len(buf) < h.HeaderBytes {
		return nil, formatErrf(path, "file shorter than declared header length %d", h.HeaderBytes)
	}

	h.Signals = make([]SignalHeader, numSignals)
	for _, f := range signalFields {
		blockStart := FixedHeaderSize + f.offset*numSignals
		for i := 0; i < numSignals; i++ {
			start := blockStart + i*f.width
			value := strings.TrimSpace(string(buf[start : start+f.width]))
			s := &h.Signals[i]
			switch f.name {
			case "label":
				s.Label = value
			case "transducer":
				s.Transducer = value
			case "physical_dim":
				s.PhysicalDim = value
			case "physical_min":
				s.PhysicalMin = value
			case "physical_max":
				s.PhysicalMax = value
			case "digital_min":
				s.DigitalMin = value
			case "digital_max":
				s.DigitalMax = value
			case "prefilter":
				s.Prefilter = value
			case "samples_per_record":
				n, err := parseIntField(value, "samples_per_record")
				if err != nil {
					return nil, formatErrf(path, "signal %d: %v", i, err)
				}
				if n <= 0 {
					return nil, formatErrf(path, "signal %d: sample count %d out of range", i, n)
				}
				s.SamplesPerRecord = n
			case "reserved":
				s.Reserved = value
			}
		}
	}

	return h, nil
}

// Encode serializes the header back to its fixed-width byte form.
func (h *Header) Encode() ([]byte, error) {
	numSignals := len(h.Signals)
	headerBytes := FixedHeaderSize + numSignals*SignalHeaderSize
	buf := make([]byte, headerBytes)
	for i := range buf {
		buf[i] = ' '
	}

	startDate, startTime, err := encodeStartTimestamp(h.Start)
	if err != nil {
		return nil, err
	}

	durationRaw := h.recordDurationRaw
	if durationRaw == "" {
		durationRaw = formatFloat(h.RecordDuration)
	}

	fixed := map[string]string{
		"version":          "0",
		"patient":          h.Patient,
		"recording":        h.Recording,
		"startdate":        startDate,
		"starttime":        startTime,
		"header_bytes":     fmt.Sprintf("%d", headerBytes),
		"reserved":         h.Reserved,
		"num_data_records": fmt.Sprintf("%d", h.NumDataRecords),
		"record_duration":  durationRaw,
		"num_signals":      fmt.Sprintf("%d", numSignals),
	}
	for _, f := range headerFields {
		padded, err := padField(fixed[f.name], f.width)
		if err != nil {
			return nil, fmt.Errorf("header field %s: %w", f.name, err)
		}
		copy(buf[f.offset:], padded)
	}

	for _, f := range signalFields {
		blockStart := FixedHeaderSize + f.offset*numSignals
		for i, s := range h.Signals {
			var value string
			switch f.name {
			case "label":
				value = s.Label
			case "transducer":
				value = s.Transducer
			case "physical_dim":
				value = s.PhysicalDim
			case "physical_min":
				value = s.PhysicalMin
			case "physical_max":
				value = s.PhysicalMax
			case "digital_min":
				value = s.DigitalMin
			case "digital_max":
				value = s.DigitalMax
			case "prefilter":
				value = s.Prefilter
			case "samples_per_record":
				value = fmt.Sprintf("%d", s.SamplesPerRecord)
			case "reserved":
				value = s.Reserved
			}
			padded, err := padField(value, f.width)
			if err != nil {
				return nil, fmt.Errorf("signal %d field %s: %w", i, f.name, err)
			}
			copy(buf[blockStart+i*f.width:], padded)
		}
	}

	return buf, nil
}

// parseStartTimestamp combines the dd.mm.yy and hh.mm.ss header fields.
// Two-digit years follow the EDF+ clipping rule: 85-99 are 1985-1999,
// 00-84 are 2000-2084.
func parseStartTimestamp(dateRaw, timeRaw string) (time.Time, error) {
	date := strings.TrimSpace(dateRaw)
	clock := strings.TrimSpace(timeRaw)

	// Some exporters separate with ':' in the time field
	clock = strings.ReplaceAll(clock, ":", ".")

	t, err := time.Parse("02.01.06 15.04.05", date+" "+clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable start timestamp %q %q", dateRaw, timeRaw)
	}
	// time.Parse pivots 06 into 2006; remap into the EDF window
	year := t.Year()
	switch {
	case year >= 2085:
		year -= 100
	case year < 1985:
		year += 100
	}
	if year != t.Year() {
		t = time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	}
	return t, nil
}

func encodeStartTimestamp(t time.Time) (string, string, error) {
	if t.Year() < 1985 || t.Year() > 2084 {
		return "", "", fmt.Errorf("start year %d outside the representable range 1985-2084", t.Year())
	}
	return t.Format("02.01.06"), t.Format("15.04.05"), nil
}

func formatFloat(v float64) string {
	s := fmt.Sprintf("%g", v)
	if len(s) > 8 {
		s = s[:8]
	}
	return s
}
