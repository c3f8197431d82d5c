// Package edftest builds small synthetic EDF+ files for tests. The
// builder writes raw bytes by hand so codec tests do not depend on the
// code under test.
package edftest

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Annotation is one event to embed in the annotation channel.
type Annotation struct {
	Onset    float64
	Duration float64 // negative means no duration
	Text     string
	Record   int
}

// Options describes the synthetic file. Zero values get test-friendly
// defaults from Build.
type Options struct {
	Patient           string
	Recording         string
	Reserved          string
	Start             time.Time
	NumRecords        int
	RecordDuration    string
	DataSignals       int
	SamplesPerRecord  int
	AnnotationSamples int // 0 drops the annotation channel (plain EDF)
	Annotations       []Annotation
	Transducer        string
	Prefilter         string

	// TruncateBytes chops bytes off the end to simulate the partial
	// final record produced by real exporters.
	TruncateBytes int

	// Plain builds a pre-plus EDF file: blank reserved field and no
	// annotation channel.
	Plain bool
}

func (o *Options) defaults() {
	if o.Patient == "" {
		o.Patient = "MRN0042 M 02-AUG-1951 Smith_John_Paul"
	}
	if o.Recording == "" {
		o.Recording = "Startdate 01-MAR-2023 EMU-7 Tech_Jones NK-1200"
	}
	if o.Reserved == "" && !o.Plain {
		o.Reserved = "EDF+C"
	}
	if o.Start.IsZero() {
		o.Start = time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)
	}
	if o.NumRecords == 0 {
		o.NumRecords = 3
	}
	if o.RecordDuration == "" {
		o.RecordDuration = "1"
	}
	if o.DataSignals == 0 {
		o.DataSignals = 2
	}
	if o.SamplesPerRecord == 0 {
		o.SamplesPerRecord = 16
	}
	if o.AnnotationSamples == 0 && !o.Plain {
		o.AnnotationSamples = 64
	}
	if o.Transducer == "" {
		o.Transducer = "AgAgCl electrode"
	}
}

// Build renders the file bytes.
func Build(opts Options) []byte {
	opts.defaults()

	numSignals := opts.DataSignals
	if opts.AnnotationSamples > 0 {
		numSignals++
	}
	headerBytes := 256 + numSignals*256

	var b strings.Builder
	pad := func(value string, width int) {
		if len(value) > width {
			panic(fmt.Sprintf("edftest: %q wider than %d", value, width))
		}
		b.WriteString(value)
		b.WriteString(strings.Repeat(" ", width-len(value)))
	}

	pad("0", 8)
	pad(opts.Patient, 80)
	pad(opts.Recording, 80)
	pad(opts.Start.Format("02.01.06"), 8)
	pad(opts.Start.Format("15.04.05"), 8)
	pad(strconv.Itoa(headerBytes), 8)
	pad(opts.Reserved, 44)
	pad(strconv.Itoa(opts.NumRecords), 8)
	pad(opts.RecordDuration, 8)
	pad(strconv.Itoa(numSignals), 4)

	// Signal headers are field-major
	labels := make([]string, 0, numSignals)
	for i := 0; i < opts.DataSignals; i++ {
		labels = append(labels, fmt.Sprintf("EEG C%d", i+1))
	}
	if opts.AnnotationSamples > 0 {
		labels = append(labels, "EDF Annotations")
	}
	fieldMajor := func(width int, value func(i int) string) {
		for i := 0; i < numSignals; i++ {
			pad(value(i), width)
		}
	}
	isAnn := func(i int) bool { return opts.AnnotationSamples > 0 && i == numSignals-1 }

	fieldMajor(16, func(i int) string { return labels[i] })
	fieldMajor(80, func(i int) string {
		if isAnn(i) {
			return ""
		}
		return opts.Transducer
	})
	fieldMajor(8, func(i int) string {
		if isAnn(i) {
			return ""
		}
		return "uV"
	})
	fieldMajor(8, func(i int) string { return "-3200" })
	fieldMajor(8, func(i int) string { return "3200" })
	fieldMajor(8, func(i int) string { return "-32768" })
	fieldMajor(8, func(i int) string { return "32767" })
	fieldMajor(80, func(i int) string {
		if isAnn(i) {
			return ""
		}
		return opts.Prefilter
	})
	fieldMajor(8, func(i int) string {
		if isAnn(i) {
			return strconv.Itoa(opts.AnnotationSamples)
		}
		return strconv.Itoa(opts.SamplesPerRecord)
	})
	fieldMajor(32, func(i int) string { return "" })

	out := []byte(b.String())
	if len(out) != headerBytes {
		panic("edftest: header size mismatch")
	}

	byRecord := make(map[int][]Annotation)
	for _, a := range opts.Annotations {
		byRecord[a.Record] = append(byRecord[a.Record], a)
	}

	for r := 0; r < opts.NumRecords; r++ {
		for s := 0; s < opts.DataSignals; s++ {
			for j := 0; j < opts.SamplesPerRecord; j++ {
				sample := int16(r*100 + s*10 + j)
				out = binary.LittleEndian.AppendUint16(out, uint16(sample))
			}
		}
		if opts.AnnotationSamples > 0 {
			out = append(out, annotationRecord(r, byRecord[r], opts.AnnotationSamples*2)...)
		}
	}

	if opts.TruncateBytes > 0 {
		out = out[:len(out)-opts.TruncateBytes]
	}
	return out
}

// WriteFile builds the file and writes it to path.
func WriteFile(path string, opts Options) error {
	return os.WriteFile(path, Build(opts), 0o644)
}

// annotationRecord assumes one-second data records, so the timekeeping
// onset equals the record index.
func annotationRecord(record int, anns []Annotation, size int) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "+%d\x14\x14\x00", record)
	for _, a := range anns {
		b.WriteString("+")
		b.WriteString(strconv.FormatFloat(a.Onset, 'f', -1, 64))
		if a.Duration >= 0 {
			b.WriteString("\x15")
			b.WriteString(strconv.FormatFloat(a.Duration, 'f', -1, 64))
		}
		b.WriteString("\x14")
		b.WriteString(a.Text)
		b.WriteString("\x14\x00")
	}
	if b.Len() > size {
		panic("edftest: annotations exceed channel size")
	}
	buf := make([]byte, size)
	copy(buf, b.String())
	return buf
}
