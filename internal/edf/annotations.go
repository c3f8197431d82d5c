package edf

import (
	"fmt"
	"strconv"
	"strings"
)

// Annotation is one timestamped event from the EDF+ annotation channel.
// Onset is seconds from file start; Duration is -1 when absent.
type Annotation struct {
	Onset    float64
	Duration float64
	Text     string
	// Record is the data record the annotation was read from, so a
	// rewritten annotation lands back in the byte budget it came from.
	Record int
}

// HasDuration reports whether the annotation carries an explicit duration.
func (a Annotation) HasDuration() bool { return a.Duration >= 0 }

const (
	talDurationSep = '\x15'
	talTextSep     = '\x14'
	talEnd         = '\x00'
)

// decodeAnnotationRecord parses one record's slice of the annotation
// channel into the record's timekeeping onset and its annotations. A
// record holds a sequence of TALs ("+onset[\x15duration]\x14text\x14...")
// separated and trailed by NUL padding. The first TAL with empty text is
// the timekeeping TAL carrying the record's own onset.
func decodeAnnotationRecord(buf []byte, record int) (recordOnset float64, haveOnset bool, anns []Annotation, err error) {
	for len(buf) > 0 {
		// Skip padding between and after TALs
		if buf[0] == talEnd {
			buf = buf[1:]
			continue
		}
		end := 0
		for end < len(buf) && buf[end] != talEnd {
			end++
		}
		tal := buf[:end]
		buf = buf[end:]

		onset, duration, texts, err := decodeTAL(string(tal))
		if err != nil {
			return 0, false, nil, fmt.Errorf("record %d: %w", record, err)
		}
		if !haveOnset && len(texts) == 1 && texts[0] == "" {
			recordOnset = onset
			haveOnset = true
			continue
		}
		for _, text := range texts {
			if text == "" {
				continue
			}
			anns = append(anns, Annotation{Onset: onset, Duration: duration, Text: text, Record: record})
		}
	}
	return recordOnset, haveOnset, anns, nil
}

func decodeTAL(tal string) (onset, duration float64, texts []string, err error) {
	duration = -1

	sep := strings.IndexByte(tal, talTextSep)
	if sep < 0 {
		return 0, 0, nil, fmt.Errorf("malformed TAL %q: no text separator", tal)
	}
	timing := tal[:sep]
	body := tal[sep+1:]

	if durSep := strings.IndexByte(timing, talDurationSep); durSep >= 0 {
		duration, err = strconv.ParseFloat(timing[durSep+1:], 64)
		if err != nil {
			return 0, 0, nil, fmt.Errorf("malformed TAL duration %q", timing[durSep+1:])
		}
		timing = timing[:durSep]
	}
	if len(timing) == 0 || (timing[0] != '+' && timing[0] != '-') {
		return 0, 0, nil, fmt.Errorf("malformed TAL onset %q: missing sign", timing)
	}
	onset, err = strconv.ParseFloat(timing, 64)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("malformed TAL onset %q", timing)
	}

	texts = strings.Split(strings.TrimSuffix(body, string(talTextSep)), string(talTextSep))
	return onset, duration, texts, nil
}

// encodeAnnotationRecord renders the timekeeping TAL followed by one TAL
// per annotation, NUL padded to size. Annotations only ever shrink under
// redaction, so a rewritten record always fits its original budget; a
// growth beyond size is reported rather than truncated.
func encodeAnnotationRecord(recordOnset float64, anns []Annotation, size int) ([]byte, error) {
	var b strings.Builder
	b.WriteString(formatOnset(recordOnset))
	b.WriteByte(talTextSep)
	b.WriteByte(talTextSep)
	b.WriteByte(talEnd)

	for _, a := range anns {
		b.WriteString(formatOnset(a.Onset))
		if a.HasDuration() {
			b.WriteByte(talDurationSep)
			b.WriteString(strconv.FormatFloat(a.Duration, 'f', -1, 64))
		}
		b.WriteByte(talTextSep)
		b.WriteString(a.Text)
		b.WriteByte(talTextSep)
		b.WriteByte(talEnd)
	}

	encoded := b.String()
	if len(encoded) > size {
		return nil, fmt.Errorf("annotations exceed channel budget: %d bytes into %d", len(encoded), size)
	}
	buf := make([]byte, size)
	copy(buf, encoded)
	return buf, nil
}

func formatOnset(onset float64) string {
	s := strconv.FormatFloat(onset, 'f', -1, 64)
	if onset >= 0 {
		s = "+" + s
	}
	return s
}
