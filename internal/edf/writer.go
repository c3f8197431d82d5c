package edf

import (
	"bufio"
	"fmt"
	"os"
)

// PartialRecordPolicy selects how a short trailing data record is
// persisted. Both paths are lossy at the boundary; the orchestrator
// records which one was taken alongside the output.
type PartialRecordPolicy string

const (
	// PartialDrop omits the short record and decrements the record count.
	PartialDrop PartialRecordPolicy = "drop"
	// PartialZeroPad extends the short record to full length with zero
	// samples.
	PartialZeroPad PartialRecordPolicy = "zero-pad"
)

// WriteFile persists the file to path. The header is re-encoded from the
// in-memory Header, the annotation channel is rebuilt from Annotations
// (so redactions take effect), and signal bytes are copied through
// unchanged. Requires a file obtained via ReadFile.
func (f *File) WriteFile(path string, policy PartialRecordPolicy) error {
	if f.records == nil {
		return fmt.Errorf("write %s: file was read without records", path)
	}

	records := f.records
	recordBytes := f.Header.RecordBytes()
	if f.PartialFinalRecord {
		switch policy {
		case PartialDrop:
			records = records[:len(records)-1]
		case PartialZeroPad:
			padded := make([]byte, recordBytes)
			copy(padded, records[len(records)-1])
			records = append(append([][]byte{}, records[:len(records)-1]...), padded)
		default:
			return fmt.Errorf("write %s: unknown partial-record policy %q", path, policy)
		}
	}

	header := f.Header.Clone()
	header.NumDataRecords = len(records)
	headerBuf, err := header.Encode()
	if err != nil {
		return formatErrf(path, "%v", err)
	}

	annSignal := header.AnnotationSignal()
	byRecord := make(map[int][]Annotation)
	for _, a := range f.Annotations {
		byRecord[a.Record] = append(byRecord[a.Record], a)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	w := bufio.NewWriter(out)

	fail := func(err error) error {
		out.Close()
		os.Remove(path)
		return err
	}

	if _, err := w.Write(headerBuf); err != nil {
		return fail(fmt.Errorf("write header: %w", err))
	}

	for r, record := range records {
		buf := record
		if annSignal >= 0 {
			annOffset := header.SignalOffset(annSignal)
			annBytes := header.Signals[annSignal].SamplesPerRecord * BytesPerSample
			if annOffset+annBytes <= len(record) {
				onset, ok := f.recordOnsets[r]
				if !ok {
					onset = float64(r) * header.RecordDuration
				}
				encoded, err := encodeAnnotationRecord(onset, byRecord[r], annBytes)
				if err != nil {
					return fail(formatErrf(path, "record %d: %v", r, err))
				}
				buf = make([]byte, len(record))
				copy(buf, record)
				copy(buf[annOffset:], encoded)
			}
		}
		if _, err := w.Write(buf); err != nil {
			return fail(fmt.Errorf("write record %d: %w", r, err))
		}
	}

	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flush output: %w", err))
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}
