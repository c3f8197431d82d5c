package edf

import (
	"fmt"
	"io"
	"os"
)

// File is one EDF/EDF+ file: header, annotations, and (after a full read)
// the raw data records. Signal samples are opaque bytes to this engine;
// they are never inspected, only carried.
type File struct {
	Path        string
	Header      *Header
	Annotations []Annotation

	// PartialFinalRecord is set when the file ends mid-record, a known
	// Nihon Kohden export artifact. PartialBytes is how much of the final
	// record is actually present.
	PartialFinalRecord bool
	PartialBytes       int

	records      [][]byte
	recordOnsets map[int]float64
}

// FullRecords returns the number of complete data records read.
func (f *File) FullRecords() int {
	n := len(f.records)
	if f.PartialFinalRecord {
		n--
	}
	return n
}

// ReadMetadata reads header and annotations without loading signal
// records, for the planning pass over a session.
func ReadMetadata(path string) (*File, error) {
	return read(path, false)
}

// ReadFile reads the complete file including raw data records.
func ReadFile(path string) (*File, error) {
	return read(path, true)
}

func read(path string, loadRecords bool) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open edf: %w", err)
	}
	defer fd.Close()

	info, err := fd.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat edf: %w", err)
	}

	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(fd, fixed); err != nil {
		return nil, formatErrf(path, "short read on fixed header: %v", err)
	}
	probe, err := parseFixedOnly(fixed, path)
	if err != nil {
		return nil, err
	}

	headerBuf := make([]byte, probe.headerBytes)
	copy(headerBuf, fixed)
	if _, err := io.ReadFull(fd, headerBuf[FixedHeaderSize:]); err != nil {
		return nil, formatErrf(path, "short read on signal headers: %v", err)
	}
	header, err := parseHeader(headerBuf, path)
	if err != nil {
		return nil, err
	}

	recordBytes := header.RecordBytes()
	if recordBytes <= 0 {
		return nil, formatErrf(path, "zero-length data records")
	}

	avail := info.Size() - int64(header.HeaderBytes)
	if avail < 0 {
		return nil, formatErrf(path, "file shorter than its header")
	}
	fullRecords := int(avail / int64(recordBytes))
	partialBytes := int(avail % int64(recordBytes))

	totalRecords := fullRecords
	if partialBytes > 0 {
		totalRecords++
	}
	if header.NumDataRecords >= 0 && totalRecords > header.NumDataRecords {
		// Trailing bytes beyond the declared record count are not a
		// partial record; refuse rather than guess.
		return nil, formatErrf(path, "file holds %d records but header declares %d", totalRecords, header.NumDataRecords)
	}

	file := &File{
		Path:               path,
		Header:             header,
		PartialFinalRecord: partialBytes > 0,
		PartialBytes:       partialBytes,
		recordOnsets:       make(map[int]float64),
	}

	annSignal := header.AnnotationSignal()
	annOffset, annBytes := 0, 0
	if annSignal >= 0 {
		annOffset = header.SignalOffset(annSignal)
		annBytes = header.Signals[annSignal].SamplesPerRecord * BytesPerSample
	}

	if loadRecords {
		file.records = make([][]byte, 0, totalRecords)
	}

	for r := 0; r < totalRecords; r++ {
		size := recordBytes
		if r == fullRecords {
			size = partialBytes
		}
		recordPos := int64(header.HeaderBytes) + int64(r)*int64(recordBytes)

		var record []byte
		if loadRecords {
			record = make([]byte, size)
			if _, err := fd.ReadAt(record, recordPos); err != nil {
				return nil, fmt.Errorf("read record %d: %w", r, err)
			}
			file.records = append(file.records, record)
		}

		if annSignal < 0 {
			continue
		}
		if annOffset+annBytes > size {
			// The partial record was cut before (or inside) the
			// annotation channel; nothing to decode.
			continue
		}
		var annBuf []byte
		if loadRecords {
			annBuf = record[annOffset : annOffset+annBytes]
		} else {
			annBuf = make([]byte, annBytes)
			if _, err := fd.ReadAt(annBuf, recordPos+int64(annOffset)); err != nil {
				return nil, fmt.Errorf("read annotations of record %d: %w", r, err)
			}
		}
		onset, haveOnset, anns, err := decodeAnnotationRecord(annBuf, r)
		if err != nil {
			return nil, formatErrf(path, "%v", err)
		}
		if haveOnset {
			file.recordOnsets[r] = onset
		}
		file.Annotations = append(file.Annotations, anns...)
	}

	return file, nil
}

// parseFixedOnly extracts just enough of the fixed header to size the
// full header read.
func parseFixedOnly(buf []byte, path string) (struct{ headerBytes int }, error) {
	var out struct{ headerBytes int }
	f := headerField("header_bytes")
	n, err := parseIntField(string(buf[f.offset:f.offset+f.width]), f.name)
	if err != nil {
		return out, formatErrf(path, "%v", err)
	}
	if n < FixedHeaderSize+SignalHeaderSize {
		return out, formatErrf(path, "declared header length %d too small", n)
	}
	out.headerBytes = n
	return out, nil
}
