package mrc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"syscall"
)

// TraceFormat selects the fixed-width binary record layout a TraceReader
// decodes.
type TraceFormat int

const (
	// KiaFormat is 25 bytes/record: timestamp:u64, command:u8, key:u64,
	// size:u32, ttl:u32, little-endian.
	KiaFormat TraceFormat = iota
	// SariFormat carries the same five semantic fields in a
	// 32-byte-per-record layout padded for alignment.
	SariFormat
)

const (
	kiaRecordSize  = 25
	sariRecordSize = 32
)

func (f TraceFormat) recordSize() int {
	if f == SariFormat {
		return sariRecordSize
	}
	return kiaRecordSize
}

// TraceRecord is one decoded trace entry. Estimators consume only Key;
// the other fields are reserved for TTL-aware variants out of scope here.
type TraceRecord struct {
	Timestamp uint64
	Command   uint8
	Key       uint64
	Size      uint32
	TTL       uint32
}

var errTruncatedTrace = errors.New("mrc: trace file size is not a multiple of the record size")

// TraceReader memory-maps a Kia or Sari trace file and exposes its
// records for sequential, allocation-free iteration: the trace is
// memory-mapped so access is effectively a synchronous load. Lifecycle:
// syscall.Mmap on open, syscall.Munmap on Close, no buffered I/O in
// between.
type TraceReader struct {
	data   []byte
	format TraceFormat
	count  int
}

// OpenTraceReader mmaps path read-only and validates its size is a whole
// number of format's fixed-width records.
func OpenTraceReader(path string, format TraceFormat) (*TraceReader, error) {
	file, err := os.Open(path) //nolint:gosec // operator-supplied trace path
	if err != nil {
		return nil, fmt.Errorf("open trace %s: %w", path, ErrIOFailure)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat trace %s: %w", path, ErrIOFailure)
	}

	size := info.Size()
	recSize := format.recordSize()
	if size == 0 {
		return &TraceReader{format: format}, nil
	}
	if int(size)%recSize != 0 {
		return nil, fmt.Errorf("trace %s: size %d not a multiple of record size %d: %w", path, size, recSize, errTruncatedTrace)
	}

	data, err := syscall.Mmap(int(file.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap trace %s: %w", path, ErrIOFailure)
	}

	return &TraceReader{
		data:   data,
		format: format,
		count:  int(size) / recSize,
	}, nil
}

// Len returns the number of records in the trace.
func (t *TraceReader) Len() int { return t.count }

// At decodes the record at index i. Panics if i is out of range, matching
// the contract of slice indexing the mmap'd bytes stand in for.
func (t *TraceReader) At(i int) TraceRecord {
	recSize := t.format.recordSize()
	b := t.data[i*recSize : (i+1)*recSize]

	rec := TraceRecord{
		Timestamp: binary.LittleEndian.Uint64(b[0:8]),
		Command:   b[8],
		Key:       binary.LittleEndian.Uint64(b[9:17]),
		Size:      binary.LittleEndian.Uint32(b[17:21]),
		TTL:       binary.LittleEndian.Uint32(b[21:25]),
	}
	return rec
}

// All returns an iterator over every record in trace order, for use with a
// range-over-func loop. Decoding happens lazily per record; no intermediate
// slice is allocated.
func (t *TraceReader) All() func(func(int, TraceRecord) bool) {
	return func(yield func(int, TraceRecord) bool) {
		for i := range t.count {
			if !yield(i, t.At(i)) {
				return
			}
		}
	}
}

// Close unmaps the trace file. Safe to call on a reader backed by an empty
// (zero-length) file, which was never mapped.
func (t *TraceReader) Close() error {
	if t.data == nil {
		return nil
	}
	data := t.data
	t.data = nil
	if err := syscall.Munmap(data); err != nil {
		return fmt.Errorf("munmap trace: %w", ErrIOFailure)
	}
	return nil
}
