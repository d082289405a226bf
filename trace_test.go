package mrc

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeKiaTrace(t *testing.T, records []TraceRecord) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.kia")
	buf := make([]byte, kiaRecordSize*len(records))
	for i, r := range records {
		b := buf[i*kiaRecordSize : (i+1)*kiaRecordSize]
		binary.LittleEndian.PutUint64(b[0:8], r.Timestamp)
		b[8] = r.Command
		binary.LittleEndian.PutUint64(b[9:17], r.Key)
		binary.LittleEndian.PutUint32(b[17:21], r.Size)
		binary.LittleEndian.PutUint32(b[21:25], r.TTL)
	}
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestTraceReaderDecodesRecords(t *testing.T) {
	want := []TraceRecord{
		{Timestamp: 0, Command: 1, Key: 42, Size: 100, TTL: 0},
		{Timestamp: 1, Command: 1, Key: 43, Size: 200, TTL: 60},
	}
	path := writeKiaTrace(t, want)

	reader, err := OpenTraceReader(path, KiaFormat)
	if err != nil {
		t.Fatalf("OpenTraceReader: %v", err)
	}
	defer func() { _ = reader.Close() }()

	if reader.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", reader.Len(), len(want))
	}
	for i, w := range want {
		got := reader.At(i)
		if got != w {
			t.Errorf("At(%d) = %+v, want %+v", i, got, w)
		}
	}
}

func TestTraceReaderAll(t *testing.T) {
	want := []TraceRecord{
		{Key: 1}, {Key: 2}, {Key: 3},
	}
	path := writeKiaTrace(t, want)
	reader, err := OpenTraceReader(path, KiaFormat)
	if err != nil {
		t.Fatalf("OpenTraceReader: %v", err)
	}
	defer func() { _ = reader.Close() }()

	var gotKeys []uint64
	for _, rec := range reader.All() {
		gotKeys = append(gotKeys, rec.Key)
	}
	if len(gotKeys) != len(want) {
		t.Fatalf("iterated %d records, want %d", len(gotKeys), len(want))
	}
	for i, w := range want {
		if gotKeys[i] != w.Key {
			t.Errorf("gotKeys[%d] = %d, want %d", i, gotKeys[i], w.Key)
		}
	}
}

func TestTraceReaderRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.kia")
	if err := os.WriteFile(path, make([]byte, kiaRecordSize-1), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := OpenTraceReader(path, KiaFormat)
	if err == nil {
		t.Fatal("OpenTraceReader on a truncated file succeeded, want an error")
	}
}

func TestTraceReaderEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.kia")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	reader, err := OpenTraceReader(path, KiaFormat)
	if err != nil {
		t.Fatalf("OpenTraceReader: %v", err)
	}
	if reader.Len() != 0 {
		t.Errorf("Len() = %d, want 0", reader.Len())
	}
	if err := reader.Close(); err != nil {
		t.Errorf("Close() on an unmapped (empty-file) reader = %v, want nil", err)
	}
}

func TestTraceReaderMissingFile(t *testing.T) {
	_, err := OpenTraceReader(filepath.Join(t.TempDir(), "missing.kia"), KiaFormat)
	if !errors.Is(err, ErrIOFailure) {
		t.Errorf("err = %v, want ErrIOFailure", err)
	}
}
