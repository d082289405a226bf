package mrc

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/klauspost/compress/zstd"
	"github.com/natefinch/atomic"
)

// OutOfBoundsMode controls what happens when a scaled-finite insert would
// exceed the histogram's tracked range.
type OutOfBoundsMode int

const (
	// AllowOverflow routes an out-of-range finite insert into
	// false_infinity. This is the default.
	AllowOverflow OutOfBoundsMode = iota
	// Reject fails the insert instead of mutating state.
	Reject
)

// Histogram is a scaled, infinity-bucketed counter array.
//
// Invariant: RunningSum == sum(Bins) + FalseInfinity + Infinity at every
// quiescent point (between operations).
type Histogram struct {
	Bins          []uint64
	BinSize       uint64
	FalseInfinity uint64
	Infinity      uint64
	RunningSum    uint64
	OutOfBounds   OutOfBoundsMode
}

// NewHistogram allocates a histogram with numBins buckets of width binSize.
func NewHistogram(numBins, binSize uint64, mode OutOfBoundsMode) (*Histogram, error) {
	if numBins == 0 || binSize == 0 {
		return nil, fmt.Errorf("numBins=%d binSize=%d: %w", numBins, binSize, ErrInvalidArgument)
	}
	return &Histogram{
		Bins:        make([]uint64, numBins),
		BinSize:     binSize,
		OutOfBounds: mode,
	}, nil
}

// NumBins returns the number of finite buckets.
func (h *Histogram) NumBins() uint64 { return uint64(len(h.Bins)) }

// InsertFinite records one occurrence of reuse distance idx.
func (h *Histogram) InsertFinite(idx uint64) error {
	return h.InsertScaledFinite(idx, 1)
}

// InsertScaledFinite records scale occurrences of reuse distance idx. Under
// Reject mode, an out-of-range index fails without mutating state.
func (h *Histogram) InsertScaledFinite(idx, scale uint64) error {
	bound := h.NumBins() * h.BinSize
	if idx >= bound {
		if h.OutOfBounds == Reject {
			return fmt.Errorf("index %d exceeds %d bins of size %d: %w", idx, h.NumBins(), h.BinSize, ErrHistogramOverflow)
		}
		h.FalseInfinity += scale
		h.RunningSum += scale
		return nil
	}
	h.Bins[idx/h.BinSize] += scale
	h.RunningSum += scale
	return nil
}

// InsertInfinite records a cold miss.
func (h *Histogram) InsertInfinite() error {
	return h.InsertScaledInfinite(1)
}

// InsertScaledInfinite records scale cold misses.
func (h *Histogram) InsertScaledInfinite(scale uint64) error {
	h.Infinity += scale
	h.RunningSum += scale
	return nil
}

// AdjustFirstBuckets adds delta (which may be negative) to bin 0, cascading
// any unabsorbed negative residual into subsequent bins. Returns the amount
// actually applied; if it differs from delta, the caller could not fully
// absorb the adjustment (delta's magnitude exceeded the sum of finite
// bins) and the error wraps ErrHistogramOverflow — the maximal absorbable
// adjustment is still applied to RunningSum and the bins regardless.
//
// This is the SHARDS-Adj end-of-trace correction.
func (h *Histogram) AdjustFirstBuckets(delta int64) (applied int64, err error) {
	remaining := delta
	for i := range h.Bins {
		if remaining >= 0 {
			break
		}
		bin := int64(h.Bins[i])
		if bin+remaining < 0 {
			remaining += bin
			h.Bins[i] = 0
		} else {
			//nolint:gosec // G115: bin+remaining bounded >=0 just above
			h.Bins[i] = uint64(bin + remaining)
			remaining = 0
			break
		}
	}
	if remaining > 0 {
		// delta was non-negative: apply directly to bin 0.
		h.Bins[0] += uint64(remaining)
		remaining = 0
	}

	applied = delta - remaining
	//nolint:gosec // G115: applied's sign matches RunningSum's ability to absorb it
	h.RunningSum = uint64(int64(h.RunningSum) + applied)

	if remaining != 0 {
		return applied, fmt.Errorf("adjustment %d only partially applied (%d): %w", delta, applied, ErrHistogramOverflow)
	}
	return applied, nil
}

// Validate recomputes the running sum from scratch and reports whether it
// matches RunningSum. Diagnostic only; a mismatch indicates an
// implementation bug, not a data-level error.
func (h *Histogram) Validate() bool {
	var sum uint64
	for _, b := range h.Bins {
		sum += b
	}
	sum += h.FalseInfinity
	sum += h.Infinity
	return sum == h.RunningSum
}

// EuclideanError computes the L2 distance between two histograms, treating
// a shorter histogram's missing tail bins as zero, and including the
// infinity/false_infinity counters in the sum of squares.
func (h *Histogram) EuclideanError(other *Histogram) float64 {
	minBins, maxBins := len(h.Bins), len(other.Bins)
	longer := other
	if minBins > maxBins {
		minBins, maxBins = maxBins, minBins
		longer = h
	}
	var sumSquares float64
	for i := 0; i < minBins; i++ {
		d := float64(h.Bins[i]) - float64(other.Bins[i])
		sumSquares += d * d
	}
	for i := minBins; i < maxBins; i++ {
		d := float64(longer.Bins[i])
		sumSquares += d * d
	}
	d := float64(h.FalseInfinity) - float64(other.FalseInfinity)
	sumSquares += d * d
	d = float64(h.Infinity) - float64(other.Infinity)
	sumSquares += d * d
	return math.Sqrt(sumSquares)
}

// SaveSparse writes (scaledIndex, frequency) pairs for nonzero bins only,
// in host (native) byte order, atomically. No header.
func (h *Histogram) SaveSparse(path string) error {
	buf := make([]byte, 0, 16*len(h.Bins))
	var tmp [16]byte
	for i, freq := range h.Bins {
		if freq == 0 {
			continue
		}
		scaledIdx := uint64(i) * h.BinSize
		binary.NativeEndian.PutUint64(tmp[0:8], scaledIdx)
		binary.NativeEndian.PutUint64(tmp[8:16], freq)
		buf = append(buf, tmp[:]...)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("save sparse histogram %s: %w", path, ErrIOFailure)
	}
	return nil
}

// LoadSparse reads back the format SaveSparse writes, returning the
// (scaledIndex, frequency) pairs. The reader does not know infinity or
// false_infinity; the sparse format does not persist them.
func LoadSparse(path string) ([][2]uint64, error) {
	f, err := os.Open(path) //nolint:gosec // path is operator-supplied, not request-derived
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, ErrIOFailure)
	}
	defer f.Close()

	var pairs [][2]uint64
	r := bufio.NewReader(f)
	var tmp [16]byte
	for {
		if _, err := io.ReadFull(r, tmp[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read %s: %w", path, ErrIOFailure)
		}
		pairs = append(pairs, [2]uint64{
			binary.NativeEndian.Uint64(tmp[0:8]),
			binary.NativeEndian.Uint64(tmp[8:16]),
		})
	}
	return pairs, nil
}

const (
	denseMagic      = "MRCH"
	denseVersion    = uint16(1)
	denseHeaderSize = 4 + 2 + 8 + 8 + 8 + 8 // magic+version+numBins+binSize+falseInf+infinity
)

// SaveDense writes the full (non-sparse) bin array plus infinity counters,
// so a run can be resumed or diffed exactly. compress, when true, wraps the
// payload in a zstd stream.
func (h *Histogram) SaveDense(path string, compress bool) error {
	payload := make([]byte, denseHeaderSize+8*len(h.Bins))
	copy(payload[0:4], denseMagic)
	binary.LittleEndian.PutUint16(payload[4:6], denseVersion)
	binary.LittleEndian.PutUint64(payload[6:14], h.NumBins())
	binary.LittleEndian.PutUint64(payload[14:22], h.BinSize)
	binary.LittleEndian.PutUint64(payload[22:30], h.FalseInfinity)
	binary.LittleEndian.PutUint64(payload[30:38], h.Infinity)
	for i, v := range h.Bins {
		binary.LittleEndian.PutUint64(payload[denseHeaderSize+8*i:], v)
	}

	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("new zstd encoder: %w", ErrIOFailure)
		}
		payload = enc.EncodeAll(payload, nil)
		_ = enc.Close()
	}

	if err := atomic.WriteFile(path, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("save dense histogram %s: %w", path, ErrIOFailure)
	}
	return nil
}

// LoadDense reads the format SaveDense writes. compressed must match the
// value passed to SaveDense.
func LoadDense(path string, compressed bool) (*Histogram, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, ErrIOFailure)
	}
	if compressed {
		dec, derr := zstd.NewReader(nil)
		if derr != nil {
			return nil, fmt.Errorf("new zstd decoder: %w", ErrIOFailure)
		}
		raw, err = dec.DecodeAll(raw, nil)
		dec.Close()
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", path, ErrIOFailure)
		}
	}
	if len(raw) < denseHeaderSize || string(raw[0:4]) != denseMagic {
		return nil, fmt.Errorf("%s: %w", path, ErrCorruptedState)
	}
	numBins := binary.LittleEndian.Uint64(raw[6:14])
	binSize := binary.LittleEndian.Uint64(raw[14:22])
	falseInf := binary.LittleEndian.Uint64(raw[22:30])
	infinity := binary.LittleEndian.Uint64(raw[30:38])
	if uint64(len(raw)) < denseHeaderSize+8*numBins {
		return nil, fmt.Errorf("%s: %w", path, ErrCorruptedState)
	}
	h := &Histogram{
		Bins:          make([]uint64, numBins),
		BinSize:       binSize,
		FalseInfinity: falseInf,
		Infinity:      infinity,
	}
	var sum uint64
	for i := range h.Bins {
		h.Bins[i] = binary.LittleEndian.Uint64(raw[denseHeaderSize+8*i:])
		sum += h.Bins[i]
	}
	h.RunningSum = sum + falseInf + infinity
	return h, nil
}

// WriteJSON writes a sparse JSON dump (nonzero bins only), the Go analogue
// of the original's Histogram__write_as_json debug dump.
func (h *Histogram) WriteJSON(w io.Writer) error {
	sparse := make(map[string]uint64, len(h.Bins))
	for i, v := range h.Bins {
		if v != 0 {
			sparse[strconv.FormatUint(uint64(i)*h.BinSize, 10)] = v
		}
	}
	doc := struct {
		Type          string            `json:"type"`
		NumBins       uint64            `json:"num_bins"`
		BinSize       uint64            `json:"bin_size"`
		RunningSum    uint64            `json:"running_sum"`
		FalseInfinity uint64            `json:"false_infinity"`
		Infinity      uint64            `json:"infinity"`
		Histogram     map[string]uint64 `json:"histogram"`
	}{
		Type:          "Histogram",
		NumBins:       h.NumBins(),
		BinSize:       h.BinSize,
		RunningSum:    h.RunningSum,
		FalseInfinity: h.FalseInfinity,
		Infinity:      h.Infinity,
		Histogram:     sparse,
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write histogram json: %w", ErrIOFailure)
	}
	return nil
}
