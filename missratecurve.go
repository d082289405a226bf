package mrc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/natefinch/atomic"
)

// MissRateCurve maps cache size index k (in units of BinSize) to the
// expected miss ratio of an LRU cache holding k*BinSize entries. Length is
// NumBins+1.
type MissRateCurve []float64

// NewMissRateCurve converts a Histogram into a cumulative miss-ratio curve.
//
//	misses[k] = infinity + false_infinity + sum(bins[k:])
//	mrc[k]    = misses[k] / total, mrc[0] = 1 when total > 0, 0/0 -> 0.
func NewMissRateCurve(h *Histogram) MissRateCurve {
	numBins := len(h.Bins)
	mrc := make(MissRateCurve, numBins+1)
	if h.RunningSum == 0 {
		return mrc
	}

	total := float64(h.RunningSum)
	tail := h.FalseInfinity + h.Infinity
	mrc[numBins] = float64(tail) / total

	// Walk bins right-to-left accumulating the suffix sum:
	// misses[k] = infinity + false_infinity + sum(bins[k:]).
	misses := tail
	for k := numBins - 1; k >= 0; k-- {
		misses += h.Bins[k]
		mrc[k] = float64(misses) / total
	}
	return mrc
}

// SaveMRC writes the curve as a packed array of float64 in host byte
// order, atomically.
func (m MissRateCurve) SaveMRC(path string) error {
	buf := make([]byte, 8*len(m))
	for i, v := range m {
		binary.NativeEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	if err := atomic.WriteFile(path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("save mrc %s: %w", path, ErrIOFailure)
	}
	return nil
}

// LoadMRC reads the format SaveMRC writes.
func LoadMRC(path string) (MissRateCurve, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, ErrIOFailure)
	}
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrCorruptedState)
	}
	m := make(MissRateCurve, len(raw)/8)
	for i := range m {
		m[i] = math.Float64frombits(binary.NativeEndian.Uint64(raw[8*i:]))
	}
	return m, nil
}

// Monotonic reports whether the curve is weakly non-increasing, as a
// miss ratio curve over growing cache sizes must be.
func (m MissRateCurve) Monotonic() bool {
	for i := 1; i < len(m); i++ {
		if m[i] > m[i-1] {
			return false
		}
	}
	return true
}
