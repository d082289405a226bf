package mrc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func runOlken(t *testing.T, trace []uint64, numBins, binSize uint64, mode OutOfBoundsMode) *Olken {
	t.Helper()
	est, err := New(AlgorithmOlken, WithNumBins(numBins), WithBinSize(binSize), WithOutOfBoundsMode(mode))
	if err != nil {
		t.Fatalf("New(Olken): %v", err)
	}
	olken, ok := est.(*Olken)
	if !ok {
		t.Fatalf("New(Olken) returned %T, want *Olken", est)
	}
	for _, key := range trace {
		if err := olken.Access(key); err != nil {
			t.Fatalf("Access(%d): %v", key, err)
		}
	}
	return olken
}

// TestOlkenSingleKeyRepeat implements S1: trace [7,7,7,7], num_bins=4,
// bin_size=1. Expected infinity=1, bins=[3,0,0,0], running_sum=4, MRC
// [1.0, 0.25, 0.25, 0.25, 0.25].
func TestOlkenSingleKeyRepeat(t *testing.T) {
	olken := runOlken(t, []uint64{7, 7, 7, 7}, 4, 1, AllowOverflow)
	hist := olken.Histogram()

	if hist.Infinity != 1 {
		t.Errorf("Infinity = %d, want 1", hist.Infinity)
	}
	wantBins := []uint64{3, 0, 0, 0}
	if !cmp.Equal(hist.Bins, wantBins) {
		t.Errorf("Bins = %v, want %v", hist.Bins, wantBins)
	}
	if hist.RunningSum != 4 {
		t.Errorf("RunningSum = %d, want 4", hist.RunningSum)
	}

	mrc := NewMissRateCurve(hist)
	wantMRC := MissRateCurve{1.0, 0.25, 0.25, 0.25, 0.25}
	if !cmp.Equal([]float64(mrc), []float64(wantMRC), cmpopts.EquateApprox(0, 1e-9)) {
		t.Errorf("MRC = %v, want %v", mrc, wantMRC)
	}
}

// TestOlkenTwoAlternatingKeys implements S2: trace [1,2,1,2,1,2], num_bins=4,
// bin_size=1. Expected infinity=2, bins=[0,4,0,0], MRC
// [1.0, 1.0, 2/6, 2/6, 2/6].
func TestOlkenTwoAlternatingKeys(t *testing.T) {
	olken := runOlken(t, []uint64{1, 2, 1, 2, 1, 2}, 4, 1, AllowOverflow)
	hist := olken.Histogram()

	if hist.Infinity != 2 {
		t.Errorf("Infinity = %d, want 2", hist.Infinity)
	}
	wantBins := []uint64{0, 4, 0, 0}
	if !cmp.Equal(hist.Bins, wantBins) {
		t.Errorf("Bins = %v, want %v", hist.Bins, wantBins)
	}

	mrc := NewMissRateCurve(hist)
	wantMRC := MissRateCurve{1.0, 1.0, 2.0 / 6, 2.0 / 6, 2.0 / 6}
	if !cmp.Equal([]float64(mrc), []float64(wantMRC), cmpopts.EquateApprox(0, 1e-9)) {
		t.Errorf("MRC = %v, want %v", mrc, wantMRC)
	}
}

// TestOlkenAllDistinct implements S3: trace [1,2,3,4,5], num_bins=4,
// bin_size=1. Expected infinity=5, all bins zero, MRC all 1.0.
func TestOlkenAllDistinct(t *testing.T) {
	olken := runOlken(t, []uint64{1, 2, 3, 4, 5}, 4, 1, AllowOverflow)
	hist := olken.Histogram()

	if hist.Infinity != 5 {
		t.Errorf("Infinity = %d, want 5", hist.Infinity)
	}
	for i, b := range hist.Bins {
		if b != 0 {
			t.Errorf("Bins[%d] = %d, want 0", i, b)
		}
	}

	mrc := NewMissRateCurve(hist)
	for i, v := range mrc {
		if v != 1.0 {
			t.Errorf("MRC[%d] = %v, want 1.0", i, v)
		}
	}
}

// TestOlkenDistanceExceedsBins implements S4: trace [1,2,3,4,1], num_bins=2,
// bin_size=1. Expected infinity=4, false_infinity=1, bins=[0,0], MRC at
// every k >= 0 equals 1.0.
func TestOlkenDistanceExceedsBins(t *testing.T) {
	olken := runOlken(t, []uint64{1, 2, 3, 4, 1}, 2, 1, AllowOverflow)
	hist := olken.Histogram()

	if hist.Infinity != 4 {
		t.Errorf("Infinity = %d, want 4", hist.Infinity)
	}
	if hist.FalseInfinity != 1 {
		t.Errorf("FalseInfinity = %d, want 1", hist.FalseInfinity)
	}
	wantBins := []uint64{0, 0}
	if !cmp.Equal(hist.Bins, wantBins) {
		t.Errorf("Bins = %v, want %v", hist.Bins, wantBins)
	}

	mrc := NewMissRateCurve(hist)
	for i, v := range mrc {
		if v != 1.0 {
			t.Errorf("MRC[%d] = %v, want 1.0", i, v)
		}
	}
}

// TestOlkenInvariants checks that after N accesses with U unique keys,
// running_sum == N, infinity == U, tree.size() == U, key_index.size() == U.
func TestOlkenInvariants(t *testing.T) {
	trace := []uint64{1, 2, 3, 1, 2, 4, 1, 5, 2, 1}
	olken := runOlken(t, trace, 100, 1, AllowOverflow)
	hist := olken.Histogram()

	unique := map[uint64]bool{}
	for _, k := range trace {
		unique[k] = true
	}
	u := uint64(len(unique))

	if hist.RunningSum != uint64(len(trace)) {
		t.Errorf("RunningSum = %d, want %d", hist.RunningSum, len(trace))
	}
	if hist.Infinity != u {
		t.Errorf("Infinity = %d, want %d", hist.Infinity, u)
	}
	if got := olken.tree.Size(); got != int(u) {
		t.Errorf("tree.Size() = %d, want %d", got, u)
	}
	if got := olken.uniqueKeys(); got != int(u) {
		t.Errorf("uniqueKeys() = %d, want %d", got, u)
	}
	if !hist.Validate() {
		t.Error("Validate() = false, want true")
	}
}
