package mrc

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestNewMissRateCurve(t *testing.T) {
	h, err := NewHistogram(3, 1, AllowOverflow)
	if err != nil {
		t.Fatalf("NewHistogram: %v", err)
	}
	h.Bins = []uint64{2, 0, 1}
	h.Infinity = 1
	h.RunningSum = 4

	mrc := NewMissRateCurve(h)

	want := MissRateCurve{1.0, 0.5, 0.5, 0.25}
	if !cmp.Equal([]float64(mrc), []float64(want), cmpopts.EquateApprox(0, 1e-9)) {
		t.Errorf("mrc = %v, want %v", mrc, want)
	}
	if !mrc.Monotonic() {
		t.Error("Monotonic() = false, want true")
	}
}

func TestNewMissRateCurveEmptyHistogram(t *testing.T) {
	h, err := NewHistogram(3, 1, AllowOverflow)
	if err != nil {
		t.Fatalf("NewHistogram: %v", err)
	}
	mrc := NewMissRateCurve(h)
	for i, v := range mrc {
		if v != 0 {
			t.Errorf("mrc[%d] = %v, want 0 for an empty histogram", i, v)
		}
	}
}

func TestMissRateCurveRoundTrip(t *testing.T) {
	mrc := MissRateCurve{1.0, 0.75, 0.5, 0.1, 0}
	path := filepath.Join(t.TempDir(), "curve.mrc")
	if err := mrc.SaveMRC(path); err != nil {
		t.Fatalf("SaveMRC: %v", err)
	}
	got, err := LoadMRC(path)
	if err != nil {
		t.Fatalf("LoadMRC: %v", err)
	}
	if !cmp.Equal([]float64(got), []float64(mrc)) {
		t.Errorf("got = %v, want %v", got, mrc)
	}
}

func TestMonotonicDetectsIncrease(t *testing.T) {
	mrc := MissRateCurve{1.0, 0.4, 0.5}
	if mrc.Monotonic() {
		t.Error("Monotonic() = true, want false for a curve that increases")
	}
}
