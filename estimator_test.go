package mrc

import (
	"errors"
	"testing"
)

func TestParseAlgorithmRoundTrip(t *testing.T) {
	algs := []Algorithm{AlgorithmOlken, FixedRateSHARDS, FixedSizeSHARDS, EvictingMapAlgorithm}
	for _, a := range algs {
		got, err := ParseAlgorithm(a.String())
		if err != nil {
			t.Errorf("ParseAlgorithm(%q): %v", a.String(), err)
		}
		if got != a {
			t.Errorf("ParseAlgorithm(%q) = %v, want %v", a.String(), got, a)
		}
	}
}

func TestParseAlgorithmUnknown(t *testing.T) {
	_, err := ParseAlgorithm("NotAnAlgorithm")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestNewConstructsEachEstimator(t *testing.T) {
	algs := []Algorithm{AlgorithmOlken, FixedRateSHARDS, FixedSizeSHARDS, EvictingMapAlgorithm}
	for _, a := range algs {
		est, err := New(a, WithNumBins(10), WithMaxSize(4), WithSamplingRate(0.5))
		if err != nil {
			t.Fatalf("New(%v): %v", a, err)
		}
		if err := est.Access(1); err != nil {
			t.Errorf("%v.Access(1): %v", a, err)
		}
		if hist := est.Histogram(); hist == nil {
			t.Errorf("%v.Histogram() = nil", a)
		}
		est.Close()
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(AlgorithmOlken, WithSamplingRate(2.0))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}
