package mrc

import "testing"

func TestFixedSizeShardsBoundsSampleSet(t *testing.T) {
	est, err := New(FixedSizeSHARDS, WithNumBins(100), WithMaxSize(10), WithSamplingRate(1.0))
	if err != nil {
		t.Fatalf("New(FixedSizeSHARDS): %v", err)
	}
	fs, ok := est.(*FixedSizeShards)
	if !ok {
		t.Fatalf("est is %T, want *FixedSizeShards", est)
	}

	for key := range uint64(1000) {
		if err := fs.Access(key); err != nil {
			t.Fatalf("Access(%d): %v", key, err)
		}
	}

	if fs.heap.Len() > fs.maxSize {
		t.Errorf("heap.Len() = %d, want <= maxSize %d", fs.heap.Len(), fs.maxSize)
	}
	if len(fs.heapByKey) != fs.heap.Len() {
		t.Errorf("len(heapByKey) = %d, want == heap.Len() = %d", len(fs.heapByKey), fs.heap.Len())
	}
	if fs.threshold == rateToThreshold(1.0) {
		t.Error("threshold unchanged after overflowing maxSize, want it tightened")
	}
}

func TestFixedSizeShardsHistogramValid(t *testing.T) {
	est, err := New(FixedSizeSHARDS, WithNumBins(50), WithMaxSize(20), WithSamplingRate(1.0))
	if err != nil {
		t.Fatalf("New(FixedSizeSHARDS): %v", err)
	}

	for i := range uint64(2000) {
		if err := est.Access(i % 100); err != nil {
			t.Fatalf("Access: %v", err)
		}
	}
	if err := est.PostProcess(); err != nil {
		t.Fatalf("PostProcess: %v", err)
	}

	hist := est.Histogram()
	if !hist.Validate() {
		t.Error("Validate() = false, want true")
	}

	mrc := NewMissRateCurve(hist)
	if !mrc.Monotonic() {
		t.Error("Monotonic() = false, want true")
	}
}

func TestFixedSizeShardsEvictFromOlkenIsNoOpForUntracked(t *testing.T) {
	est, err := New(FixedSizeSHARDS, WithNumBins(10), WithMaxSize(5), WithSamplingRate(1.0))
	if err != nil {
		t.Fatalf("New(FixedSizeSHARDS): %v", err)
	}
	fs, ok := est.(*FixedSizeShards)
	if !ok {
		t.Fatalf("est is %T, want *FixedSizeShards", est)
	}
	// key 999 was never accessed; evictFromOlken must not panic.
	fs.evictFromOlken(999)
}
