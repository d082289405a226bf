package mrc

import "math"

// FixedRateShards wraps Olken with hash-based spatial sampling at a fixed
// rate, plus the SHARDS-Adj end-of-trace correction.
type FixedRateShards struct {
	olken         *Olken
	threshold     uint64 // T = round(r * 2^64)
	scale         uint64 // 2^64 / T
	rate          float64
	adjust        ShardsAdjMode
	totalAccesses uint64 // N: every access seen, sampled or not
	sampled       uint64 // accesses that passed the admission test
}

func newFixedRateShards(cfg *config) (*FixedRateShards, error) {
	olken, err := newOlken(cfg)
	if err != nil {
		return nil, err
	}
	threshold := rateToThreshold(cfg.samplingRate)
	return &FixedRateShards{
		olken:     olken,
		threshold: threshold,
		scale:     rateToScale(cfg.samplingRate),
		rate:      cfg.samplingRate,
		adjust:    cfg.shardsAdj,
	}, nil
}

// rateToThreshold derives T = round(r * 2^64), saturating at max uint64
// for r == 1.0 since 2^64 overflows uint64. A key is admitted when
// hash(key) <= T; r == 1.0 must admit every possible hash value, which
// the saturated threshold guarantees (no uint64 hash exceeds MaxUint64).
func rateToThreshold(r float64) uint64 {
	if r >= 1.0 {
		return math.MaxUint64
	}
	return uint64(r * float64(math.MaxUint64))
}

// rateToScale returns scale = 1/r (conceptually 2^64/T), the factor used
// to scale sampled histogram counts back up to the full trace. Computed
// directly from r rather than from the saturating threshold so r == 1.0
// yields scale == 1 exactly, instead of overflowing through 2^64/T.
func rateToScale(r float64) uint64 {
	if r <= 0 {
		return math.MaxUint64
	}
	return uint64(math.Round(1.0 / r))
}

// Access hashes the key; if it exceeds the admission threshold, ignore
// it. Otherwise delegate to Olken, but scale the histogram contribution
// by 1/r instead of recording it unscaled.
func (f *FixedRateShards) Access(key uint64) error {
	f.totalAccesses++
	if hashUint64(key) > f.threshold {
		return nil
	}
	f.sampled++
	return f.accessScaled(key)
}

// accessScaled duplicates Olken.Access's control flow but routes into the
// histogram's scaled insert variants, since Olken itself always inserts
// unscaled.
func (f *FixedRateShards) accessScaled(key uint64) error {
	o := f.olken
	tsOld, hit := o.index.get(key)
	if !hit {
		if err := o.hist.InsertScaledInfinite(f.scale); err != nil {
			return err
		}
		ts := o.nextTimestamp
		o.nextTimestamp++
		o.tree.Insert(ts)
		o.index.set(key, ts)
		return nil
	}

	d := o.tree.ReverseRank(tsOld)
	if err := o.hist.InsertScaledFinite(d, f.scale); err != nil {
		return err
	}
	o.tree.Remove(tsOld)
	tsNew := o.nextTimestamp
	o.nextTimestamp++
	o.tree.Insert(tsNew)
	o.index.set(key, tsNew)
	return nil
}

// PostProcess applies the SHARDS-Adj correction: the histogram was
// scaled up assuming exactly r*N_total accesses were sampled;
// adjust_first_buckets corrects the discrepancy between that expectation
// and the actual sampled count.
func (f *FixedRateShards) PostProcess() error {
	if f.adjust == ShardsAdjOff {
		return nil
	}
	expected := f.rate * float64(f.totalAccesses)
	actual := float64(f.sampled)
	delta := int64((expected - actual) * float64(f.scale))
	_, err := f.olken.hist.AdjustFirstBuckets(delta)
	return err
}

// Histogram returns the accumulated (scaled, adjusted) histogram.
func (f *FixedRateShards) Histogram() *Histogram { return f.olken.hist }

// Close releases FixedRateShards' state.
func (f *FixedRateShards) Close() { f.olken.Close() }
