package mrc

// Olken is the exact reuse-distance estimator: an order-statistic tree
// plus a key index plus a histogram.
type Olken struct {
	tree          *orderStatisticTree
	index         *keyIndex
	hist          *Histogram
	nextTimestamp uint64
}

func newOlken(cfg *config) (*Olken, error) {
	hist, err := NewHistogram(cfg.numBins, cfg.binSize, cfg.outOfBounds)
	if err != nil {
		return nil, err
	}
	return &Olken{
		tree:  newOrderStatisticTree(),
		index: newKeyIndex(),
		hist:  hist,
	}, nil
}

// Access implements the exact reuse-distance access(key) algorithm:
//  1. look up key in the key index
//  2. miss: insert_infinite, assign a fresh timestamp, insert into the
//     tree, record key -> ts
//  3. hit: compute reverse_rank(ts_old) as the stack distance,
//     insert_finite(d), remove the old timestamp, insert a fresh one,
//     update key -> ts_new
func (o *Olken) Access(key uint64) error {
	tsOld, hit := o.index.get(key)
	if !hit {
		if err := o.hist.InsertInfinite(); err != nil {
			return err
		}
		ts := o.nextTimestamp
		o.nextTimestamp++
		o.tree.Insert(ts)
		o.index.set(key, ts)
		return nil
	}

	d := o.tree.ReverseRank(tsOld)
	if err := o.hist.InsertFinite(d); err != nil {
		return err
	}
	o.tree.Remove(tsOld)
	tsNew := o.nextTimestamp
	o.nextTimestamp++
	o.tree.Insert(tsNew)
	o.index.set(key, tsNew)
	return nil
}

// PostProcess is a no-op for Olken, present for Estimator uniformity.
func (o *Olken) PostProcess() error { return nil }

// Histogram returns the accumulated histogram.
func (o *Olken) Histogram() *Histogram { return o.hist }

// Close releases Olken's state. Safe to call once.
func (o *Olken) Close() {
	o.tree = nil
	o.index = nil
}

// uniqueKeys reports the number of distinct keys currently tracked.
// Invariant: tree.size() == uniqueKeys() == key_index.size().
func (o *Olken) uniqueKeys() int { return o.index.len() }
