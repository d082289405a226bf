package mrc

import "container/heap"

// shardsHeapEntry is one tracked key in Fixed-Size SHARDS' max-heap,
// ordered by hash so the farthest (largest-hash) key can be evicted in
// O(log n). Field shape (index tracks position in the heap slice) follows
// the standard container/heap priority-queue idiom: index-tracking
// entries, Push/Pop/Less/Swap on a []*entry slice.
type shardsHeapEntry struct {
	hash  uint64
	key   uint64
	index int // position in heap slice
}

// shardsMaxHeap is a max-heap by hash: Pop yields the farthest key.
type shardsMaxHeap []*shardsHeapEntry

func (h shardsMaxHeap) Len() int { return len(h) }

func (h shardsMaxHeap) Less(i, j int) bool { return h[i].hash > h[j].hash }

func (h shardsMaxHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *shardsMaxHeap) Push(x any) {
	entry := x.(*shardsHeapEntry) //nolint:forcetypeassert // container/heap contract
	entry.index = len(*h)
	*h = append(*h, entry)
}

func (h *shardsMaxHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	*h = old[:n-1]
	return entry
}

// FixedSizeShards wraps Olken with an adaptively-shrinking threshold: a
// max-heap of tracked key hashes bounds the sample set to maxSize entries,
// evicting the farthest-hash keys (and tightening the threshold) whenever
// the sample set overflows.
type FixedSizeShards struct {
	olken         *Olken
	threshold     uint64
	scale         uint64 // scale at the *current* threshold; captured per-insert
	maxSize       int
	heapByKey     map[uint64]*shardsHeapEntry
	heap          shardsMaxHeap
	adjust        ShardsAdjMode
	totalAccesses uint64
	sampled       uint64
}

func newFixedSizeShards(cfg *config) (*FixedSizeShards, error) {
	olken, err := newOlken(cfg)
	if err != nil {
		return nil, err
	}
	threshold := rateToThreshold(cfg.samplingRate)
	//nolint:gosec // G115: maxSize bounded by operator configuration, not attacker input
	return &FixedSizeShards{
		olken:     olken,
		threshold: threshold,
		scale:     rateToScale(cfg.samplingRate),
		maxSize:   int(cfg.maxSize),
		heapByKey: make(map[uint64]*shardsHeapEntry, cfg.maxSize),
		adjust:    cfg.shardsAdj,
	}, nil
}

// Access admits by the current threshold, delegates to Olken but with the
// insert scaled by the *current* threshold's scale (inserts keep the scale
// in effect when they happened, even after the threshold later tightens),
// tracks the key in the heap, then shrinks if the sample set has grown
// past maxSize.
func (f *FixedSizeShards) Access(key uint64) error {
	f.totalAccesses++
	h := hashUint64(key)
	if h > f.threshold {
		return nil
	}
	f.sampled++

	_, alreadyTracked := f.olken.index.get(key)
	if err := f.accessScaled(key); err != nil {
		return err
	}
	if !alreadyTracked {
		entry := &shardsHeapEntry{hash: h, key: key}
		f.heapByKey[key] = entry
		heap.Push(&f.heap, entry)
	}

	if f.heap.Len() > f.maxSize {
		f.shrink()
	}
	return nil
}

// accessScaled is Olken.Access with the histogram insert routed through
// the scaled variants at the current threshold's scale.
func (f *FixedSizeShards) accessScaled(key uint64) error {
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

// shrink repeatedly pops the farthest-hash entry, tightens the threshold
// to its hash, and removes it from Olken's tree/key-index. Histogram
// contributions already recorded for the removed key are not
// retroactively undone (a known approximation — see DESIGN.md). All
// entries tied with the popped hash are removed too so the threshold is
// strictly tightened.
func (f *FixedSizeShards) shrink() {
	for f.heap.Len() > 0 {
		top := f.heap[0]
		hMax := top.hash

		popped := heap.Pop(&f.heap).(*shardsHeapEntry) //nolint:forcetypeassert
		f.threshold = hMax
		f.scale = rateToScale(float64(hMax) / float64(^uint64(0)))
		f.evictFromOlken(popped.key)

		if f.heap.Len() <= f.maxSize && (f.heap.Len() == 0 || f.heap[0].hash != hMax) {
			break
		}
	}
}

func (f *FixedSizeShards) evictFromOlken(key uint64) {
	ts, ok := f.olken.index.get(key)
	if !ok {
		return
	}
	f.olken.tree.Remove(ts)
	f.olken.index.delete(key)
	delete(f.heapByKey, key)
}

// PostProcess applies the SHARDS-Adj correction using the final,
// settled-on threshold. expected/actual compare the sampled count to what
// the final rate implies over the whole trace, the same comparison
// FixedRateShards makes, just against the rate the threshold settled on
// rather than a rate fixed up front. Histogram entries inserted under
// earlier, looser thresholds are not retroactively rescaled.
func (f *FixedSizeShards) PostProcess() error {
	if f.adjust == ShardsAdjOff {
		return nil
	}
	finalRate := float64(f.threshold) / float64(^uint64(0))
	scale := rateToScale(finalRate)
	expected := finalRate * float64(f.totalAccesses)
	actual := float64(f.sampled)
	delta := int64((expected - actual) * float64(scale))
	_, err := f.olken.hist.AdjustFirstBuckets(delta)
	return err
}

// Histogram returns the accumulated histogram.
func (f *FixedSizeShards) Histogram() *Histogram { return f.olken.hist }

// Close releases FixedSizeShards' state.
func (f *FixedSizeShards) Close() {
	f.olken.Close()
	f.heapByKey = nil
	f.heap = nil
}
