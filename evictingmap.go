package mrc

// evictingMapSlot is one of the Evicting Map's fixed C slots: either empty,
// or holding the last-sampled key to land there and the counter value at
// which it was last touched.
type evictingMapSlot struct {
	key      uint64
	lastTS   uint64
	occupied bool
}

// EvictingMap approximates reuse distance under bounded memory: a fixed
// C-slot array indexed by hash2(key), with collisions simply evicting the
// occupant. Unlike Fixed-Size SHARDS, the threshold never
// moves; sample-set bounding comes from slot collisions, not a
// shrinking admission window.
type EvictingMap struct {
	slots     []evictingMapSlot
	threshold uint64
	scale     uint64
	counter   uint64
	hist      *Histogram
}

func newEvictingMap(cfg *config) (*EvictingMap, error) {
	hist, err := NewHistogram(cfg.numBins, cfg.binSize, cfg.outOfBounds)
	if err != nil {
		return nil, err
	}
	//nolint:gosec // G115: maxSize bounded by operator configuration, not attacker input
	return &EvictingMap{
		slots:     make([]evictingMapSlot, cfg.maxSize),
		threshold: rateToThreshold(cfg.samplingRate),
		scale:     rateToScale(cfg.samplingRate),
		hist:      hist,
	}, nil
}

// Access implements the bounded-memory access(key) algorithm:
//  1. hash(key) > T -> ignore.
//  2. slot = hash2(key) mod C.
//  3. slot empty -> cold miss, insert_scaled_infinite.
//  4. slot holds key -> hit, estimate d̂ from per-slot timestamps,
//     insert_scaled_finite(d̂).
//  5. slot holds a different key -> evict it, treat the new key as a cold
//     miss.
//
// d̂ is estimated via the more precise per-slot timestamp difference, not
// the coarser non-empty-slot count — see DESIGN.md.
func (e *EvictingMap) Access(key uint64) error {
	if hashUint64(key) > e.threshold {
		return nil
	}

	idx := hash2Uint64(key) % uint64(len(e.slots)) //nolint:gosec // len(slots) fits uint64
	slot := &e.slots[idx]

	switch {
	case !slot.occupied:
		if err := e.hist.InsertScaledInfinite(e.scale); err != nil {
			return err
		}
		slot.key = key
		slot.occupied = true
	case slot.key == key:
		d := e.distinctSince(slot.lastTS)
		if err := e.hist.InsertScaledFinite(d, e.scale); err != nil {
			return err
		}
	default:
		if err := e.hist.InsertScaledInfinite(e.scale); err != nil {
			return err
		}
		slot.key = key
	}

	slot.lastTS = e.counter
	e.counter++
	return nil
}

// distinctSince approximates the number of distinct sampled keys touched
// since tsOld: every other occupied slot whose last touch is more recent
// than tsOld must hold a key seen at least once in between. O(C) per hit;
// bounded memory trades this linear scan for not tracking a global rank
// structure.
func (e *EvictingMap) distinctSince(tsOld uint64) uint64 {
	var d uint64
	for i := range e.slots {
		if e.slots[i].occupied && e.slots[i].lastTS > tsOld {
			d++
		}
	}
	return d
}

// PostProcess is a no-op: the Evicting Map's bias comes from bounded-memory
// slot collisions, not a sampled-count/expected-count mismatch, so no
// SHARDS-Adj-style correction applies.
func (e *EvictingMap) PostProcess() error { return nil }

// Histogram returns the accumulated histogram.
func (e *EvictingMap) Histogram() *Histogram { return e.hist }

// Close releases the Evicting Map's slot array.
func (e *EvictingMap) Close() { e.slots = nil }
