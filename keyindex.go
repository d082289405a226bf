package mrc

// keyIndex maps an access key to its current timestamp in the
// order-statistic tree. Invariant: every value is present as a key in the
// tree at quiescence.
//
// A bare map is correct and sufficient here: estimator state is single-
// threaded and sequential, so a concurrent xsync.Map (built for many
// goroutines hammering one shard) would be lock-free machinery with no
// concurrent writer to justify it. xsync is used instead in sweep.go,
// where concurrency is real.
type keyIndex struct {
	m map[uint64]uint64
}

func newKeyIndex() *keyIndex {
	return &keyIndex{m: make(map[uint64]uint64)}
}

func (k *keyIndex) get(key uint64) (uint64, bool) {
	ts, ok := k.m[key]
	return ts, ok
}

func (k *keyIndex) set(key, ts uint64) {
	k.m[key] = ts
}

func (k *keyIndex) delete(key uint64) {
	delete(k.m, key)
}

func (k *keyIndex) len() int {
	return len(k.m)
}
