// Package mrc computes Miss Ratio Curves for cache reference traces.
//
// An MRC maps cache size to expected miss ratio. Given a sequence of key
// accesses, the estimators in this package compute, for each access, the
// stack distance (the number of distinct keys referenced since the last
// access to the same key) and accumulate a Histogram from which the MRC is
// derived.
//
// Four estimators are provided: Olken (exact, via an order-statistic tree),
// FixedRateShards and FixedSizeShards (hash-sampled approximations), and
// EvictingMap (bounded-memory approximation). All four satisfy Estimator.
package mrc
