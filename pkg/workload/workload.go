// Package workload generates synthetic key-access sequences for exercising
// trace-driven tooling without a real production trace on hand.
package workload

import (
	"math"
	"math/rand/v2"
)

// GenerateZipfUint64 generates n Zipfian-distributed keys over [0, keySpace)
// with skew theta, over the `uint64` key domain this package's estimators
// consume.
func GenerateZipfUint64(n, keySpace int, theta float64, seed uint64) []uint64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	keys := make([]uint64, n)

	spread := keySpace + 1
	zeta2 := computeZeta(2, theta)
	zetaN := computeZeta(uint64(spread), theta) //nolint:gosec // spread bounded by caller
	alpha := 1.0 / (1.0 - theta)
	eta := (1 - math.Pow(2.0/float64(spread), 1.0-theta)) / (1.0 - zeta2/zetaN)
	halfPowTheta := 1.0 + math.Pow(0.5, theta)

	for i := range n {
		u := rng.Float64()
		uz := u * zetaN
		var result int
		switch {
		case uz < 1.0:
			result = 0
		case uz < halfPowTheta:
			result = 1
		default:
			result = int(float64(spread) * math.Pow(eta*u-eta+1.0, alpha))
		}
		if result >= keySpace {
			result = keySpace - 1
		}
		if result < 0 {
			result = 0
		}
		keys[i] = uint64(result) //nolint:gosec // result clamped to [0, keySpace)
	}
	return keys
}

// GenerateSequentialUint64 generates n keys cycling through [0, keySpace),
// useful as a no-locality baseline (every access is a miss until the
// cycle wraps).
func GenerateSequentialUint64(n, keySpace int) []uint64 {
	keys := make([]uint64, n)
	for i := range n {
		keys[i] = uint64(i % keySpace) //nolint:gosec // keySpace bounded by caller
	}
	return keys
}

// GenerateUniformUint64 generates n keys drawn uniformly from [0, keySpace).
func GenerateUniformUint64(n, keySpace int, seed uint64) []uint64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	keys := make([]uint64, n)
	for i := range n {
		keys[i] = uint64(rng.IntN(keySpace)) //nolint:gosec // keySpace bounded by caller
	}
	return keys
}

// computeZeta computes zeta(n, theta) = sum(1/i^theta) for i=1 to n.
func computeZeta(n uint64, theta float64) float64 {
	sum := 0.0
	for i := uint64(1); i <= n; i++ {
		sum += 1.0 / math.Pow(float64(i), theta)
	}
	return sum
}
