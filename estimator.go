package mrc

import "fmt"

// Estimator is the capability set every reuse-distance algorithm
// implements: access, post-process, read back the histogram, and
// release resources. TraceRunner resolves a concrete Estimator once at
// construction and never re-dispatches inside its hot loop beyond Go's
// single interface-call indirection.
type Estimator interface {
	// Access processes one trace record. It never logs; the hot path
	// logs nothing per access.
	Access(key uint64) error
	// PostProcess runs any end-of-trace correction (SHARDS-Adj; a no-op
	// for Olken and the Evicting Map).
	PostProcess() error
	// Histogram returns a borrow of the estimator's histogram, valid for
	// the lifetime of the estimator. The caller may read but not free it.
	Histogram() *Histogram
	// Close releases any resources held by the estimator.
	Close()
}

// Algorithm identifies which estimator New constructs.
type Algorithm int

const (
	AlgorithmOlken Algorithm = iota
	FixedRateSHARDS
	FixedSizeSHARDS
	EvictingMapAlgorithm
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmOlken:
		return "Olken"
	case FixedRateSHARDS:
		return "FixedRateSHARDS"
	case FixedSizeSHARDS:
		return "FixedSizeSHARDS"
	case EvictingMapAlgorithm:
		return "EvictingMap"
	default:
		return "Unknown"
	}
}

// ParseAlgorithm parses an --algorithm flag value.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "Olken":
		return AlgorithmOlken, nil
	case "FixedRateSHARDS":
		return FixedRateSHARDS, nil
	case "FixedSizeSHARDS":
		return FixedSizeSHARDS, nil
	case "EvictingMap":
		return EvictingMapAlgorithm, nil
	default:
		return 0, fmt.Errorf("unknown algorithm %q: %w", s, ErrInvalidArgument)
	}
}

// New constructs the estimator named by alg, resolving the concrete type
// once so the driver never pays interface-dispatch cost inside the
// per-record hot loop beyond Go's single method-table indirection.
func New(alg Algorithm, opts ...Option) (Estimator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	switch alg {
	case AlgorithmOlken:
		return newOlken(cfg)
	case FixedRateSHARDS:
		return newFixedRateShards(cfg)
	case FixedSizeSHARDS:
		return newFixedSizeShards(cfg)
	case EvictingMapAlgorithm:
		return newEvictingMap(cfg)
	default:
		return nil, fmt.Errorf("algorithm %v: %w", alg, ErrInvalidArgument)
	}
}
