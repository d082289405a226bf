package mrc

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// SweepConfig names one estimator configuration to run as part of a Sweep.
type SweepConfig struct {
	Name string
	Alg  Algorithm
	Opts []Option
}

// SweepResult is one SweepConfig's outcome.
type SweepResult struct {
	Config SweepConfig
	Run    RunResult
	Err    error
}

// Sweep runs N estimator configurations over one resident trace
// concurrently, one goroutine per configuration. This is the one place in
// this package concurrency is real: every Estimator otherwise runs single-
// threaded and sequential, but nothing prevents running several
// independent estimators over the same read-only mmap'd trace at once.
// Results land in an xsync.Map, a lock-free concurrent map, repurposed
// here from sharding one cache to indexing N independent configs over
// one trace.
//
// Sweep also caches opened TraceReaders by path, so repeated RunPath calls
// against the same trace file (e.g. several sweeps over one production
// trace) reuse the existing mmap instead of re-opening it. The cache is
// read far more than it is written — every goroutine in every sweep reads
// it, but a given path is opened at most once — so it is guarded by an
// xsync.RBMutex rather than a plain sync.RWMutex: reads take the
// lock-free fast path and only the rare cache-miss open takes the
// writer lock.
type Sweep struct {
	log *slog.Logger

	mu      *xsync.RBMutex
	readers map[string]*TraceReader
}

// NewSweep constructs a Sweep. A nil logger falls back to slog.Default.
func NewSweep(log *slog.Logger) *Sweep {
	if log == nil {
		log = slog.Default()
	}
	return &Sweep{log: log, mu: xsync.NewRBMutex(), readers: make(map[string]*TraceReader)}
}

// RunPath opens (or reuses a cached open of) the trace at path and runs
// every config against it, as Run does. Concurrent RunPath calls against
// the same path share one TraceReader.
func (s *Sweep) RunPath(path string, format TraceFormat, configs []SweepConfig) ([]SweepResult, error) {
	reader, err := s.open(path, format)
	if err != nil {
		return nil, err
	}
	return s.Run(reader, configs), nil
}

// open returns the cached TraceReader for path, opening and caching it on
// first use. The read-biased fast path (RLock) covers the common case of
// an already-cached reader; only a cache miss takes the write lock.
func (s *Sweep) open(path string, format TraceFormat) (*TraceReader, error) {
	token := s.mu.RLock()
	reader, ok := s.readers[path]
	s.mu.RUnlock(token)
	if ok {
		return reader, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if reader, ok := s.readers[path]; ok {
		return reader, nil
	}
	reader, err := OpenTraceReader(path, format)
	if err != nil {
		return nil, err
	}
	s.readers[path] = reader
	return reader, nil
}

// Close releases every TraceReader this Sweep has opened via RunPath.
func (s *Sweep) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for path, reader := range s.readers {
		if err := reader.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", path, err)
		}
	}
	s.readers = make(map[string]*TraceReader)
	return firstErr
}

// Run executes every config in configs against reader concurrently and
// returns their results in the original config order. reader must not be
// mutated or closed while Run is in flight; every goroutine only calls
// TraceReader.At, which reads the shared mmap'd bytes without
// synchronization (safe: concurrent reads of immutable memory).
func (s *Sweep) Run(reader *TraceReader, configs []SweepConfig) []SweepResult {
	results := xsync.NewMap[string, *SweepResult]()

	var wg sync.WaitGroup
	for _, cfg := range configs {
		wg.Add(1)
		go func(cfg SweepConfig) {
			defer wg.Done()
			results.Store(cfg.Name, s.runOne(reader, cfg))
		}(cfg)
	}
	wg.Wait()

	out := make([]SweepResult, 0, len(configs))
	for _, cfg := range configs {
		res, ok := results.Load(cfg.Name)
		if !ok {
			// unreachable: every config is stored exactly once above
			continue
		}
		out = append(out, *res)
	}
	return out
}

func (s *Sweep) runOne(reader *TraceReader, cfg SweepConfig) *SweepResult {
	est, err := New(cfg.Alg, cfg.Opts...)
	if err != nil {
		return &SweepResult{Config: cfg, Err: fmt.Errorf("config %s: %w", cfg.Name, err)}
	}

	runner := NewTraceRunner(est, s.log.With("config", cfg.Name), RunnerOptions{})
	run, err := runner.Run(reader)
	if err != nil {
		return &SweepResult{Config: cfg, Err: fmt.Errorf("config %s: %w", cfg.Name, err)}
	}
	return &SweepResult{Config: cfg, Run: run}
}
