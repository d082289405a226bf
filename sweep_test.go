package mrc

import (
	"sync"
	"testing"
)

func TestSweepRunsAllConfigsConcurrently(t *testing.T) {
	records := make([]TraceRecord, 500)
	for i := range records {
		records[i] = TraceRecord{Key: uint64(i % 50)} //nolint:gosec // test fixture, i bounded
	}
	path := writeKiaTrace(t, records)
	reader, err := OpenTraceReader(path, KiaFormat)
	if err != nil {
		t.Fatalf("OpenTraceReader: %v", err)
	}
	defer func() { _ = reader.Close() }()

	configs := []SweepConfig{
		{Name: "olken", Alg: AlgorithmOlken, Opts: []Option{WithNumBins(20)}},
		{Name: "shards-full", Alg: FixedRateSHARDS, Opts: []Option{WithNumBins(20), WithSamplingRate(1.0)}},
		{Name: "shards-sampled", Alg: FixedRateSHARDS, Opts: []Option{WithNumBins(20), WithSamplingRate(0.5)}},
		{Name: "evicting", Alg: EvictingMapAlgorithm, Opts: []Option{WithNumBins(20), WithMaxSize(10), WithSamplingRate(1.0)}},
	}

	results := NewSweep(nil).Run(reader, configs)
	if len(results) != len(configs) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(configs))
	}
	for i, want := range configs {
		got := results[i]
		if got.Config.Name != want.Name {
			t.Errorf("results[%d].Config.Name = %q, want %q (order must match input)", i, got.Config.Name, want.Name)
		}
		if got.Err != nil {
			t.Errorf("results[%d] (%s) Err = %v, want nil", i, want.Name, got.Err)
		}
		if got.Run.Histogram == nil {
			t.Errorf("results[%d] (%s) Histogram = nil", i, want.Name)
		}
	}
}

func TestSweepReportsPerConfigError(t *testing.T) {
	records := []TraceRecord{{Key: 1}}
	path := writeKiaTrace(t, records)
	reader, err := OpenTraceReader(path, KiaFormat)
	if err != nil {
		t.Fatalf("OpenTraceReader: %v", err)
	}
	defer func() { _ = reader.Close() }()

	configs := []SweepConfig{
		{Name: "bad", Alg: AlgorithmOlken, Opts: []Option{WithSamplingRate(2.0)}},
	}
	results := NewSweep(nil).Run(reader, configs)
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].Err == nil {
		t.Error("Err = nil, want an error for an invalid config")
	}
}

func TestSweepRunPathCachesReaderAcrossConcurrentCalls(t *testing.T) {
	records := make([]TraceRecord, 200)
	for i := range records {
		records[i] = TraceRecord{Key: uint64(i % 20)} //nolint:gosec // test fixture, i bounded
	}
	path := writeKiaTrace(t, records)

	sweep := NewSweep(nil)
	defer func() { _ = sweep.Close() }()

	configs := []SweepConfig{
		{Name: "olken", Alg: AlgorithmOlken, Opts: []Option{WithNumBins(20)}},
	}

	var wg sync.WaitGroup
	results := make([][]SweepResult, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := sweep.RunPath(path, KiaFormat, configs)
			if err != nil {
				t.Errorf("RunPath: %v", err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		if len(res) != 1 || res[0].Err != nil || res[0].Run.Histogram == nil {
			t.Errorf("results[%d] = %+v, want one successful result", i, res)
		}
	}

	sweep.mu.Lock()
	n := len(sweep.readers)
	sweep.mu.Unlock()
	if n != 1 {
		t.Errorf("sweep cached %d readers for one path, want 1", n)
	}
}
