package mrc

import (
	"fmt"
	"log/slog"
	"time"
)

// RunnerOptions configures a TraceRunner pass over a trace.
type RunnerOptions struct {
	// LogEvery reports progress every N records at slog.LevelDebug. Zero
	// disables progress logging.
	LogEvery uint64
	// HistPath, if non-empty, persists the sparse histogram after the run.
	HistPath string
	// MRCPath, if non-empty, persists the MRC after the run.
	MRCPath string
}

// RunResult reports the timing and output of one TraceRunner pass.
type RunResult struct {
	RecordsProcessed uint64
	AccessDuration   time.Duration
	PostProcessDur   time.Duration
	HistogramDur     time.Duration
	Histogram        *Histogram
	MRC              MissRateCurve
}

// TraceRunner drives one Estimator over one trace: a generic driver
// parameterized only by the Estimator capability set, with no
// algorithm-specific knowledge. It logs a warning on a non-fatal
// (IOFailure) error rather than aborting the run.
type TraceRunner struct {
	estimator Estimator
	log       *slog.Logger
	opts      RunnerOptions
}

// NewTraceRunner constructs a runner over an already-built estimator. The
// runner does not own est's config, only its lifecycle during Run.
func NewTraceRunner(est Estimator, log *slog.Logger, opts RunnerOptions) *TraceRunner {
	if log == nil {
		log = slog.Default()
	}
	return &TraceRunner{estimator: est, log: log, opts: opts}
}

// Run accesses every record, post-processes, fetches the histogram,
// converts it to an MRC, optionally persists both, then destroys the
// estimator. An Access failure is not logged per record; it aborts the
// access phase and is returned directly. A PostProcess failure is logged
// and the run still proceeds to MRC emission. A failed Histogram aborts
// MRC emission but not cleanup.
func (r *TraceRunner) Run(reader *TraceReader) (RunResult, error) {
	defer r.estimator.Close()

	var result RunResult

	accessStart := time.Now()
	for i, rec := range reader.All() {
		if err := r.estimator.Access(rec.Key); err != nil {
			return result, fmt.Errorf("access record %d: %w", i, err)
		}
		result.RecordsProcessed++
		if r.opts.LogEvery > 0 && result.RecordsProcessed%r.opts.LogEvery == 0 {
			r.log.Debug("trace progress", "records", result.RecordsProcessed)
		}
	}
	result.AccessDuration = time.Since(accessStart)

	postStart := time.Now()
	if err := r.estimator.PostProcess(); err != nil {
		r.log.Warn("post-process failed", "error", err)
	}
	result.PostProcessDur = time.Since(postStart)

	histStart := time.Now()
	hist := r.estimator.Histogram()
	if hist == nil {
		return result, fmt.Errorf("estimator returned nil histogram: %w", ErrCorruptedState)
	}
	result.Histogram = hist
	result.MRC = NewMissRateCurve(hist)
	result.HistogramDur = time.Since(histStart)

	r.persist(hist, result.MRC)

	return result, nil
}

// persist writes the histogram and MRC to disk if configured, logging (not
// failing) on error — a logged warning never aborts the run.
func (r *TraceRunner) persist(hist *Histogram, mrc MissRateCurve) {
	if r.opts.HistPath != "" {
		if err := hist.SaveSparse(r.opts.HistPath); err != nil {
			r.log.Warn("histogram persistence failed", "path", r.opts.HistPath, "error", err)
		}
	}
	if r.opts.MRCPath != "" {
		if err := mrc.SaveMRC(r.opts.MRCPath); err != nil {
			r.log.Warn("mrc persistence failed", "path", r.opts.MRCPath, "error", err)
		}
	}
}
