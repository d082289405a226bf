package mrc

import "errors"

// Sentinel errors shared across this package's error kinds. Wrap with
// fmt.Errorf("...: %w", err) at call sites so callers can branch with
// errors.Is while still getting a human-readable message.
var (
	// ErrInvalidArgument is returned at init time: zero bin count or
	// bin-size, a sampling rate outside (0,1], an unknown algorithm, or an
	// unparseable config file.
	ErrInvalidArgument = errors.New("mrc: invalid argument")

	// ErrAllocationFailure names the allocation-failure error kind. No
	// function in this package returns it: Access does not detect
	// allocation failure in the order-statistic tree or key index.
	ErrAllocationFailure = errors.New("mrc: allocation failure")

	// ErrHistogramOverflow is returned by a scaled-finite insert that
	// would exceed the histogram's range while in REJECT mode.
	ErrHistogramOverflow = errors.New("mrc: histogram overflow")

	// ErrIOFailure is returned by persistence operations. Logged as a
	// warning by callers; never aborts a run in progress.
	ErrIOFailure = errors.New("mrc: io failure")

	// ErrCorruptedState is returned when a loaded dense histogram or MRC
	// file is malformed, and by TraceRunner.Run when an estimator returns
	// a nil histogram. Histogram.Validate reports a running-sum mismatch
	// as a bool instead of returning this error.
	ErrCorruptedState = errors.New("mrc: corrupted state")
)
