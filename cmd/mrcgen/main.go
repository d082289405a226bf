// Command mrcgen drives one reuse-distance estimator over a trace file and
// emits a histogram and miss ratio curve.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	mrc "github.com/thedavidchu/masc-thesis"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	opts, code := parseFlags(args, errOut)
	if code >= 0 {
		return code
	}

	log := slog.New(slog.NewTextHandler(errOut, nil))

	alg, err := mrc.ParseAlgorithm(opts.algorithm)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	reader, err := mrc.OpenTraceReader(opts.tracePath, opts.format)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer func() { _ = reader.Close() }()

	estOpts := []mrc.Option{
		mrc.WithNumBins(opts.numBins),
		mrc.WithBinSize(opts.binSize),
		mrc.WithSamplingRate(opts.samplingRate),
		mrc.WithMaxSize(opts.maxSize),
		mrc.WithOutOfBoundsMode(opts.outOfBounds),
		mrc.WithShardsAdj(opts.shardsAdj),
	}

	est, err := mrc.New(alg, estOpts...)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	runner := mrc.NewTraceRunner(est, log, mrc.RunnerOptions{
		LogEvery: opts.logEvery,
		HistPath: opts.histPath,
		MRCPath:  opts.mrcPath,
	})

	result, err := runner.Run(reader)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	fmt.Fprintf(out, "records=%d access=%s post_process=%s histogram=%s\n",
		result.RecordsProcessed, result.AccessDuration, result.PostProcessDur, result.HistogramDur)

	return 0
}

type cliOptions struct {
	algorithm    string
	tracePath    string
	format       mrc.TraceFormat
	numBins      uint64
	binSize      uint64
	samplingRate float64
	maxSize      uint64
	outOfBounds  mrc.OutOfBoundsMode
	shardsAdj    mrc.ShardsAdjMode
	histPath     string
	mrcPath      string
	logEvery     uint64
}

// parseFlags parses the §6 CLI surface. Returned code is -1 to continue,
// or a process exit code to return immediately (0 for --help, 1 on error).
func parseFlags(args []string, errOut io.Writer) (cliOptions, int) {
	fs := flag.NewFlagSet("mrcgen", flag.ContinueOnError)
	fs.SetOutput(errOut)

	algorithm := fs.String("algorithm", "Olken", "estimator: Olken, FixedRateSHARDS, FixedSizeSHARDS, EvictingMap")
	tracePath := fs.String("trace", "", "path to the trace file")
	format := fs.String("format", "kia", "trace record layout: kia or sari")
	numBins := fs.Uint64("num-bins", 100, "number of finite histogram buckets")
	binSize := fs.Uint64("bin-size", 1, "width of each histogram bucket")
	samplingRate := fs.Float64("sampling-rate", 1.0, "SHARDS/EvictingMap sampling rate in (0,1]")
	maxSize := fs.Uint64("max-size", 1<<20, "tracked-key cap for size-bounded estimators")
	outOfBounds := fs.String("out-of-bounds", "AllowOverflow", "AllowOverflow or Reject")
	shardsAdj := fs.String("shards-adj", "on", "on or off")
	histPath := fs.String("hist-path", "", "path to persist the sparse histogram")
	mrcPath := fs.String("mrc-path", "", "path to persist the miss ratio curve")
	logEvery := fs.Uint64("log-every", 0, "log progress every N records (0 disables)")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return cliOptions{}, 0
		}
		fmt.Fprintln(errOut, "error:", err)
		return cliOptions{}, 1
	}

	if *tracePath == "" {
		fmt.Fprintln(errOut, "error: --trace is required")
		return cliOptions{}, 1
	}

	traceFormat := mrc.KiaFormat
	if *format == "sari" {
		traceFormat = mrc.SariFormat
	} else if *format != "kia" {
		fmt.Fprintf(errOut, "error: unknown --format %q\n", *format)
		return cliOptions{}, 1
	}

	oob := mrc.AllowOverflow
	if *outOfBounds == "Reject" {
		oob = mrc.Reject
	} else if *outOfBounds != "AllowOverflow" {
		fmt.Fprintf(errOut, "error: unknown --out-of-bounds %q\n", *outOfBounds)
		return cliOptions{}, 1
	}

	adj := mrc.ShardsAdjOn
	if *shardsAdj == "off" {
		adj = mrc.ShardsAdjOff
	} else if *shardsAdj != "on" {
		fmt.Fprintf(errOut, "error: unknown --shards-adj %q\n", *shardsAdj)
		return cliOptions{}, 1
	}

	return cliOptions{
		algorithm:    *algorithm,
		tracePath:    *tracePath,
		format:       traceFormat,
		numBins:      *numBins,
		binSize:      *binSize,
		samplingRate: *samplingRate,
		maxSize:      *maxSize,
		outOfBounds:  oob,
		shardsAdj:    adj,
		histPath:     *histPath,
		mrcPath:      *mrcPath,
		logEvery:     *logEvery,
	}, -1
}
