package mrc

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// ShardsAdjMode controls whether Fixed-Rate/Fixed-Size SHARDS apply the
// end-of-trace histogram correction.
type ShardsAdjMode int

const (
	// ShardsAdjOn applies the SHARDS-Adj correction. Default.
	ShardsAdjOn ShardsAdjMode = iota
	// ShardsAdjOff skips it.
	ShardsAdjOff
)

// config holds the parameters shared by every estimator constructor, built
// with the functional-options (Option/With*) pattern.
type config struct {
	numBins      uint64
	binSize      uint64
	samplingRate float64
	maxSize      uint64
	outOfBounds  OutOfBoundsMode
	shardsAdj    ShardsAdjMode
}

func defaultConfig() *config {
	return &config{
		numBins:      100,
		binSize:      1,
		samplingRate: 1.0,
		maxSize:      1 << 20,
		outOfBounds:  AllowOverflow,
		shardsAdj:    ShardsAdjOn,
	}
}

func (c *config) validate() error {
	if c.numBins == 0 || c.binSize == 0 {
		return fmt.Errorf("numBins=%d binSize=%d: %w", c.numBins, c.binSize, ErrInvalidArgument)
	}
	if c.samplingRate <= 0 || c.samplingRate > 1 {
		return fmt.Errorf("samplingRate=%v must be in (0,1]: %w", c.samplingRate, ErrInvalidArgument)
	}
	return nil
}

// Option configures an estimator at construction time.
type Option func(*config)

// WithNumBins sets the number of finite histogram buckets.
func WithNumBins(n uint64) Option { return func(c *config) { c.numBins = n } }

// WithBinSize sets the width of each histogram bucket.
func WithBinSize(n uint64) Option { return func(c *config) { c.binSize = n } }

// WithSamplingRate sets the SHARDS/Evicting-Map sampling rate r in (0,1].
func WithSamplingRate(r float64) Option { return func(c *config) { c.samplingRate = r } }

// WithMaxSize sets the maximum tracked-key cardinality for Fixed-Size
// SHARDS, or the slot count for the Evicting Map.
func WithMaxSize(n uint64) Option { return func(c *config) { c.maxSize = n } }

// WithOutOfBoundsMode sets the histogram's behavior on a finite insert
// that exceeds its tracked range.
func WithOutOfBoundsMode(m OutOfBoundsMode) Option { return func(c *config) { c.outOfBounds = m } }

// WithShardsAdj toggles the end-of-trace SHARDS-Adj correction.
func WithShardsAdj(m ShardsAdjMode) Option { return func(c *config) { c.shardsAdj = m } }

// fileConfig is the on-disk shape for an optional lenient JSON config file
// (e.g. mrcgen.jsonc), parsed with tailscale/hujson so a commented,
// human-edited file is accepted. The loader is package-internal;
// cmd/mrcgen takes its settings from flags only and reads no config file.
type fileConfig struct {
	Algorithm    string  `json:"algorithm,omitempty"`
	NumBins      uint64  `json:"num_bins,omitempty"`
	BinSize      uint64  `json:"bin_size,omitempty"`
	SamplingRate float64 `json:"sampling_rate,omitempty"`
	MaxSize      uint64  `json:"max_size,omitempty"`
	OutOfBounds  string  `json:"out_of_bounds,omitempty"`
	ShardsAdj    string  `json:"shards_adj,omitempty"`
	HistPath     string  `json:"hist_path,omitempty"`
	MRCPath      string  `json:"mrc_path,omitempty"`
}

// loadFileConfig reads a lenient (hujson) JSON config file: comments and
// trailing commas are allowed, standardized away before unmarshaling.
func loadFileConfig(path string) (*fileConfig, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, ErrIOFailure)
	}
	std, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, ErrInvalidArgument)
	}
	var fc fileConfig
	if err := json.Unmarshal(std, &fc); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, ErrInvalidArgument)
	}
	return &fc, nil
}

// Options builds the functional-option slice implied by a loaded file
// config, letting CLI flags (applied afterward by the caller) override it.
func (fc *fileConfig) Options() []Option {
	var opts []Option
	if fc.NumBins > 0 {
		opts = append(opts, WithNumBins(fc.NumBins))
	}
	if fc.BinSize > 0 {
		opts = append(opts, WithBinSize(fc.BinSize))
	}
	if fc.SamplingRate > 0 {
		opts = append(opts, WithSamplingRate(fc.SamplingRate))
	}
	if fc.MaxSize > 0 {
		opts = append(opts, WithMaxSize(fc.MaxSize))
	}
	if fc.OutOfBounds == "Reject" {
		opts = append(opts, WithOutOfBoundsMode(Reject))
	}
	if fc.ShardsAdj == "off" {
		opts = append(opts, WithShardsAdj(ShardsAdjOff))
	}
	return opts
}
