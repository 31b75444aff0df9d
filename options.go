package venom

import (
	"time"

	"github.com/venomqa/venomqa/emit"
)

// Options is an Agent's resolved configuration. NewAgent builds it by
// applying Option functions over the defaults; NewAgent does not accept an
// Options struct directly.
type Options struct {
	MaxSteps             int
	CoverageTarget        float64
	Shrink               bool
	StopOnFirstViolation bool
	ProgressEvery        int
	Seed                 int64
	WallClockBudget      time.Duration
	Emitter              emit.Emitter
	Metrics              *Metrics
}

// Option mutates an agentConfig at Agent construction time, mirroring the
// teacher's Option func(*engineConfig) error shape.
type Option func(*agentConfig) error

type agentConfig struct {
	opts Options
}

func defaultOptions() Options {
	return Options{
		MaxSteps:      1000,
		CoverageTarget: 1.0,
		ProgressEvery:  0,
		Seed:           1,
		Emitter:        emit.NewNullEmitter(),
	}
}

// WithMaxSteps sets the hard upper bound on transitions (spec.md §4.4).
func WithMaxSteps(n int) Option {
	return func(c *agentConfig) error {
		if n <= 0 {
			return &ConfigError{Message: "max_steps must be positive", Code: "INVALID_MAX_STEPS"}
		}
		c.opts.MaxSteps = n
		return nil
	}
}

// WithCoverageTarget sets the fraction of actions_total that must be used
// before the Agent stops on coverage grounds (spec.md §4.4).
func WithCoverageTarget(target float64) Option {
	return func(c *agentConfig) error {
		if target < 0 || target > 1 {
			return &ConfigError{Message: "coverage_target must be in [0, 1]", Code: "INVALID_COVERAGE_TARGET"}
		}
		c.opts.CoverageTarget = target
		return nil
	}
}

// WithShrink enables post-exploration shrinking of violating reproduction
// paths (spec.md §4.7).
func WithShrink(enabled bool) Option {
	return func(c *agentConfig) error {
		c.opts.Shrink = enabled
		return nil
	}
}

// WithStopOnFirstViolation halts exploration as soon as any violation is
// recorded (spec.md §4.4).
func WithStopOnFirstViolation(enabled bool) Option {
	return func(c *agentConfig) error {
		c.opts.StopOnFirstViolation = enabled
		return nil
	}
}

// WithProgressEvery enables a progress record every n steps (spec.md §6.5).
func WithProgressEvery(n int) Option {
	return func(c *agentConfig) error {
		c.opts.ProgressEvery = n
		return nil
	}
}

// WithSeed sets Options.Seed. No strategy reads it: RandomStrategy draws
// from the seed passed to NewRandomStrategy, whatever this option says.
func WithSeed(seed int64) Option {
	return func(c *agentConfig) error {
		c.opts.Seed = seed
		return nil
	}
}

// WithWallClockBudget sets a whole-exploration deadline (spec.md §5).
func WithWallClockBudget(d time.Duration) Option {
	return func(c *agentConfig) error {
		c.opts.WallClockBudget = d
		return nil
	}
}

// WithEmitter attaches an observability sink (spec.md §A.1).
func WithEmitter(e emit.Emitter) Option {
	return func(c *agentConfig) error {
		c.opts.Emitter = e
		return nil
	}
}

// WithMetrics attaches a Prometheus metrics recorder.
func WithMetrics(m *Metrics) Option {
	return func(c *agentConfig) error {
		c.opts.Metrics = m
		return nil
	}
}

// resolveOptions applies base (a plain Options struct, possibly zero) then
// every functional Option in order, matching the teacher's New(...) which
// accepts both forms.
func resolveOptions(base Options, opts ...Option) (Options, error) {
	cfg := &agentConfig{opts: base}
	if cfg.opts.MaxSteps == 0 {
		cfg.opts.MaxSteps = defaultOptions().MaxSteps
	}
	if cfg.opts.CoverageTarget == 0 {
		cfg.opts.CoverageTarget = defaultOptions().CoverageTarget
	}
	if cfg.opts.Seed == 0 {
		cfg.opts.Seed = defaultOptions().Seed
	}
	if cfg.opts.Emitter == nil {
		cfg.opts.Emitter = defaultOptions().Emitter
	}

	for _, o := range opts {
		if err := o(cfg); err != nil {
			return Options{}, err
		}
	}
	return cfg.opts, nil
}
