package driver

import (
	"time"

	"github.com/RuiFG/streaming/log"
	"github.com/RuiFG/streaming/metrics"
	"github.com/RuiFG/streaming/timer"
	"github.com/RuiFG/streaming/trigger"
	"github.com/pkg/errors"
)

// AccumulationMode decides what happens to the accumulator after a pane is emitted.
type AccumulationMode int

const (
	Discarding AccumulationMode = iota
	Accumulating
)

func (m AccumulationMode) String() string {
	if m == Accumulating {
		return "accumulating"
	}
	return "discarding"
}

// Behavior decides whether a pane without new content is still emitted.
type Behavior int

const (
	FireIfNonEmpty Behavior = iota
	FireAlways
)

func (b Behavior) String() string {
	if b == FireAlways {
		return "fire_always"
	}
	return "fire_if_non_empty"
}

type options struct {
	trigger          *trigger.Trigger
	allowedLateness  time.Duration
	accumulationMode AccumulationMode
	onTimeBehavior   Behavior
	closingBehavior  Behavior
	store            any
	clock            timer.Clock
	logger           log.Logger
	metrics          *metrics.Metrics
}

type WithOptions func(opts *options) error

func defaultOptions() *options {
	return &options{
		trigger:          trigger.Default(),
		accumulationMode: Discarding,
		onTimeBehavior:   FireAlways,
		closingBehavior:  FireIfNonEmpty,
		clock:            timer.WallClock{},
	}
}

func WithTrigger(t *trigger.Trigger) WithOptions {
	return func(opts *options) error {
		if t == nil {
			return errors.Errorf("trigger can't be nil")
		}
		opts.trigger = t
		return nil
	}
}

func WithAllowedLateness(allowedLateness time.Duration) WithOptions {
	return func(opts *options) error {
		if allowedLateness < 0 {
			return errors.Errorf("allowedLateness can't be less than 0")
		}
		opts.allowedLateness = allowedLateness
		return nil
	}
}

func WithAccumulationMode(mode AccumulationMode) WithOptions {
	return func(opts *options) error {
		if mode != Discarding && mode != Accumulating {
			return errors.Errorf("unknown accumulation mode %d", mode)
		}
		opts.accumulationMode = mode
		return nil
	}
}

func WithOnTimeBehavior(behavior Behavior) WithOptions {
	return func(opts *options) error {
		if behavior != FireIfNonEmpty && behavior != FireAlways {
			return errors.Errorf("unknown on time behavior %d", behavior)
		}
		opts.onTimeBehavior = behavior
		return nil
	}
}

func WithClosingBehavior(behavior Behavior) WithOptions {
	return func(opts *options) error {
		if behavior != FireIfNonEmpty && behavior != FireAlways {
			return errors.Errorf("unknown closing behavior %d", behavior)
		}
		opts.closingBehavior = behavior
		return nil
	}
}

// WithStore injects the state store. s must be a store.Store[K, A] with the
// key and accumulator types of the driver; New rejects anything else.
func WithStore(s any) WithOptions {
	return func(opts *options) error {
		if s == nil {
			return errors.Errorf("store can't be nil")
		}
		opts.store = s
		return nil
	}
}

func WithClock(clock timer.Clock) WithOptions {
	return func(opts *options) error {
		if clock == nil {
			return errors.Errorf("clock can't be nil")
		}
		opts.clock = clock
		return nil
	}
}

func WithLogger(logger log.Logger) WithOptions {
	return func(opts *options) error {
		if logger == nil {
			return errors.Errorf("logger can't be nil")
		}
		opts.logger = logger
		return nil
	}
}

func WithMetrics(m *metrics.Metrics) WithOptions {
	return func(opts *options) error {
		if m == nil {
			return errors.Errorf("metrics can't be nil")
		}
		opts.metrics = m
		return nil
	}
}
