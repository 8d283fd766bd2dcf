package runner

import (
	"time"

	"github.com/RuiFG/streaming/log"
	"github.com/pkg/errors"
)

type options struct {
	shards       int
	queueSize    int
	tickInterval time.Duration
	logger       log.Logger
}

type WithOptions func(opts *options) error

func WithShards(shards int) WithOptions {
	return func(opts *options) error {
		if shards < 1 {
			return errors.Errorf("shards should be at least 1")
		}
		opts.shards = shards
		return nil
	}
}

func WithQueueSize(queueSize int) WithOptions {
	return func(opts *options) error {
		if queueSize < 0 {
			return errors.Errorf("queueSize can't be less than 0")
		}
		opts.queueSize = queueSize
		return nil
	}
}

// WithTickInterval advances processing time of every shard to its clock at the
// given interval; 0 disables the ticker.
func WithTickInterval(interval time.Duration) WithOptions {
	return func(opts *options) error {
		if interval < 0 {
			return errors.Errorf("tick interval can't be less than 0")
		}
		opts.tickInterval = interval
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
