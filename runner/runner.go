// Package runner hosts one driver per shard, each owned by its own goroutine.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/RuiFG/streaming/common/executor"
	"github.com/RuiFG/streaming/common/mtime"
	"github.com/RuiFG/streaming/common/safe"
	"github.com/RuiFG/streaming/common/status"
	"github.com/RuiFG/streaming/driver"
	"github.com/RuiFG/streaming/element"
	"github.com/RuiFG/streaming/log"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotRunning = errors.New("runner is not running")
	ErrStopped    = errors.New("runner stopped")
)

type shard[K comparable, V, A, O any] struct {
	id     int
	driver *driver.Driver[K, V, A, O]
	tasks  chan *executor.Executor
}

func (s *shard[K, V, A, O]) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ex := <-s.tasks:
			ex.Exec()
		}
	}
}

// Runner routes every key to the same shard, so each key is evaluated by exactly
// one goroutine. Watermarks and processing time are broadcast to all shards.
type Runner[K comparable, V, A, O any] struct {
	shards       []*shard[K, V, A, O]
	tickInterval time.Duration
	logger       log.Logger

	status    status.Holder
	processed atomic.Int64
	ctx       context.Context
	cancel    context.CancelFunc
	group     *errgroup.Group
}

// New builds one driver per shard with factory. Drivers of different shards may
// share a sink only if it is safe for concurrent use.
func New[K comparable, V, A, O any](factory func(shard int) (*driver.Driver[K, V, A, O], error),
	withOptionsFns ...WithOptions) (*Runner[K, V, A, O], error) {
	if factory == nil {
		return nil, errors.Errorf("driver factory can't be nil")
	}
	o := &options{shards: 1, queueSize: 64}
	for _, withOptionsFn := range withOptionsFns {
		if err := withOptionsFn(o); err != nil {
			return nil, errors.WithMessage(err, "illegal parameter")
		}
	}
	if o.logger == nil {
		o.logger = log.Global().Named("runner")
	}
	r := &Runner[K, V, A, O]{tickInterval: o.tickInterval, logger: o.logger}
	for i := 0; i < o.shards; i++ {
		d, err := factory(i)
		if err != nil {
			err = errors.WithMessagef(err, "create driver of shard %d", i)
			for _, s := range r.shards {
				err = multierr.Append(err, s.driver.Close())
			}
			return nil, err
		}
		r.shards = append(r.shards, &shard[K, V, A, O]{id: i, driver: d, tasks: make(chan *executor.Executor, o.queueSize)})
	}
	return r, nil
}

// Start launches the shard goroutines and, if configured, the processing time ticker.
// It must return before any other method is called.
func (r *Runner[K, V, A, O]) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)
	if r.status.Load() != status.Ready {
		cancel()
		return errors.Errorf("runner can't start from %v", r.status.Load())
	}
	r.ctx, r.cancel, r.group = ctx, cancel, group
	r.status.Store(status.Running)
	for _, s := range r.shards {
		s := s
		r.group.Go(func() error {
			return s.loop(r.ctx)
		})
	}
	if r.tickInterval > 0 {
		r.group.Go(r.tick)
	}
	r.logger.Infow("runner started", "shards", len(r.shards), "tick", r.tickInterval)
	return nil
}

func (r *Runner[K, V, A, O]) tick() error {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.broadcast(func(d *driver.Driver[K, V, A, O]) error {
				return d.Tick()
			}); err != nil && !errors.Is(err, ErrStopped) {
				r.logger.Warnw("processing time tick failed", "err", err)
			}
		}
	}
}

// ProcessElement evaluates e on the shard owning its key and waits for the result.
func (r *Runner[K, V, A, O]) ProcessElement(e element.Event[K, V]) error {
	switch r.status.Load() {
	case status.Running:
	case status.Draining:
		return driver.ErrDraining
	default:
		return ErrNotRunning
	}
	s := r.shards[r.shardOf(e.Key)]
	ex, err := r.enqueue(s, func() error {
		return s.driver.ProcessElement(e)
	})
	if err != nil {
		return err
	}
	r.processed.Inc()
	return r.wait(ex)
}

func (r *Runner[K, V, A, O]) AdvanceWatermark(watermark mtime.Time) error {
	return r.broadcast(func(d *driver.Driver[K, V, A, O]) error {
		return d.AdvanceWatermark(watermark)
	})
}

func (r *Runner[K, V, A, O]) AdvanceProcessingTime(now mtime.Time) error {
	return r.broadcast(func(d *driver.Driver[K, V, A, O]) error {
		return d.AdvanceProcessingTime(now)
	})
}

// Drain emits the final panes of every shard; the runner keeps running but takes no elements.
func (r *Runner[K, V, A, O]) Drain() error {
	if !r.status.CAS(status.Running, status.Draining) {
		return errors.Errorf("runner can't drain from %v", r.status.Load())
	}
	err := r.broadcast(func(d *driver.Driver[K, V, A, O]) error {
		return d.Drain()
	})
	r.logger.Infow("runner drained", "processed", r.processed.Load(), "err", err)
	return err
}

// Stop terminates the shard goroutines without draining and closes every driver.
func (r *Runner[K, V, A, O]) Stop() error {
	previous := r.status.Load()
	if previous == status.Closed {
		return nil
	}
	r.status.Store(status.Closed)
	var err error
	if previous != status.Ready {
		r.cancel()
		err = r.group.Wait()
	}
	for _, s := range r.shards {
		err = multierr.Append(err, s.driver.Close())
	}
	r.logger.Infow("runner stopped", "processed", r.processed.Load())
	return err
}

// Processed counts the elements handed to shards.
func (r *Runner[K, V, A, O]) Processed() int64 {
	return r.processed.Load()
}

func (r *Runner[K, V, A, O]) shardOf(key K) int {
	return int(hashKey(key) % uint64(len(r.shards)))
}

func hashKey[K comparable](key K) uint64 {
	if s, ok := any(key).(string); ok {
		return xxhash.Sum64String(s)
	}
	return xxhash.Sum64String(fmt.Sprint(key))
}

func (r *Runner[K, V, A, O]) broadcast(fn func(d *driver.Driver[K, V, A, O]) error) error {
	if s := r.status.Load(); s != status.Running && s != status.Draining {
		return ErrNotRunning
	}
	var (
		errs      error
		executors []*executor.Executor
	)
	for _, s := range r.shards {
		s := s
		ex, err := r.enqueue(s, func() error {
			return fn(s.driver)
		})
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		executors = append(executors, ex)
	}
	for _, ex := range executors {
		errs = multierr.Append(errs, r.wait(ex))
	}
	return errs
}

func (r *Runner[K, V, A, O]) enqueue(s *shard[K, V, A, O], fn func() error) (*executor.Executor, error) {
	ex := executor.NewExecutor(func() error {
		return errors.WithMessagef(safe.Run(fn), "shard %d", s.id)
	})
	select {
	case s.tasks <- ex:
		return ex, nil
	case <-r.ctx.Done():
		return nil, ErrStopped
	}
}

func (r *Runner[K, V, A, O]) wait(ex *executor.Executor) error {
	select {
	case <-ex.Done():
		return ex.Err()
	case <-r.ctx.Done():
		if ex.Cancel() {
			return ErrStopped
		}
		<-ex.Done()
		return ex.Err()
	}
}
