// Package driver evaluates windows and triggers for a keyed stream and emits panes.
package driver

import (
	"time"

	"github.com/RuiFG/streaming/combine"
	"github.com/RuiFG/streaming/common/mtime"
	"github.com/RuiFG/streaming/element"
	"github.com/RuiFG/streaming/log"
	"github.com/RuiFG/streaming/metrics"
	"github.com/RuiFG/streaming/store"
	"github.com/RuiFG/streaming/timer"
	"github.com/RuiFG/streaming/trigger"
	"github.com/RuiFG/streaming/window"
	"github.com/pkg/errors"
)

// Driver is not safe for concurrent use; the host serialises every call.
type Driver[K comparable, V, A, O any] struct {
	windowFn  *window.Fn
	combineFn combine.Fn[V, A, O]
	sink      element.Collector[K, O]
	tree      *trigger.Tree

	allowedLateness  time.Duration
	accumulationMode AccumulationMode
	onTimeBehavior   Behavior
	closingBehavior  Behavior

	store   store.Store[K, A]
	timers  *timer.Service[K]
	clock   timer.Clock
	logger  log.Logger
	metrics *metrics.Metrics

	watermark      mtime.Time
	processingTime mtime.Time
	fatal          error
	failed         map[K]error
	draining       bool
}

func New[K comparable, V, A, O any](windowFn *window.Fn, combineFn combine.Fn[V, A, O], sink element.Collector[K, O],
	withOptionsFns ...WithOptions) (*Driver[K, V, A, O], error) {
	if windowFn == nil {
		return nil, errors.Errorf("window fn can't be nil")
	}
	if err := windowFn.Validate(); err != nil {
		return nil, err
	}
	if combineFn == nil {
		return nil, errors.Errorf("combine fn can't be nil")
	}
	if sink == nil {
		return nil, errors.Errorf("sink can't be nil")
	}
	o := defaultOptions()
	for _, withOptionsFn := range withOptionsFns {
		if err := withOptionsFn(o); err != nil {
			return nil, errors.WithMessage(err, "illegal parameter")
		}
	}
	tree, err := trigger.Build(o.trigger)
	if err != nil {
		return nil, err
	}

	var s store.Store[K, A]
	if o.store == nil {
		s = store.NewMemory[K, A]()
	} else if typed, ok := o.store.(store.Store[K, A]); ok {
		s = typed
	} else {
		return nil, errors.Errorf("store %T does not hold the key and accumulator types of the driver", o.store)
	}
	if o.logger == nil {
		o.logger = log.Global().Named("driver")
	}
	if o.metrics == nil {
		o.metrics = metrics.New(nil)
	}

	d := &Driver[K, V, A, O]{
		windowFn:         windowFn,
		combineFn:        combineFn,
		sink:             sink,
		tree:             tree,
		allowedLateness:  o.allowedLateness,
		accumulationMode: o.accumulationMode,
		onTimeBehavior:   o.onTimeBehavior,
		closingBehavior:  o.closingBehavior,
		store:            s,
		timers:           timer.NewService[K](),
		clock:            o.clock,
		logger:           o.logger,
		metrics:          o.metrics,
		watermark:        mtime.MinTimestamp,
		processingTime:   o.clock.Now(),
		failed:           map[K]error{},
	}
	d.restoreTimers()
	return d, nil
}

// restoreTimers registers the timers of entries the injected store already held,
// which is the case for a store reopened from disk.
func (d *Driver[K, V, A, O]) restoreTimers() {
	restored := 0
	d.store.Range(func(key K, e *store.Entry[A]) bool {
		d.setWindowTimers(key, e.Window)
		if !d.tree.IsFinished(e.Trigger) {
			for _, s := range e.Trigger {
				if s.Pending {
					d.context(key, e.Window).SetProcessingTimer(s.FireAt)
				}
			}
		}
		restored++
		return true
	})
	if restored > 0 {
		d.logger.Infow("restored window timers", "entries", restored)
	}
}

func (d *Driver[K, V, A, O]) Watermark() mtime.Time {
	return d.watermark
}

func (d *Driver[K, V, A, O]) ProcessingTime() mtime.Time {
	return d.processingTime
}

// Trigger returns the compiled trigger tree evaluated for every window.
func (d *Driver[K, V, A, O]) Trigger() *trigger.Tree {
	return d.tree
}

// Close releases the store. Pending windows are not emitted; use Drain for that.
func (d *Driver[K, V, A, O]) Close() error {
	return d.store.Close()
}

func (d *Driver[K, V, A, O]) context(key K, w window.Window) *windowContext[K] {
	return &windowContext[K]{
		key:            key,
		window:         w,
		watermark:      d.watermark,
		processingTime: d.processingTime,
		timers:         d.timers,
	}
}

// check returns the error every call for key must fail with, if any.
func (d *Driver[K, V, A, O]) check(key K) error {
	if d.fatal != nil {
		return d.fatal
	}
	if d.draining {
		return ErrDraining
	}
	if cause, ok := d.failed[key]; ok {
		return errors.WithMessagef(ErrKeyFailed, "key %v: %v", key, cause)
	}
	return nil
}

// fail marks key as failed when err is an invariant violation and returns err.
func (d *Driver[K, V, A, O]) fail(key K, err error) error {
	if err == nil || !isInvariantViolation(err) {
		return err
	}
	if _, ok := d.failed[key]; !ok {
		d.failed[key] = err
		d.metrics.KeysFailed.Inc(1)
		d.logger.Warnw("key failed", "key", key, "err", err)
	}
	return err
}

// gcTime is the moment the state of w is garbage collected, saturating at the end of time.
func (d *Driver[K, V, A, O]) gcTime(w window.Window) mtime.Time {
	return w.MaxTimestamp().Add(d.allowedLateness)
}

// createEntry stores e and registers its timers.
func (d *Driver[K, V, A, O]) createEntry(key K, e *store.Entry[A]) error {
	if err := d.store.Create(key, e); err != nil {
		return err
	}
	d.setWindowTimers(key, e.Window)
	d.metrics.WindowsCreated.Inc(1)
	return nil
}

// setWindowTimers registers the garbage collection timer of (key, w) and, while the
// watermark has not passed the end of w, its end of window timer.
func (d *Driver[K, V, A, O]) setWindowTimers(key K, w window.Window) {
	d.timers.Set(timer.Timer[K]{
		Key:       key,
		Window:    w,
		Domain:    timer.EventTime,
		Timestamp: d.gcTime(w),
		Purpose:   timer.GarbageCollection,
	})
	if d.watermark < w.MaxTimestamp() {
		d.timers.Set(timer.Timer[K]{
			Key:       key,
			Window:    w,
			Domain:    timer.EventTime,
			Timestamp: w.MaxTimestamp(),
			Purpose:   timer.UserTrigger,
		})
	}
}

// deleteEntry drops every timer and the stored state of (key, w).
func (d *Driver[K, V, A, O]) deleteEntry(key K, w window.Window) error {
	d.timers.DeleteAll(key, w)
	return d.store.Delete(key, w)
}
