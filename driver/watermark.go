package driver

import (
	"github.com/RuiFG/streaming/common/mtime"
	"github.com/RuiFG/streaming/timer"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// AdvanceWatermark moves event time forward to watermark and fires every event
// time timer due by then. A watermark older than the current one is fatal.
func (d *Driver[K, V, A, O]) AdvanceWatermark(watermark mtime.Time) error {
	if d.fatal != nil {
		return d.fatal
	}
	if watermark < d.watermark {
		d.fatal = errors.WithMessagef(ErrWatermarkRegression, "from %v to %v", d.watermark, watermark)
		d.logger.Errorw("watermark regression", "current", d.watermark, "watermark", watermark)
		return d.fatal
	}
	d.watermark = watermark
	return d.fireTimers(timer.EventTime, watermark)
}

// AdvanceProcessingTime moves processing time forward to now and fires every
// processing time timer due by then. An older now is ignored.
func (d *Driver[K, V, A, O]) AdvanceProcessingTime(now mtime.Time) error {
	if d.fatal != nil {
		return d.fatal
	}
	if now < d.processingTime {
		return nil
	}
	d.processingTime = now
	return d.fireTimers(timer.ProcessingTime, now)
}

// Tick advances processing time to the driver's clock.
func (d *Driver[K, V, A, O]) Tick() error {
	return d.AdvanceProcessingTime(d.clock.Now())
}

func (d *Driver[K, V, A, O]) fireTimers(domain timer.Domain, upTo mtime.Time) error {
	var errs error
	for {
		t, ok := d.timers.PopDue(domain, upTo)
		if !ok {
			return errs
		}
		errs = multierr.Append(errs, d.onTimer(t))
	}
}

func (d *Driver[K, V, A, O]) onTimer(t timer.Timer[K]) error {
	if _, failed := d.failed[t.Key]; failed {
		d.logger.Warnw("skip timer of failed key", "timer", t)
		return nil
	}
	e, ok := d.store.Lookup(t.Key, t.Window)
	if !ok {
		d.logger.Warnw("skip stale timer", "timer", t)
		return nil
	}
	d.metrics.TimerFired(t.Domain)
	if t.Purpose == timer.GarbageCollection {
		return d.fail(t.Key, d.collect(t.Key, e))
	}
	if d.tree.IsFinished(e.Trigger) {
		return nil
	}
	if err := d.maybeFire(t.Key, e, d.context(t.Key, t.Window)); err != nil {
		return d.fail(t.Key, err)
	}
	return d.store.Put(t.Key, e)
}
