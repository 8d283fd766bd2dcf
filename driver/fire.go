package driver

import (
	"github.com/RuiFG/streaming/common/mtime"
	"github.com/RuiFG/streaming/element"
	"github.com/RuiFG/streaming/store"
	"github.com/RuiFG/streaming/timer"
	"github.com/pkg/errors"
)

// maybeFire emits a pane for the entry if its trigger is ready.
func (d *Driver[K, V, A, O]) maybeFire(key K, e *store.Entry[A], ctx *windowContext[K]) error {
	if !d.tree.ShouldFire(ctx, e.Trigger) {
		return nil
	}
	timing := d.timing(e, ctx.watermark)
	if err := d.tree.OnFire(ctx, e.Trigger); err != nil {
		return err
	}
	finished := d.tree.IsFinished(e.Trigger)
	err := d.emit(key, e, timing, finished)
	if finished {
		d.closeEntry(key, e)
	}
	return err
}

// timing classifies the next pane of e at the given watermark.
func (d *Driver[K, V, A, O]) timing(e *store.Entry[A], watermark mtime.Time) element.Timing {
	switch {
	case watermark < e.Window.MaxTimestamp():
		return element.Early
	case !e.Pane.OnTimeEmitted:
		return element.OnTime
	default:
		return element.Late
	}
}

// hasContent reports whether a pane of e would carry elements.
func (d *Driver[K, V, A, O]) hasContent(e *store.Entry[A]) bool {
	if d.accumulationMode == Accumulating {
		return e.Pane.Elements > 0
	}
	return e.Pane.Pending > 0
}

// emit hands the pane of e to the sink unless it is an empty pane nobody asked for.
func (d *Driver[K, V, A, O]) emit(key K, e *store.Entry[A], timing element.Timing, isLast bool) error {
	if !d.hasContent(e) &&
		!(timing == element.OnTime && d.onTimeBehavior == FireAlways) &&
		!(isLast && d.closingBehavior == FireAlways) {
		return nil
	}

	pane := element.Pane{
		IsFirst:             e.Pane.Emitted == 0,
		IsLast:              isLast,
		Timing:              timing,
		Index:               e.Pane.Emitted,
		NonSpeculativeIndex: -1,
	}
	if timing != element.Early {
		pane.NonSpeculativeIndex = e.Pane.NonSpeculative
	}
	if pane.Index != e.Pane.LastIndex+1 {
		return errors.WithMessagef(ErrIndexRegression, "key %v window %v: pane %d after %d",
			key, e.Window, pane.Index, e.Pane.LastIndex)
	}

	acc := e.Accumulator
	if !e.HasAccumulator {
		acc = d.combineFn.CreateAccumulator()
	}
	out := element.Output[K, O]{
		Key:    key,
		Window: e.Window,
		Pane:   pane,
		Value:  d.combineFn.ExtractOutput(acc),
	}

	e.Pane.Emitted++
	e.Pane.LastIndex = pane.Index
	e.Pane.Pending = 0
	if timing != element.Early {
		e.Pane.NonSpeculative++
	}
	if timing == element.OnTime {
		e.Pane.OnTimeEmitted = true
	}
	if d.accumulationMode == Discarding {
		d.clearAccumulator(e)
	}
	d.metrics.PaneEmitted(timing)

	if err := d.sink.Emit(out); err != nil {
		return errors.WithMessagef(err, "emit %v of key %v window %v", pane, key, e.Window)
	}
	return nil
}

// closeEntry keeps only what is needed to recognise late elements of a finished window.
func (d *Driver[K, V, A, O]) closeEntry(key K, e *store.Entry[A]) {
	d.clearAccumulator(e)
	e.Pane.Pending = 0
	for _, t := range d.timers.Timers(key, e.Window) {
		if t.Purpose != timer.GarbageCollection {
			d.timers.Delete(t)
		}
	}
}

func (d *Driver[K, V, A, O]) clearAccumulator(e *store.Entry[A]) {
	var zero A
	e.Accumulator = zero
	e.HasAccumulator = false
}
