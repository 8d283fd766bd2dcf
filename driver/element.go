package driver

import (
	"github.com/RuiFG/streaming/element"
	"github.com/RuiFG/streaming/metrics"
	"github.com/RuiFG/streaming/store"
	"github.com/RuiFG/streaming/window"
)

// ProcessElement assigns e to its windows, accumulates it and emits every pane
// whose trigger becomes ready.
func (d *Driver[K, V, A, O]) ProcessElement(e element.Event[K, V]) error {
	if err := d.check(e.Key); err != nil {
		return err
	}
	d.metrics.ElementsProcessed.Inc(1)
	windows := d.dropExpired(e, d.windowFn.AssignWindows(e.Timestamp))
	if len(windows) == 0 {
		return nil
	}
	if d.windowFn.IsMerging() {
		var err error
		if windows, err = d.mergeOnArrival(e.Key, windows); err != nil {
			return d.fail(e.Key, err)
		}
	}
	for _, w := range windows {
		if err := d.processWindow(e, w); err != nil {
			return d.fail(e.Key, err)
		}
	}
	return nil
}

// dropExpired removes the windows whose state is already garbage collected. It
// runs before merging so an expired window never extends a live one.
func (d *Driver[K, V, A, O]) dropExpired(e element.Event[K, V], windows []window.Window) []window.Window {
	live := windows[:0]
	for _, w := range windows {
		if d.gcTime(w) <= d.watermark {
			d.metrics.Dropped(metrics.DroppedExpired)
			d.logger.Debugw("drop expired element", "key", e.Key, "window", w, "timestamp", e.Timestamp, "watermark", d.watermark)
			continue
		}
		live = append(live, w)
	}
	return live
}

func (d *Driver[K, V, A, O]) processWindow(e element.Event[K, V], w window.Window) error {
	entry, ok := d.store.Lookup(e.Key, w)
	if ok && d.tree.IsFinished(entry.Trigger) {
		d.metrics.Dropped(metrics.DroppedClosed)
		d.logger.Debugw("drop element of closed window", "key", e.Key, "window", w, "timestamp", e.Timestamp)
		return nil
	}
	if !ok {
		entry = store.NewEntry[A](w, d.tree.NewState())
		if err := d.createEntry(e.Key, entry); err != nil {
			return err
		}
	}

	if !entry.HasAccumulator {
		entry.Accumulator = d.combineFn.CreateAccumulator()
		entry.HasAccumulator = true
	}
	entry.Accumulator = d.combineFn.AddInput(entry.Accumulator, e.Value)
	entry.Pane.Pending++
	entry.Pane.Elements++
	if d.watermark >= w.MaxTimestamp() {
		d.metrics.ElementsLate.Inc(1)
	}

	ctx := d.context(e.Key, w)
	d.tree.OnElement(ctx, entry.Trigger)
	if err := d.maybeFire(e.Key, entry, ctx); err != nil {
		return err
	}
	return d.store.Put(e.Key, entry)
}
