package driver

import (
	"github.com/RuiFG/streaming/store"
	"github.com/RuiFG/streaming/window"
	"go.uber.org/multierr"
)

type keyWindow[K comparable] struct {
	key    K
	window window.Window
}

// Drain emits a final pane for every open window that holds content, drops all
// state and timers, and makes ProcessElement fail with ErrDraining from then on.
func (d *Driver[K, V, A, O]) Drain() error {
	if d.fatal != nil {
		return d.fatal
	}
	d.draining = true

	var pending []keyWindow[K]
	d.store.Range(func(key K, e *store.Entry[A]) bool {
		pending = append(pending, keyWindow[K]{key: key, window: e.Window})
		return true
	})

	var errs error
	for _, kw := range pending {
		e, ok := d.store.Lookup(kw.key, kw.window)
		if !ok {
			continue
		}
		if _, failed := d.failed[kw.key]; !failed && d.owesFinalPane(e) {
			errs = multierr.Append(errs, d.emit(kw.key, e, d.timing(e, d.watermark), true))
		}
		errs = multierr.Append(errs, d.deleteEntry(kw.key, kw.window))
	}
	d.logger.Infow("drained", "windows", len(pending), "watermark", d.watermark)
	return errs
}
