package driver

import (
	"github.com/RuiFG/streaming/element"
	"github.com/RuiFG/streaming/store"
	"go.uber.org/multierr"
)

// collect emits the final pane of e if it still owes one, then deletes all of its state.
func (d *Driver[K, V, A, O]) collect(key K, e *store.Entry[A]) error {
	var err error
	if d.owesFinalPane(e) {
		timing := element.OnTime
		if e.Pane.Emitted > 0 {
			timing = element.Late
		}
		err = d.emit(key, e, timing, true)
	}
	d.metrics.WindowsCollected.Inc(1)
	return multierr.Append(err, d.deleteEntry(key, e.Window))
}

// owesFinalPane reports whether disposing of e must emit a last pane first.
func (d *Driver[K, V, A, O]) owesFinalPane(e *store.Entry[A]) bool {
	return !d.tree.IsFinished(e.Trigger) && (d.hasContent(e) || d.closingBehavior == FireAlways)
}
