package driver

import (
	"github.com/RuiFG/streaming/store"
	"github.com/RuiFG/streaming/trigger"
	"github.com/RuiFG/streaming/window"
	"github.com/pkg/errors"
)

// MergeWindows replaces the windows sources of key by result, combining their
// accumulators and trigger states, and fires result if it became ready.
func (d *Driver[K, V, A, O]) MergeWindows(key K, sources []window.Window, result window.Window) error {
	if err := d.check(key); err != nil {
		return err
	}
	if len(sources) == 0 {
		return errors.Errorf("merge into %v without sources", result)
	}
	entry, err := d.merge(key, sources, result)
	if err != nil {
		return d.fail(key, err)
	}
	if err = d.maybeFire(key, entry, d.context(key, result)); err != nil {
		return d.fail(key, err)
	}
	return d.store.Put(key, entry)
}

// mergeOnArrival merges the open windows of key with the windows assigned to a
// new element and returns the windows the element belongs to afterwards.
// Closed windows take no part.
func (d *Driver[K, V, A, O]) mergeOnArrival(key K, assigned []window.Window) ([]window.Window, error) {
	var candidates []window.Window
	for _, w := range d.store.Windows(key) {
		if e, ok := d.store.Lookup(key, w); ok && !d.tree.IsFinished(e.Trigger) {
			candidates = append(candidates, w)
		}
	}
	candidates = append(candidates, assigned...)

	targets := append([]window.Window(nil), assigned...)
	for _, m := range window.MergeIntervals(candidates) {
		var existing []window.Window
		for _, src := range m.Sources {
			if _, ok := d.store.Lookup(key, src); ok {
				existing = append(existing, src)
			}
			for i, target := range targets {
				if target.Equals(src) {
					targets[i] = m.Result
				}
			}
		}
		if len(existing) == 0 || (len(existing) == 1 && existing[0].Equals(m.Result)) {
			continue
		}
		entry, err := d.merge(key, existing, m.Result)
		if err != nil {
			return nil, err
		}
		if err = d.store.Put(key, entry); err != nil {
			return nil, err
		}
	}
	return distinct(targets), nil
}

func distinct(windows []window.Window) []window.Window {
	var out []window.Window
next:
	for _, w := range windows {
		for _, o := range out {
			if o.Equals(w) {
				continue next
			}
		}
		out = append(out, w)
	}
	return out
}

// merge builds the entry of result from the entries of sources and deletes them.
func (d *Driver[K, V, A, O]) merge(key K, sources []window.Window, result window.Window) (*store.Entry[A], error) {
	var (
		entries = make([]*store.Entry[A], 0, len(sources))
		states  = make([]trigger.State, 0, len(sources))
	)
	for _, w := range sources {
		e, ok := d.store.Lookup(key, w)
		if !ok {
			return nil, errors.WithMessagef(store.ErrEntryNotFound, "merge source %v of key %v", w, key)
		}
		if d.tree.IsFinished(e.Trigger) {
			return nil, errors.WithMessagef(ErrMergeConflict, "merge source %v of key %v is closed", w, key)
		}
		entries = append(entries, e)
		states = append(states, e.Trigger)
	}

	ctx := d.context(key, result)
	merged, err := d.tree.OnMerge(ctx, states)
	if err != nil {
		return nil, err
	}
	entry := store.NewEntry[A](result, merged)
	for _, e := range entries {
		if e.Window.Equals(result) {
			// pane indexes and the ON_TIME pane of result continue
			entry.Pane = store.PaneState{
				Emitted:        e.Pane.Emitted,
				NonSpeculative: e.Pane.NonSpeculative,
				OnTimeEmitted:  e.Pane.OnTimeEmitted,
				LastIndex:      e.Pane.LastIndex,
			}
		}
	}
	for _, e := range entries {
		if e.HasAccumulator {
			if entry.HasAccumulator {
				entry.Accumulator = d.combineFn.MergeAccumulators(entry.Accumulator, e.Accumulator)
			} else {
				entry.Accumulator = e.Accumulator
				entry.HasAccumulator = true
			}
		}
		entry.Pane.Pending += e.Pane.Pending
		entry.Pane.Elements += e.Pane.Elements
	}

	for _, e := range entries {
		if e.Window.Equals(result) {
			// timers of result set by OnMerge must survive
			if err = d.store.Delete(key, e.Window); err != nil {
				return nil, err
			}
			continue
		}
		if err = d.deleteEntry(key, e.Window); err != nil {
			return nil, err
		}
	}
	if err = d.createEntry(key, entry); err != nil {
		return nil, err
	}
	d.metrics.WindowsMerged.Inc(int64(len(sources)))
	d.logger.Debugw("merged windows", "key", key, "sources", sources, "result", result)
	return entry, nil
}
