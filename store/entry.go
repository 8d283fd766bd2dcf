package store

import (
	"github.com/RuiFG/streaming/trigger"
	"github.com/RuiFG/streaming/window"
)

// Entry is the state of one (key, window).
type Entry[A any] struct {
	Window      window.Window
	Accumulator A
	// HasAccumulator is false until the first element, and again after a discarding emission.
	HasAccumulator bool
	Trigger        trigger.State
	Pane           PaneState
}

// PaneState is the pane bookkeeping of an entry.
type PaneState struct {
	// Emitted panes so far, which is also the index of the next one.
	Emitted int64
	// NonSpeculative counts emitted ON_TIME and LATE panes.
	NonSpeculative int64
	OnTimeEmitted  bool
	// LastIndex is the index of the last emitted pane, -1 before the first.
	LastIndex int64
	// Pending counts elements added since the last emission.
	Pending int64
	// Elements counts every element ever added.
	Elements int64
}

// NewEntry returns the entry of a window that has not seen any element.
func NewEntry[A any](w window.Window, st trigger.State) *Entry[A] {
	return &Entry[A]{Window: w, Trigger: st, Pane: PaneState{LastIndex: -1}}
}
