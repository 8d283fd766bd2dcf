package trigger

import (
	"github.com/RuiFG/streaming/common/mtime"
	"github.com/RuiFG/streaming/window"
	"github.com/pkg/errors"
)

var (
	// ErrNotReady is an invariant violation: a node was fired while not ready.
	ErrNotReady = errors.New("trigger fired while not ready")
	// ErrMergeConflict is an invariant violation: merging windows disagree on whether they are closed.
	ErrMergeConflict = errors.New("trigger merge conflict")
	ErrStateMismatch = errors.New("trigger state does not match tree")
)

// NodeState is the per window state of one node.
type NodeState struct {
	Finished bool
	// Count of elements seen by AfterCount.
	Count int64
	// FireAt is the processing time deadline of AfterProcessingTime, valid while Pending.
	FireAt  mtime.Time
	Pending bool
	// OnTimeFired is set by AfterEndOfWindow once its on time firing happened.
	OnTimeFired bool
}

// State is indexed by node id.
type State []NodeState

func (s State) Clone() State {
	return append(State(nil), s...)
}

// Context is what a node sees of the (key, window) it is evaluated for.
type Context interface {
	Window() window.Window
	Watermark() mtime.Time
	ProcessingTime() mtime.Time
	// SetProcessingTimer asks to be evaluated again once processing time reaches at.
	SetProcessingTimer(at mtime.Time)
	DeleteProcessingTimer(at mtime.Time)
}
