package trigger

import (
	"github.com/RuiFG/streaming/common/mtime"
	"github.com/pkg/errors"
)

// OnElement records the arrival of an element in the window.
func (tr *Tree) OnElement(ctx Context, st State) {
	onElement(tr.root, ctx, st)
}

// ShouldFire reports whether the window is ready to fire now.
func (tr *Tree) ShouldFire(ctx Context, st State) bool {
	return shouldFire(tr.root, ctx, st)
}

// OnFire must only follow a true ShouldFire; anything else is reported as ErrNotReady.
func (tr *Tree) OnFire(ctx Context, st State) error {
	if err := tr.CheckState(st); err != nil {
		return err
	}
	return onFire(tr.root, ctx, st)
}

// IsFinished reports whether the trigger will never fire again for the window.
func (tr *Tree) IsFinished(st State) bool {
	return st[tr.root.id].Finished
}

func onElement(n *node, ctx Context, st State) {
	s := &st[n.id]
	if s.Finished {
		return
	}
	switch n.kind {
	case KindAfterAll, KindAfterAny, KindRepeat, KindOrFinally:
		for _, sub := range n.subs {
			onElement(sub, ctx, st)
		}
	case KindAfterEach:
		if current := currentSub(n, st); current != nil {
			onElement(current, ctx, st)
		}
	case KindAfterCount:
		s.Count++
	case KindAfterProcessingTime:
		// the delay is measured from the first element since the last firing or reset
		if !s.Pending {
			s.Pending = true
			s.FireAt = ctx.ProcessingTime().Add(n.delay)
			ctx.SetProcessingTimer(s.FireAt)
		}
	case KindAfterEndOfWindow:
		if !s.OnTimeFired {
			if n.early != nil && !endOfWindowReached(ctx) {
				onElement(n.early, ctx, st)
			}
		} else if n.late != nil {
			onElement(n.late, ctx, st)
		}
	}
}

func shouldFire(n *node, ctx Context, st State) bool {
	s := &st[n.id]
	if s.Finished {
		return false
	}
	switch n.kind {
	case KindAfterAll:
		for _, sub := range n.subs {
			if !st[sub.id].Finished && !shouldFire(sub, ctx, st) {
				return false
			}
		}
		return true
	case KindAfterAny:
		for _, sub := range n.subs {
			if shouldFire(sub, ctx, st) {
				return true
			}
		}
		return false
	case KindAfterEach:
		current := currentSub(n, st)
		return current != nil && shouldFire(current, ctx, st)
	case KindAfterCount:
		return s.Count >= n.count
	case KindAfterProcessingTime:
		return s.Pending && ctx.ProcessingTime() >= s.FireAt
	case KindAfterEndOfWindow:
		if !s.OnTimeFired {
			return endOfWindowReached(ctx) || (n.early != nil && shouldFire(n.early, ctx, st))
		}
		return n.late != nil && shouldFire(n.late, ctx, st)
	case KindRepeat:
		return shouldFire(n.subs[0], ctx, st)
	case KindOrFinally:
		return shouldFire(n.subs[0], ctx, st) || shouldFire(n.subs[1], ctx, st)
	default:
		return false
	}
}

func onFire(n *node, ctx Context, st State) error {
	if !shouldFire(n, ctx, st) {
		return errors.WithMessagef(ErrNotReady, "node %d %v in window %v", n.id, n.kind, ctx.Window())
	}
	s := &st[n.id]
	switch n.kind {
	case KindAfterAll:
		for _, sub := range n.subs {
			if st[sub.id].Finished {
				continue
			}
			if err := onFire(sub, ctx, st); err != nil {
				return err
			}
		}
		s.Finished = true
	case KindAfterAny:
		for _, sub := range n.subs {
			if shouldFire(sub, ctx, st) {
				if err := onFire(sub, ctx, st); err != nil {
					return err
				}
				break
			}
		}
		s.Finished = allFinished(n.subs, st)
	case KindAfterEach:
		if err := onFire(currentSub(n, st), ctx, st); err != nil {
			return err
		}
		s.Finished = currentSub(n, st) == nil
	case KindAfterCount:
		s.Finished = true
	case KindAfterProcessingTime:
		s.Finished = true
		s.Pending = false
	case KindAfterEndOfWindow:
		switch {
		case !s.OnTimeFired && endOfWindowReached(ctx):
			s.OnTimeFired = true
			if n.early != nil {
				reset(n.early, ctx, st)
			}
			s.Finished = n.late == nil
		case !s.OnTimeFired:
			if err := fireRepeatedly(n.early, ctx, st); err != nil {
				return err
			}
		default:
			if err := fireRepeatedly(n.late, ctx, st); err != nil {
				return err
			}
		}
	case KindRepeat:
		if err := onFire(n.subs[0], ctx, st); err != nil {
			return err
		}
		reset(n.subs[0], ctx, st)
	case KindOrFinally:
		main, until := n.subs[0], n.subs[1]
		if shouldFire(until, ctx, st) {
			if shouldFire(main, ctx, st) {
				if err := onFire(main, ctx, st); err != nil {
					return err
				}
			}
			if err := onFire(until, ctx, st); err != nil {
				return err
			}
			s.Finished = true
		} else {
			if err := onFire(main, ctx, st); err != nil {
				return err
			}
			s.Finished = st[main.id].Finished
		}
	}
	return nil
}

// fireRepeatedly fires the early or late sub trigger and rearms it once it finished.
func fireRepeatedly(n *node, ctx Context, st State) error {
	if err := onFire(n, ctx, st); err != nil {
		return err
	}
	if st[n.id].Finished {
		reset(n, ctx, st)
	}
	return nil
}

// reset clears n and its descendants as if they never saw the window, and cancels
// the processing timers they were waiting for.
func reset(n *node, ctx Context, st State) {
	var deadlines []mtime.Time
	clearNode(n, st, &deadlines)
	for _, at := range deadlines {
		if !pendingAt(st, at) {
			ctx.DeleteProcessingTimer(at)
		}
	}
}

func clearNode(n *node, st State, deadlines *[]mtime.Time) {
	if st[n.id].Pending {
		*deadlines = append(*deadlines, st[n.id].FireAt)
	}
	st[n.id] = NodeState{}
	for _, sub := range n.subs {
		clearNode(sub, st, deadlines)
	}
	if n.early != nil {
		clearNode(n.early, st, deadlines)
	}
	if n.late != nil {
		clearNode(n.late, st, deadlines)
	}
}

// pendingAt reports whether a node still waits for processing time at.
func pendingAt(st State, at mtime.Time) bool {
	for _, s := range st {
		if s.Pending && s.FireAt == at {
			return true
		}
	}
	return false
}

func currentSub(n *node, st State) *node {
	for _, sub := range n.subs {
		if !st[sub.id].Finished {
			return sub
		}
	}
	return nil
}

func allFinished(nodes []*node, st State) bool {
	for _, n := range nodes {
		if !st[n.id].Finished {
			return false
		}
	}
	return true
}

func anyFinished(nodes []*node, st State) bool {
	for _, n := range nodes {
		if st[n.id].Finished {
			return true
		}
	}
	return false
}

func endOfWindowReached(ctx Context) bool {
	return ctx.Watermark() >= ctx.Window().MaxTimestamp()
}
