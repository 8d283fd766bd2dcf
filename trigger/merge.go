package trigger

import (
	"github.com/pkg/errors"
)

// OnMerge computes the state of a window formed by merging windows with the
// given states. ctx describes the merged window. Sources that disagree on
// whether the trigger already finished can't be merged and yield ErrMergeConflict.
func (tr *Tree) OnMerge(ctx Context, sources []State) (State, error) {
	finished := 0
	for _, src := range sources {
		if err := tr.CheckState(src); err != nil {
			return nil, err
		}
		if tr.IsFinished(src) {
			finished++
		}
	}
	if finished != 0 && finished != len(sources) {
		return nil, errors.WithMessagef(ErrMergeConflict,
			"%d of %d windows merging into %v are closed", finished, len(sources), ctx.Window())
	}
	merged := tr.NewState()
	onMerge(tr.root, ctx, merged, sources)
	return merged, nil
}

func onMerge(n *node, ctx Context, merged State, sources []State) {
	for _, sub := range n.subs {
		onMerge(sub, ctx, merged, sources)
	}
	if n.early != nil {
		onMerge(n.early, ctx, merged, sources)
	}
	if n.late != nil {
		onMerge(n.late, ctx, merged, sources)
	}

	s := &merged[n.id]
	finishedInAny := false
	for _, src := range sources {
		finishedInAny = finishedInAny || src[n.id].Finished
	}
	switch n.kind {
	case KindAfterAll, KindAfterEach:
		s.Finished = allFinished(n.subs, merged)
	case KindAfterAny:
		s.Finished = anyFinished(n.subs, merged)
	case KindOrFinally:
		s.Finished = anyFinished(n.subs, merged)
	case KindAfterCount:
		if finishedInAny {
			s.Finished = true
			return
		}
		for _, src := range sources {
			s.Count += src[n.id].Count
		}
	case KindAfterProcessingTime:
		if finishedInAny {
			s.Finished = true
			return
		}
		for _, src := range sources {
			if !src[n.id].Pending {
				continue
			}
			if !s.Pending || src[n.id].FireAt < s.FireAt {
				s.FireAt = src[n.id].FireAt
			}
			s.Pending = true
		}
		if s.Pending {
			ctx.SetProcessingTimer(s.FireAt)
		}
	case KindAfterEndOfWindow:
		// the merged window may end later than its sources, in which case the on
		// time firing is armed again
		onTimeFired := false
		for _, src := range sources {
			onTimeFired = onTimeFired || src[n.id].OnTimeFired
		}
		s.OnTimeFired = onTimeFired && endOfWindowReached(ctx)
		s.Finished = s.OnTimeFired && n.late == nil
	case KindRepeat, KindNever:
		s.Finished = false
	}
}
