package window

import "sort"

// Merge describes source windows coalescing into Result.
type Merge struct {
	Sources []Window
	Result  Window
}

// MergeIntervals coalesces overlapping interval windows, the session merge rule.
// Only groups with more than one source are returned; non interval windows are ignored.
func MergeIntervals(windows []Window) []Merge {
	var intervals []IntervalWindow
	for _, w := range windows {
		if iw, ok := w.(IntervalWindow); ok {
			intervals = append(intervals, iw)
		}
	}
	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].Start != intervals[j].Start {
			return intervals[i].Start < intervals[j].Start
		}
		return intervals[i].End < intervals[j].End
	})

	var (
		merges  []Merge
		current *Merge
		span    IntervalWindow
	)
	flush := func() {
		if current != nil && len(current.Sources) > 1 {
			current.Result = span
			merges = append(merges, *current)
		}
	}
	for _, iw := range intervals {
		if current != nil && span.Intersects(iw) {
			current.Sources = append(current.Sources, iw)
			span = span.Span(iw)
			continue
		}
		flush()
		current = &Merge{Sources: []Window{iw}}
		span = iw
	}
	flush()
	return merges
}
