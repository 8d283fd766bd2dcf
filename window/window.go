package window

import (
	"fmt"
	"sort"

	"github.com/RuiFG/streaming/common/mtime"
)

// Window is an immutable event-time extent. Implementations must be comparable
// because windows are used as map keys by the state store and the timer service.
type Window interface {
	// MaxTimestamp is the last instant that belongs to the window.
	MaxTimestamp() mtime.Time
	Equals(o Window) bool
	fmt.Stringer
}

// GlobalWindow covers all of time.
type GlobalWindow struct{}

func (GlobalWindow) MaxTimestamp() mtime.Time {
	return mtime.EndOfGlobalWindowTime
}

func (GlobalWindow) Equals(o Window) bool {
	_, ok := o.(GlobalWindow)
	return ok
}

func (GlobalWindow) String() string {
	return "[*]"
}

// IntervalWindow is the half-open interval [Start, End).
type IntervalWindow struct {
	Start, End mtime.Time
}

func (w IntervalWindow) MaxTimestamp() mtime.Time {
	return w.End - 1
}

func (w IntervalWindow) Equals(o Window) bool {
	ow, ok := o.(IntervalWindow)
	return ok && w.Start == ow.Start && w.End == ow.End
}

func (w IntervalWindow) String() string {
	return fmt.Sprintf("[%v:%v)", w.Start, w.End)
}

func (w IntervalWindow) Contains(t mtime.Time) bool {
	return w.Start <= t && t < w.End
}

// Intersects reports overlap; windows that only touch do not intersect.
func (w IntervalWindow) Intersects(o IntervalWindow) bool {
	return w.Start < o.End && o.Start < w.End
}

// Span is the smallest window covering both.
func (w IntervalWindow) Span(o IntervalWindow) IntervalWindow {
	return IntervalWindow{Start: mtime.Min(w.Start, o.Start), End: mtime.Max(w.End, o.End)}
}

// Less orders windows by MaxTimestamp, then by start so that the order is total.
func Less(a, b Window) bool {
	if a.MaxTimestamp() != b.MaxTimestamp() {
		return a.MaxTimestamp() < b.MaxTimestamp()
	}
	return start(a) < start(b)
}

func Sort(windows []Window) {
	sort.SliceStable(windows, func(i, j int) bool {
		return Less(windows[i], windows[j])
	})
}

func start(w Window) mtime.Time {
	if iw, ok := w.(IntervalWindow); ok {
		return iw.Start
	}
	return mtime.MinTimestamp
}
