package window

import (
	"fmt"
	"time"

	"github.com/RuiFG/streaming/common/mtime"
	"github.com/pkg/errors"
)

var ErrInvalidWindowFn = errors.New("invalid window fn")

type Kind string

const (
	GlobalWindows  Kind = "global"
	FixedWindows   Kind = "fixed"
	SlidingWindows Kind = "sliding"
	Sessions       Kind = "sessions"
)

// Fn assigns element timestamps to windows.
type Fn struct {
	Kind   Kind
	Size   time.Duration // fixed, sliding
	Period time.Duration // sliding
	Offset time.Duration // fixed, sliding
	Gap    time.Duration // sessions
}

func NewGlobalWindows() *Fn {
	return &Fn{Kind: GlobalWindows}
}

func NewFixedWindows(size time.Duration) *Fn {
	return &Fn{Kind: FixedWindows, Size: size}
}

func NewFixedWindowsWithOffset(size, offset time.Duration) *Fn {
	return &Fn{Kind: FixedWindows, Size: size, Offset: offset}
}

func NewSlidingWindows(size, period time.Duration) *Fn {
	return &Fn{Kind: SlidingWindows, Size: size, Period: period}
}

func NewSessions(gap time.Duration) *Fn {
	return &Fn{Kind: Sessions, Gap: gap}
}

func (f *Fn) Validate() error {
	if f == nil {
		return errors.WithMessage(ErrInvalidWindowFn, "window fn can't be nil")
	}
	switch f.Kind {
	case GlobalWindows:
	case FixedWindows:
		if f.Size < time.Millisecond {
			return errors.WithMessagef(ErrInvalidWindowFn, "size %v should be at least one millisecond", f.Size)
		}
		if f.Offset < 0 {
			return errors.WithMessagef(ErrInvalidWindowFn, "offset %v can't be negative", f.Offset)
		}
	case SlidingWindows:
		if f.Size < time.Millisecond || f.Period < time.Millisecond {
			return errors.WithMessagef(ErrInvalidWindowFn, "size %v and period %v should be at least one millisecond", f.Size, f.Period)
		}
		if f.Period > f.Size {
			return errors.WithMessagef(ErrInvalidWindowFn, "period %v can't exceed size %v", f.Period, f.Size)
		}
		if f.Offset < 0 {
			return errors.WithMessagef(ErrInvalidWindowFn, "offset %v can't be negative", f.Offset)
		}
	case Sessions:
		if f.Gap < time.Millisecond {
			return errors.WithMessagef(ErrInvalidWindowFn, "gap %v should be at least one millisecond", f.Gap)
		}
	default:
		return errors.WithMessagef(ErrInvalidWindowFn, "unknown kind %q", f.Kind)
	}
	return nil
}

// IsMerging reports whether windows produced by the fn may later merge.
func (f *Fn) IsMerging() bool {
	return f.Kind == Sessions
}

// AssignWindows returns the windows an element with timestamp ts belongs to.
// The fn must have been validated.
func (f *Fn) AssignWindows(ts mtime.Time) []Window {
	switch f.Kind {
	case FixedWindows:
		size := f.Size.Milliseconds()
		s := mtime.Time(windowStartWithOffset(int64(ts), f.Offset.Milliseconds()%size, size))
		return []Window{IntervalWindow{Start: s, End: endOf(s, f.Size)}}
	case SlidingWindows:
		period := f.Period.Milliseconds()
		var windows []Window
		lastStart := mtime.Time(windowStartWithOffset(int64(ts), f.Offset.Milliseconds()%period, period))
		for s := lastStart; s > ts.Subtract(f.Size); s -= mtime.Time(period) {
			windows = append(windows, IntervalWindow{Start: s, End: endOf(s, f.Size)})
		}
		return windows
	case Sessions:
		return []Window{IntervalWindow{Start: ts, End: endOf(ts, f.Gap)}}
	default:
		return []Window{GlobalWindow{}}
	}
}

func (f *Fn) String() string {
	switch f.Kind {
	case FixedWindows:
		return fmt.Sprintf("fixed(size=%v, offset=%v)", f.Size, f.Offset)
	case SlidingWindows:
		return fmt.Sprintf("sliding(size=%v, period=%v, offset=%v)", f.Size, f.Period, f.Offset)
	case Sessions:
		return fmt.Sprintf("sessions(gap=%v)", f.Gap)
	default:
		return string(f.Kind)
	}
}

// windowStartWithOffset handles both positive and negative timestamps.
func windowStartWithOffset(timestamp int64, offset int64, windowSize int64) int64 {
	remainder := (timestamp - offset) % windowSize
	if remainder < 0 {
		return timestamp - (remainder + windowSize)
	}
	return timestamp - remainder
}

// endOf keeps every interval window inside the global window.
func endOf(start mtime.Time, size time.Duration) mtime.Time {
	return mtime.Min(start.Add(size), mtime.EndOfGlobalWindowTime+1)
}
