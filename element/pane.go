package element

import "fmt"

// Timing classifies a pane relative to the watermark passing the end of its window.
type Timing uint8

const (
	Early Timing = iota
	OnTime
	Late
)

func (t Timing) String() string {
	switch t {
	case Early:
		return "EARLY"
	case OnTime:
		return "ON_TIME"
	case Late:
		return "LATE"
	default:
		return fmt.Sprintf("Timing(%d)", uint8(t))
	}
}

// Pane describes one emission for a (key, window).
type Pane struct {
	IsFirst bool
	IsLast  bool
	Timing  Timing
	// Index counts every emitted pane of the window, starting at 0.
	Index int64
	// NonSpeculativeIndex counts ON_TIME and LATE panes only; -1 for EARLY panes.
	NonSpeculativeIndex int64
}

func (p Pane) String() string {
	return fmt.Sprintf("Pane{first=%v last=%v timing=%v index=%d onTimeIndex=%d}",
		p.IsFirst, p.IsLast, p.Timing, p.Index, p.NonSpeculativeIndex)
}
