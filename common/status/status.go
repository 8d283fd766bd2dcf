package status

import "go.uber.org/atomic"

type Status int32

const (
	Ready Status = iota
	Running
	Draining
	Closed
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Holder is a Status that can be changed from several goroutines.
type Holder struct {
	v atomic.Int32
}

func (h *Holder) Load() Status {
	return Status(h.v.Load())
}

// CAS moves the status from one state to another and reports whether it did.
func (h *Holder) CAS(from, to Status) bool {
	return h.v.CAS(int32(from), int32(to))
}

func (h *Holder) Store(s Status) {
	h.v.Store(int32(s))
}
