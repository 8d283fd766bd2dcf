// Package timer indexes pending event time and processing time timers by due time,
// so advancing a clock only touches the windows that are actually due.
package timer

import (
	"fmt"

	"github.com/RuiFG/streaming/common/mtime"
	"github.com/RuiFG/streaming/window"
)

type Domain uint8

const (
	EventTime Domain = iota
	ProcessingTime
)

func (d Domain) String() string {
	switch d {
	case EventTime:
		return "event_time"
	case ProcessingTime:
		return "processing_time"
	default:
		return fmt.Sprintf("Domain(%d)", uint8(d))
	}
}

// Purpose orders timers sharing a timestamp: trigger timers run before garbage collection.
type Purpose uint8

const (
	UserTrigger Purpose = iota
	GarbageCollection
)

func (p Purpose) String() string {
	switch p {
	case UserTrigger:
		return "user_trigger"
	case GarbageCollection:
		return "garbage_collection"
	default:
		return fmt.Sprintf("Purpose(%d)", uint8(p))
	}
}

// Timer wakes up the (Key, Window) entry once its domain reaches Timestamp.
type Timer[K comparable] struct {
	Key       K
	Window    window.Window
	Domain    Domain
	Timestamp mtime.Time
	Purpose   Purpose
}

func (t Timer[K]) String() string {
	return fmt.Sprintf("Timer{key=%v window=%v %v@%v %v}", t.Key, t.Window, t.Domain, t.Timestamp, t.Purpose)
}
