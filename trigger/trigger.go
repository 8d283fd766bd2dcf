// Package trigger describes when a window is ready to fire.
//
// A Trigger is an immutable description assembled from the constructors in this
// package. Build validates it and turns it into a Tree, which evaluates against a
// per (key, window) State arena holding one NodeState per node.
package trigger

import (
	"fmt"
	"strings"
	"time"
)

type Kind uint8

const (
	KindNever Kind = iota
	KindAfterAll
	KindAfterAny
	KindAfterEach
	KindAfterCount
	KindAfterProcessingTime
	KindAfterEndOfWindow
	KindRepeat
	KindOrFinally
)

var kindNames = [...]string{
	KindNever:               "Never",
	KindAfterAll:            "AfterAll",
	KindAfterAny:            "AfterAny",
	KindAfterEach:           "AfterEach",
	KindAfterCount:          "AfterCount",
	KindAfterProcessingTime: "AfterProcessingTime",
	KindAfterEndOfWindow:    "AfterEndOfWindow",
	KindRepeat:              "Repeat",
	KindOrFinally:           "OrFinally",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

type Trigger struct {
	kind Kind
	// AfterAll, AfterAny, AfterEach children; Repeat has one; OrFinally has main and until.
	subs  []*Trigger
	count int64
	delay time.Duration
	// AfterEndOfWindow speculative and late firings, both optional.
	early, late *Trigger
}

func (t *Trigger) Kind() Kind {
	return t.kind
}

// Never is never ready. Windows using it only emit when garbage collected or drained.
func Never() *Trigger {
	return &Trigger{kind: KindNever}
}

// AfterAll fires once, after every sub trigger is ready. It needs at least two.
func AfterAll(subs ...*Trigger) *Trigger {
	return &Trigger{kind: KindAfterAll, subs: subs}
}

// AfterAny is ready whenever one of its sub triggers is ready and fires only that one.
// It finishes once all of its sub triggers have finished.
func AfterAny(subs ...*Trigger) *Trigger {
	return &Trigger{kind: KindAfterAny, subs: subs}
}

// AfterEach runs its sub triggers one after another.
func AfterEach(subs ...*Trigger) *Trigger {
	return &Trigger{kind: KindAfterEach, subs: subs}
}

// AfterCount is ready once n elements arrived since the window started or the
// enclosing Repeat last reset it.
func AfterCount(n int64) *Trigger {
	return &Trigger{kind: KindAfterCount, count: n}
}

// AfterProcessingTime is ready delay after the first element of the current pane.
func AfterProcessingTime(delay time.Duration) *Trigger {
	return &Trigger{kind: KindAfterProcessingTime, delay: delay}
}

// AfterEndOfWindow is ready when the watermark passes the end of the window.
func AfterEndOfWindow() *Trigger {
	return &Trigger{kind: KindAfterEndOfWindow}
}

// WithEarlyFirings returns a copy firing early, repeatedly, before the watermark passes the window.
func (t *Trigger) WithEarlyFirings(early *Trigger) *Trigger {
	c := *t
	c.early = early
	return &c
}

// WithLateFirings returns a copy firing late, repeatedly, after the on time pane.
func (t *Trigger) WithLateFirings(late *Trigger) *Trigger {
	c := *t
	c.late = late
	return &c
}

// Repeat fires sub forever, resetting it after each firing.
func Repeat(sub *Trigger) *Trigger {
	return &Trigger{kind: KindRepeat, subs: []*Trigger{sub}}
}

// OrFinally fires like main until `until` is ready, fires a last time and finishes.
func OrFinally(main, until *Trigger) *Trigger {
	return &Trigger{kind: KindOrFinally, subs: []*Trigger{main, until}}
}

// Default fires when the watermark passes the window and again for every late pane.
func Default() *Trigger {
	return Repeat(AfterEndOfWindow())
}

func (t *Trigger) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.kind {
	case KindAfterCount:
		return fmt.Sprintf("AfterCount(%d)", t.count)
	case KindAfterProcessingTime:
		return fmt.Sprintf("AfterProcessingTime(%v)", t.delay)
	case KindAfterEndOfWindow:
		var opts []string
		if t.early != nil {
			opts = append(opts, "early="+t.early.String())
		}
		if t.late != nil {
			opts = append(opts, "late="+t.late.String())
		}
		return fmt.Sprintf("AfterEndOfWindow(%s)", strings.Join(opts, ", "))
	case KindNever:
		return "Never"
	default:
		subs := make([]string, len(t.subs))
		for i, sub := range t.subs {
			subs[i] = sub.String()
		}
		return fmt.Sprintf("%v(%s)", t.kind, strings.Join(subs, ", "))
	}
}
