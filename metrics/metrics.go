// Package metrics counts what the driver does with elements, panes, windows and timers.
package metrics

import (
	"github.com/RuiFG/streaming/element"
	"github.com/RuiFG/streaming/timer"
	"github.com/uber-go/tally/v4"
)

const (
	DroppedExpired = "expired"
	DroppedClosed  = "closed"
)

type Metrics struct {
	ElementsProcessed tally.Counter
	ElementsLate      tally.Counter
	WindowsCreated    tally.Counter
	WindowsMerged     tally.Counter
	WindowsCollected  tally.Counter
	KeysFailed        tally.Counter

	dropped     map[string]tally.Counter
	panes       map[element.Timing]tally.Counter
	timersFired map[timer.Domain]tally.Counter
}

// New registers the counters on scope; a nil scope counts nothing.
func New(scope tally.Scope) *Metrics {
	if scope == nil {
		scope = tally.NoopScope
	}
	m := &Metrics{
		ElementsProcessed: scope.Counter("elements_processed"),
		ElementsLate:      scope.Counter("elements_late"),
		WindowsCreated:    scope.Counter("windows_created"),
		WindowsMerged:     scope.Counter("windows_merged"),
		WindowsCollected:  scope.Counter("windows_collected"),
		KeysFailed:        scope.Counter("keys_failed"),
		dropped:           map[string]tally.Counter{},
		panes:             map[element.Timing]tally.Counter{},
		timersFired:       map[timer.Domain]tally.Counter{},
	}
	for _, reason := range []string{DroppedExpired, DroppedClosed} {
		m.dropped[reason] = scope.Tagged(map[string]string{"reason": reason}).Counter("elements_dropped")
	}
	for _, timing := range []element.Timing{element.Early, element.OnTime, element.Late} {
		m.panes[timing] = scope.Tagged(map[string]string{"timing": timing.String()}).Counter("panes_emitted")
	}
	for _, domain := range []timer.Domain{timer.EventTime, timer.ProcessingTime} {
		m.timersFired[domain] = scope.Tagged(map[string]string{"domain": domain.String()}).Counter("timers_fired")
	}
	return m
}

func (m *Metrics) Dropped(reason string) {
	if c, ok := m.dropped[reason]; ok {
		c.Inc(1)
	}
}

func (m *Metrics) PaneEmitted(timing element.Timing) {
	if c, ok := m.panes[timing]; ok {
		c.Inc(1)
	}
}

func (m *Metrics) TimerFired(domain timer.Domain) {
	if c, ok := m.timersFired[domain]; ok {
		c.Inc(1)
	}
}
