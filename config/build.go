package config

import (
	"strings"

	"github.com/RuiFG/streaming/common/mtime"
	"github.com/RuiFG/streaming/driver"
	"github.com/RuiFG/streaming/store"
	"github.com/RuiFG/streaming/teststream"
	"github.com/RuiFG/streaming/trigger"
	"github.com/RuiFG/streaming/window"
	"github.com/pkg/errors"
)

func (w Window) Build() (*window.Fn, error) {
	var fn *window.Fn
	switch window.Kind(strings.ToLower(w.Kind)) {
	case "", window.GlobalWindows:
		fn = window.NewGlobalWindows()
	case window.FixedWindows:
		fn = window.NewFixedWindowsWithOffset(w.Size, w.Offset)
	case window.SlidingWindows:
		fn = window.NewSlidingWindows(w.Size, w.Period)
		fn.Offset = w.Offset
	case window.Sessions:
		fn = window.NewSessions(w.Gap)
	default:
		return nil, errors.WithMessagef(window.ErrInvalidWindowFn, "unknown window kind %q", w.Kind)
	}
	return fn, fn.Validate()
}

// Build turns the node into a trigger; a nil node is the default trigger.
func (t *Trigger) Build() (*trigger.Trigger, error) {
	if t == nil {
		return trigger.Default(), nil
	}
	subs := make([]*trigger.Trigger, 0, len(t.Triggers))
	for i, sub := range t.Triggers {
		if sub == nil {
			return nil, errors.WithMessagef(trigger.ErrInvalidTrigger, "%s child %d is empty", t.Kind, i)
		}
		built, err := sub.Build()
		if err != nil {
			return nil, err
		}
		subs = append(subs, built)
	}

	switch strings.ToLower(t.Kind) {
	case "default":
		return trigger.Default(), nil
	case "never":
		return trigger.Never(), nil
	case "after_all":
		return trigger.AfterAll(subs...), nil
	case "after_any":
		return trigger.AfterAny(subs...), nil
	case "after_each":
		return trigger.AfterEach(subs...), nil
	case "after_count":
		return trigger.AfterCount(t.Count), nil
	case "after_processing_time":
		return trigger.AfterProcessingTime(t.Delay), nil
	case "after_end_of_window":
		eow := trigger.AfterEndOfWindow()
		if t.Early != nil {
			early, err := t.Early.Build()
			if err != nil {
				return nil, err
			}
			eow = eow.WithEarlyFirings(early)
		}
		if t.Late != nil {
			late, err := t.Late.Build()
			if err != nil {
				return nil, err
			}
			eow = eow.WithLateFirings(late)
		}
		return eow, nil
	case "repeat":
		if len(subs) != 1 {
			return nil, errors.WithMessagef(trigger.ErrInvalidTrigger, "repeat needs 1 child, got %d", len(subs))
		}
		return trigger.Repeat(subs[0]), nil
	case "or_finally":
		if len(subs) != 2 {
			return nil, errors.WithMessagef(trigger.ErrInvalidTrigger, "or_finally needs 2 children, got %d", len(subs))
		}
		return trigger.OrFinally(subs[0], subs[1]), nil
	default:
		return nil, errors.WithMessagef(trigger.ErrInvalidTrigger, "unknown trigger kind %q", t.Kind)
	}
}

func parseBehavior(name, text string) (driver.Behavior, error) {
	switch strings.ToLower(text) {
	case "fire_always":
		return driver.FireAlways, nil
	case "fire_if_non_empty":
		return driver.FireIfNonEmpty, nil
	default:
		return 0, errors.Errorf("unknown %s behavior %q", name, text)
	}
}

// DriverOptions returns the trigger, lateness and pane behaviour options. The
// store is left to the caller since its type depends on the combine function.
func (a *Application) DriverOptions() ([]driver.WithOptions, error) {
	t, err := a.Trigger.Build()
	if err != nil {
		return nil, err
	}
	var mode driver.AccumulationMode
	switch strings.ToLower(a.Accumulation) {
	case "", "discarding":
		mode = driver.Discarding
	case "accumulating":
		mode = driver.Accumulating
	default:
		return nil, errors.Errorf("unknown accumulation mode %q", a.Accumulation)
	}
	onTime, err := parseBehavior("on time", a.OnTime)
	if err != nil {
		return nil, err
	}
	closing, err := parseBehavior("closing", a.Closing)
	if err != nil {
		return nil, err
	}
	return []driver.WithOptions{
		driver.WithTrigger(t),
		driver.WithAllowedLateness(a.AllowedLateness),
		driver.WithAccumulationMode(mode),
		driver.WithOnTimeBehavior(onTime),
		driver.WithClosingBehavior(closing),
	}, nil
}

// NutsOptions describes the nutsdb backend; ok is false for the in-memory store.
func (s Store) NutsOptions() (options store.NutsOptions, ok bool, err error) {
	switch strings.ToLower(s.Kind) {
	case "", "memory":
		return store.NutsOptions{}, false, nil
	case "nutsdb":
		if s.Dir == "" {
			return store.NutsOptions{}, false, errors.Errorf("nutsdb store needs a dir")
		}
		return store.NutsOptions{Dir: s.Dir, Bucket: s.Bucket, MergeThreshold: s.MergeThreshold}, true, nil
	default:
		return store.NutsOptions{}, false, errors.Errorf("unknown store kind %q", s.Kind)
	}
}

// Stream turns the script into a test stream of string keys and float values.
func (a *Application) Stream() (*teststream.Stream[string, float64], error) {
	s := teststream.New[string, float64]()
	for i, step := range a.Script {
		switch strings.ToLower(step.Kind) {
		case "element":
			s.AddElements(teststream.Element(step.Key, step.Value, mtime.FromMilliseconds(step.Timestamp)))
		case "watermark":
			s.AdvanceWatermark(mtime.FromMilliseconds(step.Time))
		case "end":
			s.AdvanceWatermarkToInfinity()
		case "processing_time":
			s.AdvanceProcessingTime(mtime.FromMilliseconds(step.Time))
		case "drain":
			s.Drain()
		default:
			return nil, errors.Errorf("script step %d: unknown kind %q", i, step.Kind)
		}
	}
	return s, s.Err()
}
