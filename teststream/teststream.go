// Package teststream scripts elements, watermarks and processing time against a driver.
package teststream

import (
	"fmt"

	"github.com/RuiFG/streaming/combine"
	"github.com/RuiFG/streaming/common/mtime"
	"github.com/RuiFG/streaming/driver"
	"github.com/RuiFG/streaming/element"
	"github.com/RuiFG/streaming/window"
	"github.com/pkg/errors"
)

var ErrWatermarkRegression = errors.New("script watermark regression")

type Kind int

const (
	ElementsKind Kind = iota
	WatermarkKind
	ProcessingTimeKind
	DrainKind
)

func (k Kind) String() string {
	switch k {
	case ElementsKind:
		return "elements"
	case WatermarkKind:
		return "watermark"
	case ProcessingTimeKind:
		return "processing_time"
	case DrainKind:
		return "drain"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Step is one scripted event.
type Step[K comparable, V any] struct {
	Kind     Kind
	Elements []element.Event[K, V]
	Time     mtime.Time
}

// Target is what a script drives, a driver.Driver or anything routing to drivers.
type Target[K comparable, V any] interface {
	ProcessElement(e element.Event[K, V]) error
	AdvanceWatermark(watermark mtime.Time) error
	AdvanceProcessingTime(now mtime.Time) error
	Drain() error
}

type Stream[K comparable, V any] struct {
	steps     []Step[K, V]
	watermark mtime.Time
	err       error
}

func New[K comparable, V any]() *Stream[K, V] {
	return &Stream[K, V]{watermark: mtime.MinTimestamp}
}

// Element is shorthand for a timestamped event.
func Element[K comparable, V any](key K, value V, ts mtime.Time) element.Event[K, V] {
	return element.Event[K, V]{Key: key, Value: value, Timestamp: ts}
}

func (s *Stream[K, V]) AddElements(elements ...element.Event[K, V]) *Stream[K, V] {
	if len(elements) > 0 {
		s.steps = append(s.steps, Step[K, V]{Kind: ElementsKind, Elements: elements})
	}
	return s
}

// AdvanceWatermark records a watermark step; a watermark older than the previous one
// makes the script invalid.
func (s *Stream[K, V]) AdvanceWatermark(watermark mtime.Time) *Stream[K, V] {
	if watermark < s.watermark {
		if s.err == nil {
			s.err = errors.WithMessagef(ErrWatermarkRegression, "step %d: %v after %v", len(s.steps), watermark, s.watermark)
		}
		return s
	}
	s.watermark = watermark
	s.steps = append(s.steps, Step[K, V]{Kind: WatermarkKind, Time: watermark})
	return s
}

func (s *Stream[K, V]) AdvanceWatermarkToInfinity() *Stream[K, V] {
	return s.AdvanceWatermark(mtime.MaxTimestamp)
}

func (s *Stream[K, V]) AdvanceProcessingTime(now mtime.Time) *Stream[K, V] {
	s.steps = append(s.steps, Step[K, V]{Kind: ProcessingTimeKind, Time: now})
	return s
}

func (s *Stream[K, V]) Drain() *Stream[K, V] {
	s.steps = append(s.steps, Step[K, V]{Kind: DrainKind})
	return s
}

func (s *Stream[K, V]) Steps() []Step[K, V] {
	return append([]Step[K, V](nil), s.steps...)
}

func (s *Stream[K, V]) Err() error {
	return s.err
}

// Run plays every step against target and stops at the first error.
func (s *Stream[K, V]) Run(target Target[K, V]) error {
	if s.err != nil {
		return s.err
	}
	for i, step := range s.steps {
		var err error
		switch step.Kind {
		case ElementsKind:
			for _, e := range step.Elements {
				if err = target.ProcessElement(e); err != nil {
					break
				}
			}
		case WatermarkKind:
			err = target.AdvanceWatermark(step.Time)
		case ProcessingTimeKind:
			err = target.AdvanceProcessingTime(step.Time)
		case DrainKind:
			err = target.Drain()
		}
		if err != nil {
			return errors.WithMessagef(err, "step %d %v", i, step.Kind)
		}
	}
	return nil
}

// Collect builds a driver over an in-memory buffer, runs s against it and returns
// every pane emitted.
func Collect[K comparable, V, A, O any](s *Stream[K, V], windowFn *window.Fn, combineFn combine.Fn[V, A, O],
	withOptionsFns ...driver.WithOptions) ([]element.Output[K, O], error) {
	buffer := &element.Buffer[K, O]{}
	d, err := driver.New[K, V, A, O](windowFn, combineFn, buffer, withOptionsFns...)
	if err != nil {
		return nil, err
	}
	if err = s.Run(d); err != nil {
		return buffer.Outputs(), err
	}
	return buffer.Outputs(), d.Close()
}
