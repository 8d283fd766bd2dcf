package element

import (
	"sync"

	"github.com/RuiFG/streaming/window"
)

// Output is the tuple handed downstream when a window fires.
type Output[K comparable, O any] struct {
	Key    K
	Window window.Window
	Pane   Pane
	Value  O
}

type Collector[K comparable, O any] interface {
	Emit(out Output[K, O]) error
}

type CollectorFn[K comparable, O any] func(out Output[K, O]) error

func (fn CollectorFn[K, O]) Emit(out Output[K, O]) error {
	return fn(out)
}

// Buffer collects outputs in memory, safe for concurrent use.
type Buffer[K comparable, O any] struct {
	mutex   sync.Mutex
	outputs []Output[K, O]
}

func (b *Buffer[K, O]) Emit(out Output[K, O]) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.outputs = append(b.outputs, out)
	return nil
}

// Outputs returns a copy of everything collected so far.
func (b *Buffer[K, O]) Outputs() []Output[K, O] {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return append([]Output[K, O](nil), b.outputs...)
}

func (b *Buffer[K, O]) Reset() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.outputs = nil
}
