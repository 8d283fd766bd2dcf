// Package combine holds the accumulator contract windows aggregate with.
// Implementations must be associative and commutative: panes may be built from
// merged accumulators in any order.
package combine

type Fn[V, A, O any] interface {
	CreateAccumulator() A
	AddInput(acc A, v V) A
	MergeAccumulators(a, b A) A
	ExtractOutput(acc A) O
}

// Func adapts four functions to a Fn.
type Func[V, A, O any] struct {
	Create  func() A
	Add     func(acc A, v V) A
	Merge   func(a, b A) A
	Extract func(acc A) O
}

func (f Func[V, A, O]) CreateAccumulator() A       { return f.Create() }
func (f Func[V, A, O]) AddInput(acc A, v V) A      { return f.Add(acc, v) }
func (f Func[V, A, O]) MergeAccumulators(a, b A) A { return f.Merge(a, b) }
func (f Func[V, A, O]) ExtractOutput(acc A) O      { return f.Extract(acc) }

type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

type Ordered interface {
	Number | ~string
}

type sum[V Number] struct{}

func Sum[V Number]() Fn[V, V, V] { return sum[V]{} }

func (sum[V]) CreateAccumulator() V       { return 0 }
func (sum[V]) AddInput(acc V, v V) V      { return acc + v }
func (sum[V]) MergeAccumulators(a, b V) V { return a + b }
func (sum[V]) ExtractOutput(acc V) V      { return acc }

type count[V any] struct{}

func Count[V any]() Fn[V, int64, int64] { return count[V]{} }

func (count[V]) CreateAccumulator() int64           { return 0 }
func (count[V]) AddInput(acc int64, _ V) int64      { return acc + 1 }
func (count[V]) MergeAccumulators(a, b int64) int64 { return a + b }
func (count[V]) ExtractOutput(acc int64) int64      { return acc }

// Extreme is the accumulator of Min and Max; Set is false until the first input.
type Extreme[V Ordered] struct {
	Value V
	Set   bool
}

type extreme[V Ordered] struct {
	better func(a, b V) bool
}

func Min[V Ordered]() Fn[V, Extreme[V], V] {
	return extreme[V]{better: func(a, b V) bool { return a < b }}
}

func Max[V Ordered]() Fn[V, Extreme[V], V] {
	return extreme[V]{better: func(a, b V) bool { return a > b }}
}

func (e extreme[V]) CreateAccumulator() Extreme[V] { return Extreme[V]{} }

func (e extreme[V]) AddInput(acc Extreme[V], v V) Extreme[V] {
	return e.MergeAccumulators(acc, Extreme[V]{Value: v, Set: true})
}

func (e extreme[V]) MergeAccumulators(a, b Extreme[V]) Extreme[V] {
	switch {
	case !a.Set:
		return b
	case !b.Set:
		return a
	case e.better(b.Value, a.Value):
		return b
	default:
		return a
	}
}

func (e extreme[V]) ExtractOutput(acc Extreme[V]) V { return acc.Value }

type collect[V any] struct{}

// Collect gathers every input; merge order follows argument order.
func Collect[V any]() Fn[V, []V, []V] { return collect[V]{} }

func (collect[V]) CreateAccumulator() []V    { return nil }
func (collect[V]) AddInput(acc []V, v V) []V { return append(acc, v) }
func (collect[V]) MergeAccumulators(a, b []V) []V {
	merged := make([]V, 0, len(a)+len(b))
	return append(append(merged, a...), b...)
}
func (collect[V]) ExtractOutput(acc []V) []V { return append([]V(nil), acc...) }

type mapOutput[V, A, O, P any] struct {
	Fn[V, A, O]
	mapFn func(O) P
}

// MapOutput converts the output of fn with mapFn.
func MapOutput[V, A, O, P any](fn Fn[V, A, O], mapFn func(O) P) Fn[V, A, P] {
	return mapOutput[V, A, O, P]{Fn: fn, mapFn: mapFn}
}

func (m mapOutput[V, A, O, P]) ExtractOutput(acc A) P { return m.mapFn(m.Fn.ExtractOutput(acc)) }
