package combine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fold[V, A, O any](fn Fn[V, A, O], inputs ...V) A {
	acc := fn.CreateAccumulator()
	for _, in := range inputs {
		acc = fn.AddInput(acc, in)
	}
	return acc
}

func TestSum(t *testing.T) {
	fn := Sum[int64]()
	merged := fn.MergeAccumulators(fold(fn, 1, 2), fold(fn, 4))
	assert.Equal(t, int64(7), fn.ExtractOutput(merged))
}

func TestCount(t *testing.T) {
	fn := Count[string]()
	assert.Equal(t, int64(3), fn.ExtractOutput(fn.MergeAccumulators(fold(fn, "a", "b"), fold(fn, "c"))))
}

func TestMinMax(t *testing.T) {
	minFn, maxFn := Min[int](), Max[int]()
	assert.Equal(t, 1, minFn.ExtractOutput(minFn.MergeAccumulators(fold(minFn, 5, 3), fold(minFn, 1, 9))))
	assert.Equal(t, 9, maxFn.ExtractOutput(maxFn.MergeAccumulators(fold(maxFn, 5, 3), fold(maxFn, 1, 9))))
	assert.Equal(t, 4, minFn.ExtractOutput(minFn.MergeAccumulators(minFn.CreateAccumulator(), fold(minFn, 4))))
	assert.False(t, minFn.CreateAccumulator().Set)
}

func TestCollect(t *testing.T) {
	fn := Collect[string]()
	a := fold(fn, "a")
	merged := fn.MergeAccumulators(a, fold(fn, "b", "c"))
	assert.Equal(t, []string{"a", "b", "c"}, fn.ExtractOutput(merged))
	assert.Equal(t, []string{"a"}, a)
}

func TestFunc(t *testing.T) {
	fn := Func[string, int, int]{
		Create:  func() int { return 0 },
		Add:     func(acc int, v string) int { return acc + len(v) },
		Merge:   func(a, b int) int { return a + b },
		Extract: func(acc int) int { return acc * 10 },
	}
	assert.Equal(t, 50, fn.ExtractOutput(fn.MergeAccumulators(fold[string, int, int](fn, "ab"), fold[string, int, int](fn, "cde"))))
}

func TestMapOutput(t *testing.T) {
	fn := MapOutput(Count[string](), func(n int64) float64 { return float64(n) / 2 })
	assert.Equal(t, 1.5, fn.ExtractOutput(fold(fn, "a", "b", "c")))
}
