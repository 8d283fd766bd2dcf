package runner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/RuiFG/streaming/combine"
	"github.com/RuiFG/streaming/common/mtime"
	"github.com/RuiFG/streaming/driver"
	"github.com/RuiFG/streaming/element"
	"github.com/RuiFG/streaming/store"
	"github.com/RuiFG/streaming/teststream"
	"github.com/RuiFG/streaming/timer"
	"github.com/RuiFG/streaming/trigger"
	"github.com/RuiFG/streaming/window"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type sumRunner = Runner[string, int64, int64, int64]

func newRunner(t *testing.T, buffer *element.Buffer[string, int64], fn combine.Fn[int64, int64, int64],
	driverOptions []driver.WithOptions, withOptionsFns ...WithOptions) *sumRunner {
	r, err := New[string, int64, int64, int64](func(int) (*driver.Driver[string, int64, int64, int64], error) {
		return driver.New[string, int64, int64, int64](window.NewFixedWindows(10*time.Millisecond), fn, buffer, driverOptions...)
	}, withOptionsFns...)
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))
	return r
}

func TestRunner_ShardedProcessing(t *testing.T) {
	buffer := &element.Buffer[string, int64]{}
	r := newRunner(t, buffer, combine.Sum[int64](), nil, WithShards(4))
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for i, key := range keys {
		require.NoError(t, r.ProcessElement(element.Event[string, int64]{Key: key, Value: int64(i), Timestamp: 1}))
		require.NoError(t, r.ProcessElement(element.Event[string, int64]{Key: key, Value: 1, Timestamp: 2}))
	}
	require.NoError(t, r.AdvanceWatermark(10))
	require.NoError(t, r.Stop())

	sums := map[string]int64{}
	for _, out := range buffer.Outputs() {
		assert.Equal(t, element.OnTime, out.Pane.Timing)
		sums[out.Key] += out.Value
	}
	require.Len(t, sums, len(keys))
	for i, key := range keys {
		assert.Equal(t, int64(i+1), sums[key], key)
	}
	assert.Equal(t, int64(16), r.Processed())
}

func TestRunner_SameKeySameShard(t *testing.T) {
	r := newRunner(t, &element.Buffer[string, int64]{}, combine.Sum[int64](), nil, WithShards(8))
	defer func() { require.NoError(t, r.Stop()) }()
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%d", i)
		assert.Equal(t, r.shardOf(key), r.shardOf(key))
		assert.Less(t, r.shardOf(key), 8)
	}
}

func TestRunner_TestStreamAndDrain(t *testing.T) {
	buffer := &element.Buffer[string, int64]{}
	r := newRunner(t, buffer, combine.Sum[int64](), nil, WithShards(3))
	s := teststream.New[string, int64]().
		AddElements(
			teststream.Element("red", int64(3), 3),
			teststream.Element("blue", int64(5), 4),
			teststream.Element("red", int64(1), 12)).
		AdvanceWatermark(10).
		Drain()
	require.NoError(t, s.Run(r))
	assert.ErrorIs(t, r.ProcessElement(teststream.Element("red", int64(1), 30)), driver.ErrDraining)
	require.NoError(t, r.AdvanceWatermark(100))
	require.NoError(t, r.Stop())

	outputs := buffer.Outputs()
	require.Len(t, outputs, 3)
	var drained int
	for _, out := range outputs {
		if out.Pane.IsLast {
			drained++
			assert.Equal(t, "red", out.Key)
			assert.Equal(t, element.Early, out.Pane.Timing)
		}
	}
	assert.Equal(t, 1, drained)
}

func TestRunner_ProcessingTimeTicker(t *testing.T) {
	buffer := &element.Buffer[string, int64]{}
	clock := timer.NewManualClock(0)
	r, err := New[string, int64, int64, int64](func(int) (*driver.Driver[string, int64, int64, int64], error) {
		return driver.New[string, int64, int64, int64](window.NewGlobalWindows(), combine.Sum[int64](), buffer,
			driver.WithClock(clock),
			driver.WithTrigger(trigger.Repeat(trigger.AfterProcessingTime(10*time.Millisecond))))
	}, WithShards(2), WithTickInterval(time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))
	defer func() { require.NoError(t, r.Stop()) }()

	require.NoError(t, r.ProcessElement(element.Event[string, int64]{Key: "k", Value: 7, Timestamp: 1}))
	clock.Set(mtime.Time(50))
	assert.Eventually(t, func() bool {
		return len(buffer.Outputs()) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, int64(7), buffer.Outputs()[0].Value)
}

func TestRunner_PanicBecomesError(t *testing.T) {
	fn := combine.Func[int64, int64, int64]{
		Create: func() int64 { return 0 },
		Add: func(acc int64, v int64) int64 {
			if v < 0 {
				panic("negative input")
			}
			return acc + v
		},
		Merge:   func(a, b int64) int64 { return a + b },
		Extract: func(acc int64) int64 { return acc },
	}
	r := newRunner(t, &element.Buffer[string, int64]{}, fn, nil)
	defer func() { require.NoError(t, r.Stop()) }()

	err := r.ProcessElement(element.Event[string, int64]{Key: "k", Value: -1, Timestamp: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative input")
	assert.NoError(t, r.ProcessElement(element.Event[string, int64]{Key: "k", Value: 1, Timestamp: 1}))
}

func TestRunner_Lifecycle(t *testing.T) {
	r, err := New[string, int64, int64, int64](func(int) (*driver.Driver[string, int64, int64, int64], error) {
		return driver.New[string, int64, int64, int64](window.NewGlobalWindows(), combine.Sum[int64](), &element.Buffer[string, int64]{})
	})
	require.NoError(t, err)
	assert.ErrorIs(t, r.ProcessElement(element.Event[string, int64]{Key: "k"}), ErrNotRunning)
	assert.ErrorIs(t, r.AdvanceWatermark(1), ErrNotRunning)
	require.NoError(t, r.Start(context.Background()))
	assert.Error(t, r.Start(context.Background()))
	require.NoError(t, r.Stop())
	require.NoError(t, r.Stop())
	assert.ErrorIs(t, r.ProcessElement(element.Event[string, int64]{Key: "k"}), ErrNotRunning)

	_, err = New[string, int64, int64, int64](nil)
	assert.Error(t, err)
	_, err = New[string, int64, int64, int64](func(int) (*driver.Driver[string, int64, int64, int64], error) {
		return nil, nil
	}, WithShards(0))
	assert.Error(t, err)
}

type closeCountingStore struct {
	*store.Memory[string, int64]
	closed int
}

func (s *closeCountingStore) Close() error {
	s.closed++
	return nil
}

func TestNew_FactoryFailureClosesCreatedDrivers(t *testing.T) {
	boom := errors.New("boom")
	var stores []*closeCountingStore
	_, err := New[string, int64, int64, int64](func(shard int) (*driver.Driver[string, int64, int64, int64], error) {
		if shard == 2 {
			return nil, boom
		}
		s := &closeCountingStore{Memory: store.NewMemory[string, int64]()}
		stores = append(stores, s)
		return driver.New[string, int64, int64, int64](window.NewGlobalWindows(), combine.Sum[int64](),
			&element.Buffer[string, int64]{}, driver.WithStore(store.Store[string, int64](s)))
	}, WithShards(4))
	assert.ErrorIs(t, err, boom)
	require.Len(t, stores, 2)
	for _, s := range stores {
		assert.Equal(t, 1, s.closed)
	}
}
