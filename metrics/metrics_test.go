package metrics

import (
	"bytes"
	"testing"
	"time"

	"github.com/RuiFG/streaming/element"
	"github.com/RuiFG/streaming/log"
	"github.com/RuiFG/streaming/timer"
	"github.com/stretchr/testify/assert"
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Counter sums every counter snapshot with the given name whose tags include tags.
func Counter(scope tally.TestScope, name string, tags map[string]string) int64 {
	var total int64
	for _, c := range scope.Snapshot().Counters() {
		if c.Name() != name {
			continue
		}
		matched := true
		for k, v := range tags {
			if c.Tags()[k] != v {
				matched = false
			}
		}
		if matched {
			total += c.Value()
		}
	}
	return total
}

func TestMetrics(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	m := New(scope)
	m.ElementsProcessed.Inc(2)
	m.Dropped(DroppedExpired)
	m.Dropped(DroppedClosed)
	m.Dropped(DroppedClosed)
	m.Dropped("unknown")
	m.PaneEmitted(element.OnTime)
	m.PaneEmitted(element.Late)
	m.PaneEmitted(element.Late)
	m.TimerFired(timer.ProcessingTime)

	assert.Equal(t, int64(2), Counter(scope, "elements_processed", nil))
	assert.Equal(t, int64(3), Counter(scope, "elements_dropped", nil))
	assert.Equal(t, int64(2), Counter(scope, "elements_dropped", map[string]string{"reason": DroppedClosed}))
	assert.Equal(t, int64(2), Counter(scope, "panes_emitted", map[string]string{"timing": "LATE"}))
	assert.Equal(t, int64(0), Counter(scope, "panes_emitted", map[string]string{"timing": "EARLY"}))
	assert.Equal(t, int64(1), Counter(scope, "timers_fired", map[string]string{"domain": "processing_time"}))
}

func TestNew_NilScope(t *testing.T) {
	m := New(nil)
	m.PaneEmitted(element.Early)
	m.WindowsCreated.Inc(1)
}

func TestLogReporter(t *testing.T) {
	var buffer bytes.Buffer
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(&buffer), zapcore.InfoLevel)
	reporter := NewLogReporter(log.New(zap.New(core)))
	scope, closer := tally.NewRootScope(tally.ScopeOptions{Reporter: reporter}, time.Hour)
	New(scope).PaneEmitted(element.OnTime)
	assert.NoError(t, closer.Close())
	assert.Contains(t, buffer.String(), `"name":"panes_emitted"`)
	assert.Contains(t, buffer.String(), `"timing":"ON_TIME"`)
	assert.True(t, reporter.Capabilities().Tagging())
}
