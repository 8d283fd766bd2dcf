package timer

import (
	"testing"
	"time"

	"github.com/RuiFG/streaming/common/mtime"
	"github.com/RuiFG/streaming/window"
	"github.com/stretchr/testify/assert"
)

var (
	w1 = window.IntervalWindow{Start: 0, End: 20}
	w2 = window.IntervalWindow{Start: 20, End: 40}
)

func eventTimer(key string, w window.Window, ts mtime.Time, purpose Purpose) Timer[string] {
	return Timer[string]{Key: key, Window: w, Domain: EventTime, Timestamp: ts, Purpose: purpose}
}

func drain(s *Service[string], d Domain, upTo mtime.Time) []Timer[string] {
	var timers []Timer[string]
	for {
		t, ok := s.PopDue(d, upTo)
		if !ok {
			return timers
		}
		timers = append(timers, t)
	}
}

func TestService_Order(t *testing.T) {
	s := NewService[string]()
	gc := eventTimer("red", w1, 3, GarbageCollection)
	assert.True(t, s.Set(eventTimer("red", w1, 5, UserTrigger)))
	assert.True(t, s.Set(gc))
	assert.True(t, s.Set(eventTimer("blue", w1, 3, UserTrigger)))
	assert.True(t, s.Set(eventTimer("red", w2, 1, UserTrigger)))
	assert.False(t, s.Set(gc), "duplicate")
	assert.Equal(t, 4, s.Len(EventTime))

	peek, ok := s.Peek(EventTime)
	assert.True(t, ok)
	assert.Equal(t, mtime.Time(1), peek.Timestamp)

	assert.Equal(t, []Timer[string]{
		eventTimer("red", w2, 1, UserTrigger),
		eventTimer("blue", w1, 3, UserTrigger),
		gc,
	}, drain(s, EventTime, 3))
	assert.Equal(t, 1, s.Len(EventTime))
	assert.Equal(t, []Timer[string]{eventTimer("red", w1, 5, UserTrigger)}, drain(s, EventTime, mtime.MaxTimestamp))
	_, ok = s.Peek(EventTime)
	assert.False(t, ok)
}

func TestService_SameTimestampKeepsInsertionOrder(t *testing.T) {
	s := NewService[string]()
	for _, key := range []string{"c", "a", "b"} {
		s.Set(eventTimer(key, w1, 7, UserTrigger))
	}
	var keys []string
	for _, timer := range drain(s, EventTime, 7) {
		keys = append(keys, timer.Key)
	}
	assert.Equal(t, []string{"c", "a", "b"}, keys)
}

func TestService_DomainsAreIndependent(t *testing.T) {
	s := NewService[string]()
	pt := Timer[string]{Key: "red", Window: w1, Domain: ProcessingTime, Timestamp: 2}
	s.Set(pt)
	s.Set(eventTimer("red", w1, 1, UserTrigger))
	assert.Equal(t, []Timer[string]{pt}, drain(s, ProcessingTime, 10))
	assert.Equal(t, 1, s.Len(EventTime))
}

func TestService_Delete(t *testing.T) {
	s := NewService[string]()
	timer := eventTimer("red", w1, 1, UserTrigger)
	s.Set(timer)
	assert.True(t, s.Has(timer))
	assert.True(t, s.Delete(timer))
	assert.False(t, s.Delete(timer))
	assert.False(t, s.Has(timer))
	assert.Equal(t, 0, s.Len(EventTime))
	assert.True(t, s.Set(timer), "can be set again after delete")
}

func TestService_DeleteAll(t *testing.T) {
	s := NewService[string]()
	s.Set(eventTimer("red", w1, 19, UserTrigger))
	s.Set(eventTimer("red", w1, 79, GarbageCollection))
	s.Set(Timer[string]{Key: "red", Window: w1, Domain: ProcessingTime, Timestamp: 100})
	s.Set(eventTimer("red", w2, 39, UserTrigger))

	assert.Equal(t, []Timer[string]{
		eventTimer("red", w1, 19, UserTrigger),
		eventTimer("red", w1, 79, GarbageCollection),
		{Key: "red", Window: w1, Domain: ProcessingTime, Timestamp: 100},
	}, s.Timers("red", w1))
	assert.Equal(t, 3, s.DeleteAll("red", w1))
	assert.Equal(t, 0, s.DeleteAll("red", w1))
	assert.Empty(t, s.Timers("red", w1))
	assert.Equal(t, 1, s.Len(EventTime))
	assert.Equal(t, 0, s.Len(ProcessingTime))
}

func TestTimer_String(t *testing.T) {
	assert.Equal(t, "Timer{key=red window=[0:20) event_time@19 user_trigger}", eventTimer("red", w1, 19, UserTrigger).String())
	assert.Equal(t, "Domain(7)", Domain(7).String())
	assert.Equal(t, "Purpose(7)", Purpose(7).String())
}

func TestManualClock(t *testing.T) {
	clock := NewManualClock(100)
	var c Clock = clock
	assert.Equal(t, mtime.Time(100), c.Now())
	assert.Equal(t, mtime.Time(150), clock.Advance(50*time.Millisecond))
	clock.Set(120)
	assert.Equal(t, mtime.Time(150), clock.Now())
	clock.Set(200)
	assert.Equal(t, mtime.Time(200), clock.Now())
	assert.NotZero(t, WallClock{}.Now())
}
