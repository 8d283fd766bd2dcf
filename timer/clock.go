package timer

import (
	"sync"
	"time"

	"github.com/RuiFG/streaming/common/mtime"
)

// Clock is the processing time source.
type Clock interface {
	Now() mtime.Time
}

type WallClock struct{}

func (WallClock) Now() mtime.Time {
	return mtime.Now()
}

// ManualClock only moves when told to, for tests and replays.
type ManualClock struct {
	mutex sync.Mutex
	now   mtime.Time
}

func NewManualClock(now mtime.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() mtime.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

// Set moves the clock to now; it never moves backwards.
func (c *ManualClock) Set(now mtime.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if now > c.now {
		c.now = now
	}
}

func (c *ManualClock) Advance(d time.Duration) mtime.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
