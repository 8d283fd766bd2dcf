package driver

import (
	"github.com/RuiFG/streaming/common/mtime"
	"github.com/RuiFG/streaming/timer"
	"github.com/RuiFG/streaming/window"
)

// windowContext is the trigger.Context of one (key, window).
type windowContext[K comparable] struct {
	key            K
	window         window.Window
	watermark      mtime.Time
	processingTime mtime.Time
	timers         *timer.Service[K]
}

func (c *windowContext[K]) Window() window.Window {
	return c.window
}

func (c *windowContext[K]) Watermark() mtime.Time {
	return c.watermark
}

func (c *windowContext[K]) ProcessingTime() mtime.Time {
	return c.processingTime
}

func (c *windowContext[K]) SetProcessingTimer(at mtime.Time) {
	c.timers.Set(c.processingTimer(at))
}

func (c *windowContext[K]) DeleteProcessingTimer(at mtime.Time) {
	c.timers.Delete(c.processingTimer(at))
}

func (c *windowContext[K]) processingTimer(at mtime.Time) timer.Timer[K] {
	return timer.Timer[K]{
		Key:       c.key,
		Window:    c.window,
		Domain:    timer.ProcessingTime,
		Timestamp: at,
		Purpose:   timer.UserTrigger,
	}
}
