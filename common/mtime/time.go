// Package mtime is the millisecond event time used by windows, timers and watermarks.
package mtime

import (
	"math"
	"strconv"
	"time"
)

const (
	// MinTimestamp is -inf for event time.
	MinTimestamp Time = math.MinInt64 / 1000
	// MaxTimestamp is +inf for event time.
	MaxTimestamp Time = math.MaxInt64 / 1000
	// EndOfGlobalWindowTime is the max timestamp of the global window, one day before MaxTimestamp
	// so that end-of-window timers of the global window still fire before +inf.
	EndOfGlobalWindowTime = MaxTimestamp - 24*60*60*1000
)

// Time is milliseconds since the unix epoch, always within [MinTimestamp, MaxTimestamp].
type Time int64

func Now() Time {
	return FromTime(time.Now())
}

func FromTime(t time.Time) Time {
	return Normalize(Time(t.UnixMilli()))
}

func FromMilliseconds(ms int64) Time {
	return Normalize(Time(ms))
}

func (t Time) Milliseconds() int64 {
	return int64(t)
}

// Add saturates at MinTimestamp and MaxTimestamp.
func (t Time) Add(d time.Duration) Time {
	return Normalize(Time(int64(t) + d.Milliseconds()))
}

func (t Time) Subtract(d time.Duration) Time {
	return Normalize(Time(int64(t) - d.Milliseconds()))
}

func (t Time) Before(o Time) bool {
	return t < o
}

func (t Time) After(o Time) bool {
	return t > o
}

func (t Time) String() string {
	switch t {
	case MinTimestamp:
		return "-inf"
	case MaxTimestamp:
		return "+inf"
	case EndOfGlobalWindowTime:
		return "glo"
	default:
		return strconv.FormatInt(int64(t), 10)
	}
}

func Min(a, b Time) Time {
	if a < b {
		return a
	}
	return b
}

func Max(a, b Time) Time {
	if a < b {
		return b
	}
	return a
}

func Normalize(t Time) Time {
	return Min(Max(t, MinTimestamp), MaxTimestamp)
}
