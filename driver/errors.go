package driver

import (
	"github.com/RuiFG/streaming/trigger"
	"github.com/pkg/errors"
)

var (
	// ErrWatermarkRegression is fatal: once returned the driver refuses every further call.
	ErrWatermarkRegression = errors.New("watermark regression")
	ErrKeyFailed           = errors.New("key failed")
	ErrIndexRegression     = errors.New("pane index regression")
	ErrMergeConflict       = trigger.ErrMergeConflict
	ErrNotReady            = trigger.ErrNotReady
	ErrDraining            = errors.New("driver is draining")
)

// isInvariantViolation reports whether err leaves the state of a key untrustworthy.
func isInvariantViolation(err error) bool {
	return errors.Is(err, ErrNotReady) ||
		errors.Is(err, ErrIndexRegression) ||
		errors.Is(err, ErrMergeConflict) ||
		errors.Is(err, trigger.ErrStateMismatch)
}
