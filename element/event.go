package element

import (
	"github.com/RuiFG/streaming/common/mtime"
)

// Event is a keyed, timestamped element.
type Event[K comparable, V any] struct {
	Key       K
	Value     V
	Timestamp mtime.Time
}
