package element

import "github.com/RuiFG/streaming/window"

// Record is the flat, serialisable form of an Output.
type Record[K comparable, O any] struct {
	Key                 K      `json:"key"`
	Window              string `json:"window"`
	MaxTimestamp        int64  `json:"maxTimestamp"`
	Timing              string `json:"timing"`
	Index               int64  `json:"index"`
	NonSpeculativeIndex int64  `json:"nonSpeculativeIndex"`
	IsFirst             bool   `json:"isFirst"`
	IsLast              bool   `json:"isLast"`
	Value               O      `json:"value"`
}

func NewRecord[K comparable, O any](out Output[K, O]) Record[K, O] {
	var maxTimestamp int64
	if out.Window != nil {
		maxTimestamp = out.Window.MaxTimestamp().Milliseconds()
	}
	return Record[K, O]{
		Key:                 out.Key,
		Window:              windowString(out.Window),
		MaxTimestamp:        maxTimestamp,
		Timing:              out.Pane.Timing.String(),
		Index:               out.Pane.Index,
		NonSpeculativeIndex: out.Pane.NonSpeculativeIndex,
		IsFirst:             out.Pane.IsFirst,
		IsLast:              out.Pane.IsLast,
		Value:               out.Value,
	}
}

func windowString(w window.Window) string {
	if w == nil {
		return ""
	}
	return w.String()
}
