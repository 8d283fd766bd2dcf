package store

import (
	"bytes"
	"encoding/gob"

	"github.com/RuiFG/streaming/common/mtime"
	"github.com/RuiFG/streaming/trigger"
	"github.com/RuiFG/streaming/window"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

var ErrCorrupted = errors.New("corrupted entry")

// Serde turns keys and accumulators into bytes.
type Serde[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(b []byte) (T, error)
}

// GobSerde works for any T whose fields are exported.
type GobSerde[T any] struct{}

func (GobSerde[T]) Encode(v T) ([]byte, error) {
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(&v); err != nil {
		return nil, errors.WithMessage(err, "failed to encode gob bytes")
	}
	return buffer.Bytes(), nil
}

func (GobSerde[T]) Decode(b []byte) (T, error) {
	v := new(T)
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(v); err != nil {
		return *v, errors.WithMessage(err, "failed to decode gob bytes")
	}
	return *v, nil
}

// Codec lays entries out in protobuf wire format:
//
//	entry  { 1: window, 2: accumulator bytes (optional), 3: pane, 4: repeated node }
//	window { 1: kind (0 global, 1 interval), 2: start zigzag, 3: end zigzag }
//	pane   { 1: emitted, 2: non speculative, 3: on time emitted, 4: last index zigzag, 5: pending, 6: elements }
//	node   { 1: finished, 2: count, 3: fire at zigzag, 4: pending, 5: on time fired }
//	key    { 1: key bytes, 2: window }
type Codec[K comparable, A any] struct {
	Key         Serde[K]
	Accumulator Serde[A]
}

func NewGobCodec[K comparable, A any]() *Codec[K, A] {
	return &Codec[K, A]{Key: GobSerde[K]{}, Accumulator: GobSerde[A]{}}
}

const (
	windowGlobal   = 0
	windowInterval = 1
)

func (c *Codec[K, A]) EncodeKey(key K, w window.Window) ([]byte, error) {
	kb, err := c.Key.Encode(key)
	if err != nil {
		return nil, err
	}
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, kb)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	return protowire.AppendBytes(b, appendWindow(nil, w)), nil
}

func (c *Codec[K, A]) DecodeKey(b []byte) (key K, w window.Window, err error) {
	err = consumeFields(b, func(num protowire.Number, v uint64, raw []byte) error {
		switch num {
		case 1:
			key, err = c.Key.Decode(raw)
			return err
		case 2:
			w, err = consumeWindow(raw)
			return err
		}
		return nil
	})
	if err == nil && w == nil {
		err = errors.WithMessage(ErrCorrupted, "key without window")
	}
	return key, w, err
}

func (c *Codec[K, A]) EncodeEntry(e *Entry[A]) ([]byte, error) {
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, appendWindow(nil, e.Window))
	if e.HasAccumulator {
		ab, err := c.Accumulator.Encode(e.Accumulator)
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, ab)
	}

	var pane []byte
	pane = appendVarint(pane, 1, uint64(e.Pane.Emitted))
	pane = appendVarint(pane, 2, uint64(e.Pane.NonSpeculative))
	pane = appendVarint(pane, 3, protowire.EncodeBool(e.Pane.OnTimeEmitted))
	pane = appendVarint(pane, 4, protowire.EncodeZigZag(e.Pane.LastIndex))
	pane = appendVarint(pane, 5, uint64(e.Pane.Pending))
	pane = appendVarint(pane, 6, uint64(e.Pane.Elements))
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendBytes(b, pane)

	for _, n := range e.Trigger {
		var node []byte
		node = appendVarint(node, 1, protowire.EncodeBool(n.Finished))
		node = appendVarint(node, 2, uint64(n.Count))
		node = appendVarint(node, 3, protowire.EncodeZigZag(int64(n.FireAt)))
		node = appendVarint(node, 4, protowire.EncodeBool(n.Pending))
		node = appendVarint(node, 5, protowire.EncodeBool(n.OnTimeFired))
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, node)
	}
	return b, nil
}

func (c *Codec[K, A]) DecodeEntry(b []byte) (*Entry[A], error) {
	e := &Entry[A]{Trigger: trigger.State{}}
	err := consumeFields(b, func(num protowire.Number, _ uint64, raw []byte) error {
		var err error
		switch num {
		case 1:
			e.Window, err = consumeWindow(raw)
		case 2:
			e.Accumulator, err = c.Accumulator.Decode(raw)
			e.HasAccumulator = err == nil
		case 3:
			err = consumeFields(raw, func(num protowire.Number, v uint64, _ []byte) error {
				switch num {
				case 1:
					e.Pane.Emitted = int64(v)
				case 2:
					e.Pane.NonSpeculative = int64(v)
				case 3:
					e.Pane.OnTimeEmitted = protowire.DecodeBool(v)
				case 4:
					e.Pane.LastIndex = protowire.DecodeZigZag(v)
				case 5:
					e.Pane.Pending = int64(v)
				case 6:
					e.Pane.Elements = int64(v)
				}
				return nil
			})
		case 4:
			var n trigger.NodeState
			err = consumeFields(raw, func(num protowire.Number, v uint64, _ []byte) error {
				switch num {
				case 1:
					n.Finished = protowire.DecodeBool(v)
				case 2:
					n.Count = int64(v)
				case 3:
					n.FireAt = mtime.Time(protowire.DecodeZigZag(v))
				case 4:
					n.Pending = protowire.DecodeBool(v)
				case 5:
					n.OnTimeFired = protowire.DecodeBool(v)
				}
				return nil
			})
			e.Trigger = append(e.Trigger, n)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if e.Window == nil {
		return nil, errors.WithMessage(ErrCorrupted, "entry without window")
	}
	return e, nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendWindow(b []byte, w window.Window) []byte {
	switch w := w.(type) {
	case window.IntervalWindow:
		b = appendVarint(b, 1, windowInterval)
		b = appendVarint(b, 2, protowire.EncodeZigZag(int64(w.Start)))
		return appendVarint(b, 3, protowire.EncodeZigZag(int64(w.End)))
	default:
		return appendVarint(b, 1, windowGlobal)
	}
}

func consumeWindow(b []byte) (window.Window, error) {
	var (
		kind       uint64
		start, end int64
	)
	if err := consumeFields(b, func(num protowire.Number, v uint64, _ []byte) error {
		switch num {
		case 1:
			kind = v
		case 2:
			start = protowire.DecodeZigZag(v)
		case 3:
			end = protowire.DecodeZigZag(v)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	switch kind {
	case windowGlobal:
		return window.GlobalWindow{}, nil
	case windowInterval:
		return window.IntervalWindow{Start: mtime.Time(start), End: mtime.Time(end)}, nil
	default:
		return nil, errors.WithMessagef(ErrCorrupted, "unknown window kind %d", kind)
	}
}

// consumeFields calls fn with the value of each varint field or the payload of
// each bytes field; other wire types are skipped.
func consumeFields(b []byte, fn func(num protowire.Number, v uint64, raw []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.WithMessage(ErrCorrupted, protowire.ParseError(n).Error())
		}
		b = b[n:]
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return errors.WithMessage(ErrCorrupted, protowire.ParseError(n).Error())
			}
			b = b[n:]
			if err := fn(num, v, nil); err != nil {
				return err
			}
		case protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return errors.WithMessage(ErrCorrupted, protowire.ParseError(n).Error())
			}
			b = b[n:]
			if err := fn(num, 0, raw); err != nil {
				return err
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return errors.WithMessage(ErrCorrupted, protowire.ParseError(n).Error())
			}
			b = b[n:]
		}
	}
	return nil
}
