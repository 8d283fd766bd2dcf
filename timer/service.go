package timer

import (
	"sort"

	"github.com/RuiFG/streaming/common/mtime"
	"github.com/RuiFG/streaming/window"
	"github.com/tidwall/btree"
)

type item[K comparable] struct {
	Timer[K]
	seq uint64
}

type entry[K comparable] struct {
	key    K
	window window.Window
}

// Service is a time ordered timer index per domain. Identical timers are
// deduplicated. It is not safe for concurrent use; each driver owns one.
// If timers are inserted in this order
// +---+     +---+     +-------+     +---+     +-------------+
// | 5 | --> | 3 | --> | 3(gc) | --> | 1 | --> | duplicate:3 |
// +---+     +---+     +-------+     +---+     +-------------+
// they are popped as
// +---+     +---+     +-------+     +---+
// | 1 | --> | 3 | --> | 3(gc) | --> | 5 |
// +---+     +---+     +-------+     +---+
type Service[K comparable] struct {
	queues    [2]*btree.Generic[*item[K]]
	dedupeMap map[Timer[K]]*item[K]
	entries   map[entry[K]]map[*item[K]]struct{}
	seq       uint64
}

func NewService[K comparable]() *Service[K] {
	s := &Service[K]{
		dedupeMap: map[Timer[K]]*item[K]{},
		entries:   map[entry[K]]map[*item[K]]struct{}{},
	}
	for i := range s.queues {
		s.queues[i] = btree.NewGenericOptions(less[K], btree.Options{NoLocks: true})
	}
	return s
}

func less[K comparable](a, b *item[K]) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	if a.Purpose != b.Purpose {
		return a.Purpose < b.Purpose
	}
	return a.seq < b.seq
}

// Set registers t and reports false when the same timer is already pending.
func (s *Service[K]) Set(t Timer[K]) bool {
	if _, ok := s.dedupeMap[t]; ok {
		return false
	}
	s.seq++
	it := &item[K]{Timer: t, seq: s.seq}
	s.dedupeMap[t] = it
	s.queues[t.Domain].Set(it)
	e := entry[K]{key: t.Key, window: t.Window}
	if s.entries[e] == nil {
		s.entries[e] = map[*item[K]]struct{}{}
	}
	s.entries[e][it] = struct{}{}
	return true
}

func (s *Service[K]) Has(t Timer[K]) bool {
	_, ok := s.dedupeMap[t]
	return ok
}

// Delete cancels t and reports whether it was pending.
func (s *Service[K]) Delete(t Timer[K]) bool {
	it, ok := s.dedupeMap[t]
	if !ok {
		return false
	}
	s.remove(it)
	return true
}

// DeleteAll cancels every timer of the (key, window) entry and returns how many there were.
func (s *Service[K]) DeleteAll(key K, w window.Window) int {
	items := s.entries[entry[K]{key: key, window: w}]
	n := len(items)
	for it := range items {
		s.remove(it)
	}
	return n
}

// Timers lists the pending timers of an entry in firing order.
func (s *Service[K]) Timers(key K, w window.Window) []Timer[K] {
	var items []*item[K]
	for it := range s.entries[entry[K]{key: key, window: w}] {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		return less(items[i], items[j])
	})
	timers := make([]Timer[K], len(items))
	for i, it := range items {
		timers[i] = it.Timer
	}
	return timers
}

// Peek returns the next timer of the domain without removing it.
func (s *Service[K]) Peek(d Domain) (Timer[K], bool) {
	it, ok := s.queues[d].Min()
	if !ok {
		return Timer[K]{}, false
	}
	return it.Timer, true
}

// PopDue removes and returns the next timer of the domain due at or before upTo.
func (s *Service[K]) PopDue(d Domain, upTo mtime.Time) (Timer[K], bool) {
	it, ok := s.queues[d].Min()
	if !ok || it.Timestamp > upTo {
		return Timer[K]{}, false
	}
	s.remove(it)
	return it.Timer, true
}

func (s *Service[K]) Len(d Domain) int {
	return s.queues[d].Len()
}

func (s *Service[K]) remove(it *item[K]) {
	s.queues[it.Domain].Delete(it)
	delete(s.dedupeMap, it.Timer)
	e := entry[K]{key: it.Key, window: it.Window}
	if items, ok := s.entries[e]; ok {
		delete(items, it)
		if len(items) == 0 {
			delete(s.entries, e)
		}
	}
}
