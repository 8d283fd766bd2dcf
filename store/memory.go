package store

import (
	"github.com/RuiFG/streaming/window"
	"github.com/pkg/errors"
)

// Memory keeps entries in a key -> window -> entry index.
type Memory[K comparable, A any] struct {
	entries map[K]map[window.Window]*Entry[A]
	size    int
}

func NewMemory[K comparable, A any]() *Memory[K, A] {
	return &Memory[K, A]{entries: map[K]map[window.Window]*Entry[A]{}}
}

func (m *Memory[K, A]) Lookup(key K, w window.Window) (*Entry[A], bool) {
	e, ok := m.entries[key][w]
	return e, ok
}

func (m *Memory[K, A]) Create(key K, e *Entry[A]) error {
	windows := m.entries[key]
	if windows == nil {
		windows = map[window.Window]*Entry[A]{}
		m.entries[key] = windows
	}
	if _, ok := windows[e.Window]; ok {
		return errors.WithMessagef(ErrEntryExists, "key %v window %v", key, e.Window)
	}
	windows[e.Window] = e
	m.size++
	return nil
}

func (m *Memory[K, A]) Put(key K, e *Entry[A]) error {
	windows := m.entries[key]
	if _, ok := windows[e.Window]; !ok {
		return errors.WithMessagef(ErrEntryNotFound, "key %v window %v", key, e.Window)
	}
	windows[e.Window] = e
	return nil
}

func (m *Memory[K, A]) Delete(key K, w window.Window) error {
	windows := m.entries[key]
	if _, ok := windows[w]; !ok {
		return errors.WithMessagef(ErrEntryNotFound, "key %v window %v", key, w)
	}
	delete(windows, w)
	if len(windows) == 0 {
		delete(m.entries, key)
	}
	m.size--
	return nil
}

func (m *Memory[K, A]) Windows(key K) []window.Window {
	windows := make([]window.Window, 0, len(m.entries[key]))
	for w := range m.entries[key] {
		windows = append(windows, w)
	}
	window.Sort(windows)
	return windows
}

func (m *Memory[K, A]) Range(fn func(key K, e *Entry[A]) bool) {
	for key, windows := range m.entries {
		for _, e := range windows {
			if !fn(key, e) {
				return
			}
		}
	}
}

func (m *Memory[K, A]) Len() int {
	return m.size
}

func (m *Memory[K, A]) Close() error {
	return nil
}
