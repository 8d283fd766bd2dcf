// Package store keeps the per (key, window) state of the evaluation driver.
package store

import (
	"github.com/RuiFG/streaming/window"
	"github.com/pkg/errors"
)

var (
	ErrEntryExists   = errors.New("entry already exists")
	ErrEntryNotFound = errors.New("entry not found")
)

// Store is injected into the driver, which is its only writer. Entries returned by
// Lookup are owned by the store; mutations become durable once passed to Put.
type Store[K comparable, A any] interface {
	Lookup(key K, w window.Window) (*Entry[A], bool)
	Create(key K, e *Entry[A]) error
	Put(key K, e *Entry[A]) error
	Delete(key K, w window.Window) error
	// Windows lists the windows of a key in window order.
	Windows(key K) []window.Window
	// Range visits every entry until fn returns false.
	Range(fn func(key K, e *Entry[A]) bool)
	Len() int
	Close() error
}
