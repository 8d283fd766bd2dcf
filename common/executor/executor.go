package executor

import (
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

var ErrCanceled = errors.New("executor canceled")

const (
	pending uint32 = iota
	executed
	canceled
)

// Executor runs a task at most once, or never if it is canceled first.
type Executor struct {
	exec   func() error
	status atomic.Uint32
	err    error
	done   chan struct{}
}

func (e *Executor) Cancel() bool {
	if e.status.CAS(pending, canceled) {
		e.err = ErrCanceled
		close(e.done)
		return true
	}
	return false
}

func (e *Executor) Canceled() bool {
	return e.status.Load() == canceled
}

func (e *Executor) Executed() bool {
	return e.status.Load() == executed
}

// Exec runs the task if nobody ran or canceled it yet. A panic in the task
// still closes Done before it propagates.
func (e *Executor) Exec() bool {
	if !e.status.CAS(pending, executed) {
		return false
	}
	defer close(e.done)
	e.err = e.exec()
	return true
}

func (e *Executor) Done() <-chan struct{} {
	return e.done
}

// Err is valid once Done is closed.
func (e *Executor) Err() error {
	return e.err
}

func NewExecutor(exec func() error) *Executor {
	return &Executor{
		exec: exec,
		done: make(chan struct{}),
	}
}
