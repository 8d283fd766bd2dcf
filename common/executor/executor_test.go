package executor

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestExecutor_Cancel(t *testing.T) {
	executor := NewExecutor(func() error {
		t.Errorf("can't happen")
		return nil
	})
	assert.True(t, executor.Cancel())
	select {
	case <-executor.Done():
	case <-time.After(10 * time.Millisecond):
		t.Errorf("not done after cancel")
	}
	assert.False(t, executor.Exec())
	assert.True(t, executor.Canceled())
	assert.ErrorIs(t, executor.Err(), ErrCanceled)
}

func TestExecutor_Exec(t *testing.T) {
	boom := errors.New("boom")
	var ran bool
	executor := NewExecutor(func() error {
		ran = true
		return boom
	})
	assert.True(t, executor.Exec())
	select {
	case <-executor.Done():
	case <-time.After(10 * time.Millisecond):
		t.Errorf("not done after exec")
	}
	assert.True(t, ran)
	assert.True(t, executor.Executed())
	assert.False(t, executor.Cancel())
	assert.False(t, executor.Canceled())
	assert.ErrorIs(t, executor.Err(), boom)
}

func TestExecutor_ExecPanic(t *testing.T) {
	executor := NewExecutor(func() error {
		panic("")
	})
	assert.Panics(t, func() {
		executor.Exec()
	})
	select {
	case <-executor.Done():
	case <-time.After(10 * time.Millisecond):
		t.Errorf("not done after panic")
	}
	assert.False(t, executor.Exec())
	assert.False(t, executor.Cancel())
	assert.False(t, executor.Canceled())
}
