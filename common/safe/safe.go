package safe

import (
	"fmt"
	"runtime/debug"

	"github.com/RuiFG/streaming/log"
	"github.com/pkg/errors"
)

// Run calls fn and turns a panic into an error.
func Run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Global().Errorw("recovered from panic", "panic", fmt.Sprintf("%#v", r), "stack", string(debug.Stack()))
			switch x := r.(type) {
			case error:
				err = errors.WithMessage(x, "panic")
			default:
				err = errors.Errorf("panic: %v", x)
			}
		}
	}()
	return fn()
}
