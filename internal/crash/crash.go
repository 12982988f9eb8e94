// Package crash turns panics at command boundaries into logged errors.
package crash

import (
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

var (
	once sync.Once
	log  = zap.NewNop()
)

// PanicError is returned in place of a recovered panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Init installs the logger used for crash reports. Only the first call has
// an effect; later calls are no-ops.
func Init(l *zap.Logger) {
	once.Do(func() {
		if l != nil {
			log = l.Named("crash")
		}
	})
}

// Recover must be deferred directly. A panic in the deferring function is
// logged and stored in *errp as a *PanicError.
func Recover(errp *error) {
	v := recover()
	if v == nil {
		return
	}

	perr := &PanicError{Value: v, Stack: debug.Stack()}
	log.Error("recovered from panic", zap.Any("panic", v), zap.Stack("stack"))
	if errp != nil {
		*errp = perr
	}
}

// Guard calls fn and converts a panic into a *PanicError.
func Guard(fn func() error) (err error) {
	defer Recover(&err)
	return fn()
}
