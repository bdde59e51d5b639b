// Package bindrt is the runtime support imported by generated bindings:
// native error envelopes, text transfer, owning handles and the callback
// registry behind exported trampolines.
package bindrt

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNullResult is returned when a native call succeeds but yields a null
	// pointer where the wrapper promises a value.
	ErrNullResult = errors.New("native call returned null")

	// ErrOutOfRange is returned by collection accessors for invalid indices.
	ErrOutOfRange = errors.New("index out of range")
)

// Error is a native failure caught at the trampoline boundary.
type Error struct {
	Code    int32
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("native error %d", e.Code)
	}
	return fmt.Sprintf("native error %d: %s", e.Code, e.Message)
}

// Check converts an envelope status into an error. The message buffer is
// owned by the caller of Check and released with free in every case.
func Check(code int32, msg unsafe.Pointer, free func(unsafe.Pointer)) error {
	text := ReceiveString(msg, free)
	if code == 0 {
		return nil
	}
	return errors.WithStack(&Error{Code: code, Message: text})
}

// AsError extracts the native failure from err.
func AsError(err error) (*Error, bool) {
	var native *Error
	if errors.As(err, &native) {
		return native, true
	}
	return nil, false
}
