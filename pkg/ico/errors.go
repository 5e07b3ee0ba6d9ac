package ico

import (
	"errors"
	"fmt"
)

// Error kinds reported by Builder.Build. A *BuildError matches its kind with
// errors.Is.
var (
	ErrInvalidSource   = errors.New("ico: invalid source image")
	ErrInvalidSizeList = errors.New("ico: invalid size list")
	ErrResample        = errors.New("ico: resample failed")
	ErrEncode          = errors.New("ico: encode failed")
	ErrSinkWrite       = errors.New("ico: write failed")
)

// Reader errors.
var (
	ErrFormat             = errors.New("ico: invalid format")
	ErrUnsupportedPayload = errors.New("ico: unsupported payload")
)

// BuildError describes which stage of a build failed and for which frame size.
type BuildError struct {
	Kind error // one of the Err* kinds above
	Size int   // frame size being processed, 0 if not frame specific
	Err  error // underlying cause, may be nil
}

func (e *BuildError) Error() string {
	msg := e.Kind.Error()
	if e.Size > 0 {
		msg = fmt.Sprintf("%s for %dx%d frame", msg, e.Size, e.Size)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *BuildError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
