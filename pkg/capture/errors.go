package capture

import (
	"errors"
	"fmt"
)

var (
	// fatal for the session
	ErrUnavailable    = errors.New("device unavailable")
	ErrOpen           = errors.New("open device")
	ErrNotCapture     = errors.New("not a capture device")
	ErrFormatRejected = errors.New("format rejected")
	ErrAllocation     = errors.New("allocation failed")
	ErrRead           = errors.New("read buffer")

	// recovered inside the session
	ErrTransient = errors.New("transient read error")
	ErrTimeout   = errors.New("buffer timeout")
	ErrDecode    = errors.New("decode frame")

	// rejected by the coordinator
	ErrUnsupported = errors.New("unsupported configuration")
)

// IsFatal - error stops the session
func IsFatal(err error) bool {
	for _, target := range []error{ErrUnavailable, ErrOpen, ErrNotCapture, ErrFormatRejected, ErrAllocation, ErrRead} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func wrapError(kind, err error) error {
	return fmt.Errorf("capture: %w: %w", kind, err)
}

func newError(kind error, msg string) error {
	return fmt.Errorf("capture: %w: %s", kind, msg)
}
