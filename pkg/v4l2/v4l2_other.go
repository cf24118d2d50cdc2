//go:build !linux || !(386 || arm || amd64 || arm64)

package v4l2

import (
	"errors"

	"github.com/AlexxIT/camview/pkg/capture"
)

var ErrNotSupported = errors.New("v4l2: not supported on this platform")

func Opener(path string) capture.Opener {
	return func() (capture.Device, error) {
		return nil, ErrNotSupported
	}
}
