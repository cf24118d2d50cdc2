package mjpeg

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"

	"github.com/AlexxIT/camview/pkg/capture"
)

const DefaultQuality = 75

// Encoder - frame to JPEG, image wrapper is rebuilt when layout or size changes
type Encoder struct {
	quality int

	layout   capture.FourCC
	w, h     int
	newImage func(payload []byte) image.Image
}

func NewEncoder(quality int) *Encoder {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Encoder{quality: quality}
}

func (e *Encoder) Encode(frame *capture.Frame) ([]byte, error) {
	if !frame.Valid() {
		return nil, errors.New("mjpeg: invalid frame " + frame.Format.String())
	}

	if frame.Layout != e.layout || frame.Format.Width != e.w || frame.Format.Height != e.h {
		e.newImage = NewImage(frame.Layout, frame.Format.Width, frame.Format.Height)
		e.layout = frame.Layout
		e.w, e.h = frame.Format.Width, frame.Format.Height
	}

	if e.newImage == nil {
		return nil, errors.New("mjpeg: unsupported layout " + frame.Layout.String())
	}

	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, e.newImage(frame.Payload), &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
