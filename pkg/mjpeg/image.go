package mjpeg

import (
	"image"

	"github.com/AlexxIT/camview/pkg/capture"
)

// NewImage - wrap decoded payload of known layout into image.Image, nil for unsupported layouts.
// Planar and gray images reference the payload memory, packed YUV is converted.
func NewImage(layout capture.FourCC, w, h int) func(payload []byte) image.Image {
	rect := image.Rect(0, 0, w, h)

	switch layout {
	case capture.FourCCGREY:
		return func(payload []byte) image.Image {
			return &image.Gray{
				Pix:    payload,
				Stride: w,
				Rect:   rect,
			}
		}
	case capture.FourCCYUYV, capture.FourCCUYVY:
		cw := (w + 1) / 2
		i1 := w * h
		i2 := i1 + h*cw
		i3 := i2 + h*cw

		yuyv := layout == capture.FourCCYUYV

		return func(payload []byte) image.Image {
			yuv := make([]byte, i3)
			if yuyv {
				YUYVToYUV(payload, yuv, w, h)
			} else {
				UYVYToYUV(payload, yuv, w, h)
			}
			return &image.YCbCr{
				Y:              yuv[:i1],
				Cb:             yuv[i1:i2],
				Cr:             yuv[i2:i3],
				YStride:        w,
				CStride:        cw,
				SubsampleRatio: image.YCbCrSubsampleRatio422,
				Rect:           rect,
			}
		}
	case capture.FourCCRGB3, capture.FourCCBGR3:
		bgr := layout == capture.FourCCBGR3

		return func(payload []byte) image.Image {
			img := image.NewRGBA(rect)
			for i, j := 0, 0; i+2 < len(payload) && j < len(img.Pix); i, j = i+3, j+4 {
				if bgr {
					img.Pix[j], img.Pix[j+1], img.Pix[j+2] = payload[i+2], payload[i+1], payload[i]
				} else {
					img.Pix[j], img.Pix[j+1], img.Pix[j+2] = payload[i], payload[i+1], payload[i+2]
				}
				img.Pix[j+3] = 0xFF
			}
			return img
		}
	}

	return nil
}

// YUYVToYUV - packed Y0 U Y1 V to planar 4:2:2, dst is Y plane then Cb and Cr with (w+1)/2 stride
func YUYVToYUV(src, dst []byte, w, h int) {
	packedToYUV(src, dst, w, h, 0, 1)
}

// UYVYToYUV - packed U Y0 V Y1 to planar 4:2:2
func UYVYToYUV(src, dst []byte, w, h int) {
	packedToYUV(src, dst, w, h, 1, 0)
}

// packedToYUV - y and c are offsets of luma and chroma in each 2 bytes pixel.
// Odd width: last pixel has no Cr sample, neutral value is used.
func packedToYUV(src, dst []byte, w, h, y, c int) {
	cw := (w + 1) / 2
	i1 := w * h
	i2 := i1 + h*cw
	if len(src) < w*h*2 || len(dst) < i2+h*cw {
		return
	}

	for row := 0; row < h; row++ {
		line := src[row*w*2 : (row+1)*w*2]
		for x := 0; x < w; x += 2 {
			o := x * 2
			dst[row*w+x] = line[o+y]
			dst[i1+row*cw+x/2] = line[o+c]
			if x+1 < w {
				dst[row*w+x+1] = line[o+2+y]
				dst[i2+row*cw+x/2] = line[o+2+c]
			} else {
				dst[i2+row*cw+x/2] = 128
			}
		}
	}
}
