package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"strconv"
	"sync"
)

// Codec - converts raw device buffer to display-ready payload
type Codec interface {
	// Layout - pixel layout of decoded payload, always uncompressed
	Layout() FourCC
	// Decode - result doesn't reference raw, so raw can be returned to the device.
	// Format is the negotiated one, Stride is zero when the device doesn't report it.
	Decode(raw []byte, format Format) ([]byte, error)
}

var codecs = map[FourCC]Codec{
	FourCCYUYV: &Raw{FourCC: FourCCYUYV},
	FourCCUYVY: &Raw{FourCC: FourCCUYVY},
	FourCCGREY: &Raw{FourCC: FourCCGREY},
	FourCCRGB3: &Raw{FourCC: FourCCRGB3},
	FourCCBGR3: &Raw{FourCC: FourCCBGR3},
	FourCCMJPG: &JPEG{},
	FourCCJPEG: &JPEG{},
}

var codecsMu sync.RWMutex

func RegisterCodec(fourcc FourCC, codec Codec) {
	codecsMu.Lock()
	codecs[fourcc] = codec
	codecsMu.Unlock()
}

func GetCodec(fourcc FourCC) Codec {
	codecsMu.RLock()
	defer codecsMu.RUnlock()
	return codecs[fourcc]
}

// Decode - dispatch by pixel format, lines are treated as unpadded
func Decode(fourcc FourCC, raw []byte, width, height int) ([]byte, error) {
	codec := GetCodec(fourcc)
	if codec == nil {
		return nil, newError(ErrDecode, "unsupported pixel format: "+fourcc.String())
	}
	return codec.Decode(raw, Format{FourCC: fourcc, Width: width, Height: height})
}

// PayloadSize - bytes of decoded frame with uncompressed layout
func PayloadSize(layout FourCC, width, height int) int {
	return width * height * layout.BytesPerPixel()
}

// Raw - uncompressed formats, payload is a copy of captured bytes
type Raw struct {
	FourCC FourCC
}

func (r *Raw) Layout() FourCC {
	return r.FourCC
}

func (r *Raw) Decode(raw []byte, format Format) ([]byte, error) {
	line := format.Width * r.FourCC.BytesPerPixel()
	size := line * format.Height
	if size == 0 {
		return nil, newError(ErrDecode, "unknown layout: "+r.FourCC.String())
	}

	// bytesused may have tail padding, only the reported stride means padded lines
	stride := format.Stride
	if stride <= line {
		if len(raw) < size {
			return nil, newError(ErrDecode, "short frame: "+strconv.Itoa(len(raw))+" < "+strconv.Itoa(size))
		}
		return bytes.Clone(raw[:size]), nil
	}

	if need := stride*(format.Height-1) + line; len(raw) < need {
		return nil, newError(ErrDecode, "short frame: "+strconv.Itoa(len(raw))+" < "+strconv.Itoa(need))
	}

	b := make([]byte, size)
	for y := 0; y < format.Height; y++ {
		copy(b[y*line:], raw[y*stride:y*stride+line])
	}
	return b, nil
}

// JPEG - full decode to packed RGB 8-8-8
type JPEG struct{}

func (j *JPEG) Layout() FourCC {
	return FourCCRGB3
}

func (j *JPEG) Decode(raw []byte, format Format) ([]byte, error) {
	// skip non-JPEG
	if len(raw) < 4 || raw[0] != 0xFF || raw[1] != markerSOI {
		return nil, newError(ErrDecode, "no JPEG start marker")
	}

	img, err := jpeg.Decode(bytes.NewReader(FixJPEG(raw)))
	if err != nil {
		return nil, wrapError(ErrDecode, err)
	}

	rect := img.Bounds()
	if rect.Dx() != format.Width || rect.Dy() != format.Height {
		return nil, newError(ErrDecode, "wrong JPEG size: "+strconv.Itoa(rect.Dx())+"x"+strconv.Itoa(rect.Dy()))
	}

	return ImageToRGB(img), nil
}

// ImageToRGB - packed RGB 8-8-8, fast path for YCbCr and Gray images
func ImageToRGB(img image.Image) []byte {
	rect := img.Bounds()
	w, h := rect.Dx(), rect.Dy()
	b := make([]byte, 0, w*h*3)

	switch img := img.(type) {
	case *image.YCbCr:
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				c := img.YCbCrAt(x, y)
				r, g, b2 := color.YCbCrToRGB(c.Y, c.Cb, c.Cr)
				b = append(b, r, g, b2)
			}
		}
	case *image.Gray:
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				v := img.GrayAt(x, y).Y
				b = append(b, v, v, v)
			}
		}
	default:
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				r, g, b2, _ := img.At(x, y).RGBA()
				b = append(b, byte(r>>8), byte(g>>8), byte(b2>>8))
			}
		}
	}

	return b
}
