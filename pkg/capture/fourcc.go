package capture

import (
	"encoding/binary"
	"strings"
)

// FourCC - V4L2 pixel format tag, little endian packed
type FourCC uint32

const (
	FourCCYUYV FourCC = 'Y' | 'U'<<8 | 'Y'<<16 | 'V'<<24
	FourCCUYVY FourCC = 'U' | 'Y'<<8 | 'V'<<16 | 'Y'<<24
	FourCCGREY FourCC = 'G' | 'R'<<8 | 'E'<<16 | 'Y'<<24
	FourCCRGB3 FourCC = 'R' | 'G'<<8 | 'B'<<16 | '3'<<24
	FourCCBGR3 FourCC = 'B' | 'G'<<8 | 'R'<<16 | '3'<<24
	FourCCMJPG FourCC = 'M' | 'J'<<8 | 'P'<<16 | 'G'<<24
	FourCCJPEG FourCC = 'J' | 'P'<<8 | 'E'<<16 | 'G'<<24
)

type PixelFormat struct {
	FourCC FourCC
	Name   string
	FFmpeg string
	// BytesPerPixel - zero for compressed formats
	BytesPerPixel int
}

var PixelFormats = []PixelFormat{
	{FourCCYUYV, "YUV 4:2:2", "yuyv422", 2},
	{FourCCUYVY, "UYVY 4:2:2", "uyvy422", 2},
	{FourCCGREY, "8-bit Greyscale", "gray", 1},
	{FourCCRGB3, "24-bit RGB 8-8-8", "rgb24", 3},
	{FourCCBGR3, "24-bit BGR 8-8-8", "bgr24", 3},
	{FourCCMJPG, "Motion-JPEG", "mjpeg", 0},
	{FourCCJPEG, "JFIF JPEG", "jpeg", 0},
}

func (f FourCC) String() string {
	if f == 0 {
		return ""
	}
	return string(binary.LittleEndian.AppendUint32(nil, uint32(f)))
}

func (f FourCC) Info() *PixelFormat {
	for i := range PixelFormats {
		if PixelFormats[i].FourCC == f {
			return &PixelFormats[i]
		}
	}
	return nil
}

// BytesPerPixel - for uncompressed layouts, zero otherwise
func (f FourCC) BytesPerPixel() int {
	if info := f.Info(); info != nil {
		return info.BytesPerPixel
	}
	return 0
}

func (f FourCC) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *FourCC) UnmarshalText(text []byte) error {
	fourcc, err := ParseFourCC(string(text))
	if err != nil {
		return err
	}
	*f = fourcc
	return nil
}

// ParseFourCC support 4-char codes (YUYV, MJPG) and ffmpeg names (yuyv422, mjpeg)
func ParseFourCC(s string) (FourCC, error) {
	for _, info := range PixelFormats {
		if strings.EqualFold(s, info.FFmpeg) || strings.EqualFold(s, info.FourCC.String()) {
			return info.FourCC, nil
		}
	}

	if len(s) != 4 {
		return 0, newError(ErrUnsupported, "wrong pixel format: "+s)
	}

	return FourCC(binary.LittleEndian.Uint32([]byte(s))), nil
}
