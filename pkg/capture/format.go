package capture

import (
	"fmt"
	"strconv"
	"strings"
)

// Format - pixel format and size granted by the device
type Format struct {
	FourCC FourCC `json:"fourcc" yaml:"fourcc"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	// Stride - bytes per line, informational, zero when unknown
	Stride int `json:"stride,omitempty" yaml:"-"`
}

// Equal compare FourCC and size, Stride is ignored
func (f Format) Equal(other Format) bool {
	return f.FourCC == other.FourCC && f.Width == other.Width && f.Height == other.Height
}

func (f Format) IsZero() bool {
	return f.FourCC == 0 && f.Width == 0 && f.Height == 0
}

func (f Format) String() string {
	return fmt.Sprintf("%s %dx%d", f.FourCC, f.Width, f.Height)
}

func (f Format) Size() string {
	return strconv.Itoa(f.Width) + "x" + strconv.Itoa(f.Height)
}

// Rate - frame interval in seconds as a fraction, zero value means device default
type Rate struct {
	Numerator   uint32 `json:"numerator"`
	Denominator uint32 `json:"denominator"`
}

func (r Rate) IsZero() bool {
	return r.Numerator == 0 || r.Denominator == 0
}

// Equal compare intervals, so 1/30 and 2/60 are equal
func (r Rate) Equal(other Rate) bool {
	if r.IsZero() || other.IsZero() {
		return r.IsZero() && other.IsZero()
	}
	return uint64(r.Numerator)*uint64(other.Denominator) == uint64(other.Numerator)*uint64(r.Denominator)
}

func (r Rate) FPS() float64 {
	if r.IsZero() {
		return 0
	}
	return float64(r.Denominator) / float64(r.Numerator)
}

// String - frame rate form: "30" for 1/30, "30000/1001" for 1001/30000
func (r Rate) String() string {
	if r.IsZero() {
		return ""
	}
	if r.Numerator == 1 {
		return strconv.FormatUint(uint64(r.Denominator), 10)
	}
	return strconv.FormatUint(uint64(r.Denominator), 10) + "/" + strconv.FormatUint(uint64(r.Numerator), 10)
}

// ParseRate - frame rate "30" or "30000/1001" to frame interval
func ParseRate(s string) (Rate, error) {
	if s == "" {
		return Rate{}, nil
	}

	num, den := s, "1"
	if i := strings.IndexByte(s, '/'); i > 0 {
		num, den = s[:i], s[i+1:]
	}

	fps, err1 := strconv.ParseUint(num, 10, 32)
	div, err2 := strconv.ParseUint(den, 10, 32)
	if err1 != nil || err2 != nil || fps == 0 || div == 0 {
		return Rate{}, newError(ErrUnsupported, "wrong framerate: "+s)
	}

	return Rate{Numerator: uint32(div), Denominator: uint32(fps)}, nil
}

// ParseSize - "1280x720"
func ParseSize(s string) (width, height int, err error) {
	if ws, hs, ok := strings.Cut(s, "x"); ok {
		width, _ = strconv.Atoi(ws)
		height, _ = strconv.Atoi(hs)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, newError(ErrUnsupported, "wrong video_size: "+s)
	}
	return
}

// Config - desired device configuration
type Config struct {
	Device string `json:"device"`
	Format Format `json:"format"`
	Rate   Rate   `json:"rate"`
}
