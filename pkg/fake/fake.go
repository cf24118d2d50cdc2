package fake

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"time"

	"github.com/AlexxIT/camview/pkg/capture"
)

// Device - synthetic camera with moving color bars, works like a driver:
// best-effort format and rate, busy while buffers are allocated
type Device struct {
	mu     sync.Mutex
	format capture.Format
	rate   capture.Rate
	stream *Stream
	closed bool
}

var (
	Formats = []capture.FourCC{capture.FourCCYUYV, capture.FourCCUYVY, capture.FourCCGREY, capture.FourCCRGB3, capture.FourCCMJPG}
	Sizes   = [][2]int{{320, 240}, {640, 480}, {1280, 720}}
	Rates   = []capture.Rate{{Numerator: 1, Denominator: 30}, {Numerator: 1, Denominator: 15}, {Numerator: 1, Denominator: 5}}
)

var ErrBusy = errors.New("fake: device or resource busy")

func New() *Device {
	return &Device{
		format: capture.Format{FourCC: capture.FourCCYUYV, Width: 640, Height: 480, Stride: 640 * 2},
		rate:   Rates[0],
	}
}

func Opener() capture.Opener {
	return func() (capture.Device, error) {
		return New(), nil
	}
}

func (d *Device) Info() (*capture.DeviceInfo, error) {
	return &capture.DeviceInfo{Driver: "fake", Card: "Test Pattern", BusInfo: "platform:fake", Version: "1.0.0", IsCapture: true}, nil
}

func (d *Device) ListFormats() ([]capture.FourCC, error) {
	return Formats, nil
}

func (d *Device) ListSizes(fourcc capture.FourCC) ([][2]int, error) {
	return Sizes, nil
}

func (d *Device) ListRates(fourcc capture.FourCC, width, height int) ([]capture.Rate, error) {
	return Rates, nil
}

func (d *Device) GetFormat() (capture.Format, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.format, nil
}

// SetFormat - unknown pixel format falls back to YUYV, size to the nearest listed one
func (d *Device) SetFormat(format capture.Format) (capture.Format, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream != nil {
		return capture.Format{}, ErrBusy
	}

	if !hasFormat(format.FourCC) {
		format.FourCC = capture.FourCCYUYV
	}

	size := nearestSize(format.Width, format.Height)
	format.Width, format.Height = size[0], size[1]
	format.Stride = format.Width * format.FourCC.BytesPerPixel()

	d.format = format
	return format, nil
}

func (d *Device) GetRate() (capture.Rate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rate, nil
}

func (d *Device) SetRate(rate capture.Rate) (capture.Rate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream != nil && d.stream.started {
		return capture.Rate{}, ErrBusy
	}

	d.rate = nearestRate(rate)
	return d.rate, nil
}

func (d *Device) NewStream(count int) (capture.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, errors.New("fake: device closed")
	}
	if d.stream != nil {
		return nil, ErrBusy
	}

	d.stream = &Stream{dev: d}
	return d.stream, nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	d.closed = true
	d.stream = nil
	d.mu.Unlock()
	return nil
}

type Stream struct {
	dev     *Device
	started bool
	seq     uint32
	next    time.Time
	start   time.Time
}

func (s *Stream) Start() error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()

	if s.dev.stream != s {
		return errors.New("fake: stream released")
	}

	s.started = true
	s.start = time.Now()
	s.next = s.start
	return nil
}

func (s *Stream) Stop() error {
	s.dev.mu.Lock()
	s.started = false
	s.dev.mu.Unlock()
	return nil
}

func (s *Stream) Next(timeout time.Duration) (*capture.Buffer, error) {
	s.dev.mu.Lock()
	started := s.started
	format := s.dev.format
	rate := s.dev.rate
	s.dev.mu.Unlock()

	if !started {
		return nil, errors.New("fake: stream not started")
	}

	if wait := time.Until(s.next); wait > 0 {
		if timeout >= 0 && wait > timeout {
			time.Sleep(timeout)
			return nil, capture.ErrTimeout
		}
		time.Sleep(wait)
	}

	interval := time.Second / 30
	if !rate.IsZero() {
		interval = time.Duration(rate.Numerator) * time.Second / time.Duration(rate.Denominator)
	}
	s.next = s.next.Add(interval)
	if now := time.Now(); s.next.Before(now) {
		s.next = now
	}

	s.seq++

	data, err := Pattern(format, int(s.seq))
	if err != nil {
		return nil, err
	}

	return &capture.Buffer{Data: data, Sequence: s.seq, Timestamp: time.Since(s.start)}, nil
}

func (s *Stream) Close() error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()

	if s.started {
		return ErrBusy
	}
	if s.dev.stream == s {
		s.dev.stream = nil
	}
	return nil
}

// bars - classic color bars
var bars = []color.RGBA{
	{0xC0, 0xC0, 0xC0, 0xFF},
	{0xC0, 0xC0, 0x00, 0xFF},
	{0x00, 0xC0, 0xC0, 0xFF},
	{0x00, 0xC0, 0x00, 0xFF},
	{0xC0, 0x00, 0xC0, 0xFF},
	{0xC0, 0x00, 0x00, 0xFF},
	{0x00, 0x00, 0xC0, 0xFF},
	{0x10, 0x10, 0x10, 0xFF},
}

func barAt(x, width, shift int) color.RGBA {
	return bars[((x+shift)%width)*len(bars)/width]
}

// Pattern - color bars shifted by frame number in device pixel format
func Pattern(format capture.Format, n int) ([]byte, error) {
	w, h := format.Width, format.Height
	if w <= 0 || h <= 0 {
		return nil, errors.New("fake: wrong size")
	}

	shift := n * 4

	switch format.FourCC {
	case capture.FourCCMJPG, capture.FourCCJPEG:
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for x := 0; x < w; x++ {
			c := barAt(x, w, shift)
			for y := 0; y < h; y++ {
				img.SetRGBA(x, y, c)
			}
		}
		buf := bytes.NewBuffer(nil)
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 80}); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	bpp := format.FourCC.BytesPerPixel()
	if bpp == 0 {
		return nil, errors.New("fake: unsupported pixel format: " + format.FourCC.String())
	}

	line := make([]byte, w*bpp)

	for x := 0; x < w; x++ {
		c := barAt(x, w, shift)
		switch format.FourCC {
		case capture.FourCCRGB3:
			line[x*3], line[x*3+1], line[x*3+2] = c.R, c.G, c.B
		case capture.FourCCBGR3:
			line[x*3], line[x*3+1], line[x*3+2] = c.B, c.G, c.R
		case capture.FourCCGREY:
			line[x], _, _ = color.RGBToYCbCr(c.R, c.G, c.B)
		case capture.FourCCYUYV, capture.FourCCUYVY:
			yy, cb, cr := color.RGBToYCbCr(c.R, c.G, c.B)
			i := x * 2
			if format.FourCC == capture.FourCCYUYV {
				line[i] = yy
				if x%2 == 0 {
					line[i+1] = cb
				} else {
					line[i+1] = cr
				}
			} else {
				line[i+1] = yy
				if x%2 == 0 {
					line[i] = cb
				} else {
					line[i] = cr
				}
			}
		}
	}

	b := make([]byte, 0, len(line)*h)
	for y := 0; y < h; y++ {
		b = append(b, line...)
	}
	return b, nil
}

func hasFormat(fourcc capture.FourCC) bool {
	for _, f := range Formats {
		if f == fourcc {
			return true
		}
	}
	return false
}

func nearestSize(width, height int) [2]int {
	best := Sizes[0]
	bestDiff := -1
	for _, size := range Sizes {
		diff := abs(size[0]-width) + abs(size[1]-height)
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = size, diff
		}
	}
	return best
}

func nearestRate(rate capture.Rate) capture.Rate {
	if rate.IsZero() {
		return Rates[0]
	}
	best := Rates[0]
	for _, r := range Rates {
		if abs(int(r.FPS()-rate.FPS())) < abs(int(best.FPS()-rate.FPS())) {
			best = r
		}
	}
	return best
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
