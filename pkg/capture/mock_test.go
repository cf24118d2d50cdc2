package capture

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"sync"
	"time"
)

// mockDevice - scripted capture device
type mockDevice struct {
	mu sync.Mutex

	caps    *Capabilities
	format  Format
	rate    Rate
	streams []*mockStream

	notCapture bool
	// grant - device side adjustment of requested format
	grant      func(Format) Format
	rejectRate bool
	formatErr  error
	allocErr   error
	// next - optional override of buffer generation
	next   func(seq uint32) ([]byte, error)
	closed bool
}

func (d *mockDevice) opener() Opener {
	return func() (Device, error) {
		return d, nil
	}
}

func (d *mockDevice) Info() (*DeviceInfo, error) {
	return &DeviceInfo{Driver: "mock", Card: "Mock Camera", IsCapture: !d.notCapture}, nil
}

func (d *mockDevice) ListFormats() ([]FourCC, error) {
	var items []FourCC
	for _, desc := range d.caps.Formats {
		items = append(items, desc.FourCC)
	}
	return items, nil
}

func (d *mockDevice) ListSizes(fourcc FourCC) ([][2]int, error) {
	var items [][2]int
	if desc := d.caps.Format(fourcc); desc != nil {
		for _, size := range desc.Sizes {
			items = append(items, [2]int{size.Width, size.Height})
		}
	}
	return items, nil
}

func (d *mockDevice) ListRates(fourcc FourCC, width, height int) ([]Rate, error) {
	if desc := d.caps.Format(fourcc); desc != nil {
		if size := desc.Size(width, height); size != nil {
			return size.Rates, nil
		}
	}
	return nil, nil
}

func (d *mockDevice) GetFormat() (Format, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.format, nil
}

func (d *mockDevice) SetFormat(format Format) (Format, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.formatErr != nil {
		return Format{}, d.formatErr
	}
	for _, stream := range d.streams {
		if !stream.closed {
			return Format{}, errors.New("device busy")
		}
	}
	if d.grant != nil {
		format = d.grant(format)
	}
	format.Stride = format.Width * format.FourCC.BytesPerPixel()
	d.format = format
	return format, nil
}

func (d *mockDevice) GetRate() (Rate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rate, nil
}

func (d *mockDevice) SetRate(rate Rate) (Rate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.rejectRate {
		return Rate{}, errors.New("rate not supported")
	}
	for _, stream := range d.streams {
		if stream.started {
			return Rate{}, errors.New("device busy")
		}
	}
	d.rate = rate
	return rate, nil
}

func (d *mockDevice) NewStream(count int) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.allocErr != nil {
		return nil, d.allocErr
	}
	stream := &mockStream{dev: d, format: d.format, count: count}
	d.streams = append(d.streams, stream)
	return stream, nil
}

func (d *mockDevice) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

func (d *mockDevice) Allocations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.streams)
}

func (d *mockDevice) Stream(i int) *mockStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streams[i]
}

type mockStream struct {
	dev    *mockDevice
	format Format
	count  int

	started bool
	closed  bool
	starts  int
	stops   int
	seq     uint32
}

func (s *mockStream) Start() error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if s.closed {
		return errors.New("stream closed")
	}
	s.started = true
	s.starts++
	return nil
}

func (s *mockStream) Stop() error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if s.started {
		s.started = false
		s.stops++
	}
	return nil
}

func (s *mockStream) Next(timeout time.Duration) (*Buffer, error) {
	time.Sleep(time.Millisecond)

	s.dev.mu.Lock()
	if !s.started {
		s.dev.mu.Unlock()
		return nil, errors.New("stream not started")
	}
	s.seq++
	seq := s.seq
	format := s.format
	next := s.dev.next
	s.dev.mu.Unlock()

	if next != nil {
		data, err := next(seq)
		if err != nil {
			return nil, err
		}
		if data != nil {
			return &Buffer{Data: data, Sequence: seq}, nil
		}
	}

	return &Buffer{Data: testFrame(format), Sequence: seq, Timestamp: time.Duration(seq) * time.Millisecond}, nil
}

func (s *mockStream) Close() error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if s.started {
		return errors.New("stream not stopped")
	}
	s.closed = true
	return nil
}

func (s *mockStream) Counters() (starts, stops int, closed bool) {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	return s.starts, s.stops, s.closed
}

func testFrame(format Format) []byte {
	switch format.FourCC {
	case FourCCMJPG, FourCCJPEG:
		return testJPEG(format.Width, format.Height)
	}
	b := make([]byte, PayloadSize(format.FourCC, format.Width, format.Height))
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func testJPEG(width, height int) []byte {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	buf := bytes.NewBuffer(nil)
	_ = jpeg.Encode(buf, img, nil)
	return buf.Bytes()
}

func testCaps() *Capabilities {
	rates := []Rate{{1, 30}, {1, 15}}
	return &Capabilities{
		DeviceInfo: DeviceInfo{Driver: "mock", Card: "Mock Camera", IsCapture: true},
		Formats: []*FormatDesc{
			{
				FourCC: FourCCYUYV,
				Sizes: []*SizeDesc{
					{Width: 640, Height: 480, Rates: rates},
					{Width: 800, Height: 600, Rates: rates},
				},
			},
			{
				FourCC: FourCCMJPG,
				Sizes: []*SizeDesc{
					{Width: 640, Height: 480, Rates: rates},
					{Width: 32, Height: 16, Rates: rates},
				},
			},
		},
	}
}

func newMock() *mockDevice {
	return &mockDevice{
		caps:   testCaps(),
		format: Format{FourCC: FourCCYUYV, Width: 640, Height: 480},
		rate:   Rate{1, 30},
	}
}
