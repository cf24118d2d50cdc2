//go:build linux && (386 || arm || amd64 || arm64)

package v4l2

import (
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/AlexxIT/camview/pkg/capture"
	"github.com/AlexxIT/camview/pkg/v4l2/device"
)

// Device - capture.Device over V4L2 ioctls
type Device struct {
	dev  *device.Device
	path string
}

func Open(path string) (*Device, error) {
	path = DevicePath(path)
	dev, err := device.Open(path)
	if err != nil {
		return nil, err
	}
	return &Device{dev: dev, path: path}, nil
}

func Opener(path string) capture.Opener {
	return func() (capture.Device, error) {
		return Open(path)
	}
}

func (d *Device) Info() (*capture.DeviceInfo, error) {
	c, err := d.dev.Capability()
	if err != nil {
		return nil, err
	}
	return &capture.DeviceInfo{
		Driver:    c.Driver,
		Card:      c.Card,
		BusInfo:   c.BusInfo,
		Version:   c.Version,
		IsCapture: c.IsCapture(),
	}, nil
}

func (d *Device) ListFormats() ([]capture.FourCC, error) {
	descs, err := d.dev.ListFormats()
	if err != nil {
		return nil, err
	}
	items := make([]capture.FourCC, 0, len(descs))
	for _, desc := range descs {
		items = append(items, capture.FourCC(desc.PixelFormat))
	}
	return items, nil
}

func (d *Device) ListSizes(fourcc capture.FourCC) ([][2]int, error) {
	sizes, err := d.dev.ListSizes(uint32(fourcc))
	if err != nil {
		return nil, err
	}
	items := make([][2]int, 0, len(sizes))
	for _, size := range sizes {
		items = append(items, [2]int{int(size[0]), int(size[1])})
	}
	return items, nil
}

func (d *Device) ListRates(fourcc capture.FourCC, width, height int) ([]capture.Rate, error) {
	intervals, err := d.dev.ListIntervals(uint32(fourcc), uint32(width), uint32(height))
	if err != nil {
		return nil, err
	}
	items := make([]capture.Rate, 0, len(intervals))
	for _, fi := range intervals {
		items = append(items, capture.Rate{Numerator: fi[0], Denominator: fi[1]})
	}
	return items, nil
}

func (d *Device) GetFormat() (capture.Format, error) {
	f, err := d.dev.GetFormat()
	if err != nil {
		return capture.Format{}, err
	}
	return newFormat(f), nil
}

func (d *Device) SetFormat(format capture.Format) (capture.Format, error) {
	f, err := d.dev.SetFormat(uint32(format.Width), uint32(format.Height), uint32(format.FourCC))
	if err != nil {
		return capture.Format{}, err
	}
	return newFormat(f), nil
}

func (d *Device) GetRate() (capture.Rate, error) {
	num, den, err := d.dev.GetParam()
	if err != nil {
		return capture.Rate{}, err
	}
	return capture.Rate{Numerator: num, Denominator: den}, nil
}

func (d *Device) SetRate(rate capture.Rate) (capture.Rate, error) {
	num, den, err := d.dev.SetParam(rate.Numerator, rate.Denominator)
	if err != nil {
		return capture.Rate{}, err
	}
	return capture.Rate{Numerator: num, Denominator: den}, nil
}

// NewStream - request and mmap buffers, driver may grant a different count
func (d *Device) NewStream(count int) (capture.Stream, error) {
	if err := d.dev.RequestBuffers(uint32(count)); err != nil {
		return nil, err
	}
	return &Stream{dev: d.dev, index: -1}, nil
}

func (d *Device) Close() error {
	return d.dev.Close()
}

func (d *Device) String() string {
	return d.path
}

type Stream struct {
	dev *device.Device
	// index - dequeued buffer, returned to the driver on the next read
	index int
}

func (s *Stream) Start() error {
	s.index = -1
	return s.dev.StreamOn()
}

func (s *Stream) Stop() error {
	s.index = -1
	return s.dev.StreamOff()
}

// Next - returned buffer data is valid until the next call
func (s *Stream) Next(timeout time.Duration) (*capture.Buffer, error) {
	if s.index >= 0 {
		err := s.dev.Queue(uint32(s.index))
		s.index = -1
		if err != nil {
			return nil, readError(err)
		}
	}

	ok, err := s.dev.Wait(timeout)
	if err != nil {
		return nil, readError(err)
	}
	if !ok {
		return nil, capture.ErrTimeout
	}

	buf, err := s.dev.Dequeue()
	if err != nil {
		return nil, readError(err)
	}

	s.index = int(buf.Index)

	if buf.Flags&device.V4L2_BUF_FLAG_ERROR != 0 {
		return nil, fmt.Errorf("v4l2: %w: buffer %d corrupted", capture.ErrTransient, buf.Index)
	}

	return &capture.Buffer{Data: buf.Data, Sequence: buf.Sequence, Timestamp: buf.Timestamp}, nil
}

// Close - stream must be stopped before
func (s *Stream) Close() error {
	return s.dev.ReleaseBuffers()
}

func readError(err error) error {
	if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EIO) {
		return fmt.Errorf("v4l2: %w: %w", capture.ErrTransient, err)
	}
	return err
}

func newFormat(f *device.Format) capture.Format {
	return capture.Format{
		FourCC: capture.FourCC(f.PixelFormat),
		Width:  int(f.Width),
		Height: int(f.Height),
		Stride: int(f.BytesPerLine),
	}
}
