//go:build linux

package device

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/AlexxIT/camview/pkg/ioctl"
	"golang.org/x/sys/unix"
)

type Device struct {
	fd   int
	bufs [][]byte
}

func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	return &Device{fd: fd}, nil
}

type Capability struct {
	Driver       string
	Card         string
	BusInfo      string
	Version      string
	Capabilities uint32
	DeviceCaps   uint32
}

// IsCapture - device supports video capture with streaming I/O
func (c *Capability) IsCapture() bool {
	caps := c.Capabilities
	if caps&V4L2_CAP_DEVICE_CAPS != 0 {
		caps = c.DeviceCaps
	}
	return caps&V4L2_CAP_VIDEO_CAPTURE != 0 && caps&V4L2_CAP_STREAMING != 0
}

func (d *Device) Capability() (*Capability, error) {
	c := v4l2_capability{}
	if err := ioctl.Ioctl(d.fd, VIDIOC_QUERYCAP, unsafe.Pointer(&c)); err != nil {
		return nil, err
	}
	return &Capability{
		Driver:       ioctl.Str(c.driver[:]),
		Card:         ioctl.Str(c.card[:]),
		BusInfo:      ioctl.Str(c.bus_info[:]),
		Version:      fmt.Sprintf("%d.%d.%d", byte(c.version>>16), byte(c.version>>8), byte(c.version)),
		Capabilities: c.capabilities,
		DeviceCaps:   c.device_caps,
	}, nil
}

type FormatDesc struct {
	PixelFormat uint32
	Description string
}

func (d *Device) ListFormats() ([]FormatDesc, error) {
	var items []FormatDesc

	for i := uint32(0); ; i++ {
		fd := v4l2_fmtdesc{
			index: i,
			typ:   V4L2_BUF_TYPE_VIDEO_CAPTURE,
		}
		if err := ioctl.Ioctl(d.fd, VIDIOC_ENUM_FMT, unsafe.Pointer(&fd)); err != nil {
			if !errors.Is(err, unix.EINVAL) {
				return nil, err
			}
			break
		}

		items = append(items, FormatDesc{PixelFormat: fd.pixelformat, Description: ioctl.Str(fd.description[:])})
	}

	return items, nil
}

// ListSizes - only discrete sizes, stepwise and continuous are skipped
func (d *Device) ListSizes(pixFmt uint32) ([][2]uint32, error) {
	var items [][2]uint32

	for i := uint32(0); ; i++ {
		fs := v4l2_frmsizeenum{
			index:        i,
			pixel_format: pixFmt,
		}
		if err := ioctl.Ioctl(d.fd, VIDIOC_ENUM_FRAMESIZES, unsafe.Pointer(&fs)); err != nil {
			if !errors.Is(err, unix.EINVAL) {
				return nil, err
			}
			break
		}

		if fs.typ != V4L2_FRMSIZE_TYPE_DISCRETE {
			break
		}

		items = append(items, [2]uint32{fs.discrete.width, fs.discrete.height})
	}

	return items, nil
}

// ListIntervals - discrete frame intervals as numerator/denominator pairs
func (d *Device) ListIntervals(pixFmt, width, height uint32) ([][2]uint32, error) {
	var items [][2]uint32

	for i := uint32(0); ; i++ {
		fi := v4l2_frmivalenum{
			index:        i,
			pixel_format: pixFmt,
			width:        width,
			height:       height,
		}
		if err := ioctl.Ioctl(d.fd, VIDIOC_ENUM_FRAMEINTERVALS, unsafe.Pointer(&fi)); err != nil {
			if !errors.Is(err, unix.EINVAL) {
				return nil, err
			}
			break
		}

		if fi.typ != V4L2_FRMIVAL_TYPE_DISCRETE {
			break
		}

		items = append(items, [2]uint32{fi.discrete.numerator, fi.discrete.denominator})
	}

	return items, nil
}

type Format struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	BytesPerLine uint32
	SizeImage    uint32
}

func (d *Device) GetFormat() (*Format, error) {
	f := v4l2_format{typ: V4L2_BUF_TYPE_VIDEO_CAPTURE}
	if err := ioctl.Ioctl(d.fd, VIDIOC_G_FMT, unsafe.Pointer(&f)); err != nil {
		return nil, err
	}
	return newFormat(&f.pix), nil
}

// SetFormat - driver may adjust any field, returns the format it actually applied
func (d *Device) SetFormat(width, height, pixFmt uint32) (*Format, error) {
	f := v4l2_format{
		typ: V4L2_BUF_TYPE_VIDEO_CAPTURE,
		pix: v4l2_pix_format{
			width:       width,
			height:      height,
			pixelformat: pixFmt,
			field:       V4L2_FIELD_NONE,
			colorspace:  V4L2_COLORSPACE_DEFAULT,
		},
	}
	if err := ioctl.Ioctl(d.fd, VIDIOC_S_FMT, unsafe.Pointer(&f)); err != nil {
		return nil, err
	}
	return newFormat(&f.pix), nil
}

var ErrNoFrameInterval = errors.New("v4l2: device doesn't support frame interval")

func (d *Device) GetParam() (numerator, denominator uint32, err error) {
	p := v4l2_streamparm{typ: V4L2_BUF_TYPE_VIDEO_CAPTURE}
	if err = ioctl.Ioctl(d.fd, VIDIOC_G_PARM, unsafe.Pointer(&p)); err != nil {
		return
	}
	if p.capture.capability&V4L2_CAP_TIMEPERFRAME == 0 {
		return 0, 0, ErrNoFrameInterval
	}
	tpf := p.capture.timeperframe
	return tpf.numerator, tpf.denominator, nil
}

// SetParam - set frame interval, returns the interval the driver applied
func (d *Device) SetParam(numerator, denominator uint32) (uint32, uint32, error) {
	p := v4l2_streamparm{
		typ: V4L2_BUF_TYPE_VIDEO_CAPTURE,
		capture: v4l2_captureparm{
			timeperframe: v4l2_fract{numerator: numerator, denominator: denominator},
		},
	}
	if err := ioctl.Ioctl(d.fd, VIDIOC_S_PARM, unsafe.Pointer(&p)); err != nil {
		return 0, 0, err
	}
	if p.capture.capability&V4L2_CAP_TIMEPERFRAME == 0 {
		return 0, 0, ErrNoFrameInterval
	}
	tpf := p.capture.timeperframe
	return tpf.numerator, tpf.denominator, nil
}

// RequestBuffers - allocate and mmap count driver buffers
func (d *Device) RequestBuffers(count uint32) (err error) {
	rb := v4l2_requestbuffers{
		count:  count,
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	if err = ioctl.Ioctl(d.fd, VIDIOC_REQBUFS, unsafe.Pointer(&rb)); err != nil {
		return err
	}
	if rb.count == 0 {
		return errors.New("v4l2: no buffers granted")
	}

	d.bufs = make([][]byte, rb.count)
	for i := uint32(0); i < rb.count; i++ {
		qb := v4l2_buffer{
			index:  i,
			typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
			memory: V4L2_MEMORY_MMAP,
		}
		if err = ioctl.Ioctl(d.fd, VIDIOC_QUERYBUF, unsafe.Pointer(&qb)); err != nil {
			_ = d.ReleaseBuffers()
			return err
		}

		if d.bufs[i], err = unix.Mmap(
			d.fd, int64(qb.offset), int(qb.length), unix.PROT_READ, unix.MAP_SHARED,
		); err != nil {
			_ = d.ReleaseBuffers()
			return err
		}
	}

	return nil
}

// ReleaseBuffers - unmap buffers and free them in the driver
func (d *Device) ReleaseBuffers() error {
	for i := range d.bufs {
		if d.bufs[i] != nil {
			_ = unix.Munmap(d.bufs[i])
		}
	}
	d.bufs = nil

	rb := v4l2_requestbuffers{
		count:  0,
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	return ioctl.Ioctl(d.fd, VIDIOC_REQBUFS, unsafe.Pointer(&rb))
}

func (d *Device) BuffersCount() int {
	return len(d.bufs)
}

// StreamOn - queue all buffers and start streaming
func (d *Device) StreamOn() error {
	for i := range d.bufs {
		if err := d.Queue(uint32(i)); err != nil {
			return err
		}
	}

	typ := uint32(V4L2_BUF_TYPE_VIDEO_CAPTURE)
	return ioctl.Ioctl(d.fd, VIDIOC_STREAMON, unsafe.Pointer(&typ))
}

// StreamOff - stop streaming, driver returns all buffers to dequeued state
func (d *Device) StreamOff() error {
	typ := uint32(V4L2_BUF_TYPE_VIDEO_CAPTURE)
	return ioctl.Ioctl(d.fd, VIDIOC_STREAMOFF, unsafe.Pointer(&typ))
}

// Wait - block until a buffer is ready or timeout, negative timeout waits forever
func (d *Device) Wait(timeout time.Duration) (bool, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, nil
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return false, unix.EIO
		}
		return true, nil
	}
}

type Buffer struct {
	Index     uint32
	Flags     uint32
	Sequence  uint32
	Timestamp time.Duration
	// Data - view of the mmap memory, valid until Queue(Index)
	Data []byte
}

func (d *Device) Dequeue() (*Buffer, error) {
	b := v4l2_buffer{
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
	}
	if err := ioctl.Ioctl(d.fd, VIDIOC_DQBUF, unsafe.Pointer(&b)); err != nil {
		return nil, err
	}

	if int(b.index) >= len(d.bufs) {
		return nil, fmt.Errorf("v4l2: wrong buffer index %d", b.index)
	}

	ts := time.Duration(b.sec)*time.Second + time.Duration(b.usec)*time.Microsecond

	return &Buffer{
		Index:     b.index,
		Flags:     b.flags,
		Sequence:  b.sequence,
		Timestamp: ts,
		Data:      d.bufs[b.index][:b.bytesused],
	}, nil
}

func (d *Device) Queue(index uint32) error {
	b := v4l2_buffer{
		typ:    V4L2_BUF_TYPE_VIDEO_CAPTURE,
		memory: V4L2_MEMORY_MMAP,
		index:  index,
	}
	return ioctl.Ioctl(d.fd, VIDIOC_QBUF, unsafe.Pointer(&b))
}

func (d *Device) Close() error {
	return unix.Close(d.fd)
}

func newFormat(pix *v4l2_pix_format) *Format {
	return &Format{
		Width:        pix.width,
		Height:       pix.height,
		PixelFormat:  pix.pixelformat,
		BytesPerLine: pix.bytesperline,
		SizeImage:    pix.sizeimage,
	}
}
