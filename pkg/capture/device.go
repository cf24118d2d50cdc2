package capture

import "time"

// Device - capture device collaborator. Only the capture goroutine calls it
// after the session opened it.
type Device interface {
	Info() (*DeviceInfo, error)

	ListFormats() ([]FourCC, error)
	// ListSizes - discrete sizes only, empty for stepwise devices
	ListSizes(fourcc FourCC) ([][2]int, error)
	// ListRates - discrete intervals only, empty for stepwise devices
	ListRates(fourcc FourCC, width, height int) ([]Rate, error)

	GetFormat() (Format, error)
	// SetFormat - best-effort, returns the granted format
	SetFormat(format Format) (Format, error)
	GetRate() (Rate, error)
	// SetRate - best-effort, returns the granted rate
	SetRate(rate Rate) (Rate, error)

	// NewStream - allocate count buffers for the current format
	NewStream(count int) (Stream, error)

	Close() error
}

type DeviceInfo struct {
	Driver    string `json:"driver,omitempty"`
	Card      string `json:"card,omitempty"`
	BusInfo   string `json:"bus_info,omitempty"`
	Version   string `json:"version,omitempty"`
	IsCapture bool   `json:"-"`
}

// Stream - allocated buffer stream, can be stopped and started many times
type Stream interface {
	Start() error
	Stop() error
	// Next - block until a buffer is ready or timeout (ErrTimeout).
	// Returned buffer is valid until the next call of Next, Stop or Close.
	Next(timeout time.Duration) (*Buffer, error)
	// Close - release buffers, stream must be stopped
	Close() error
}

// Buffer - device owned view of one frame
type Buffer struct {
	Data      []byte
	Sequence  uint32
	Timestamp time.Duration
}

type Opener func() (Device, error)
