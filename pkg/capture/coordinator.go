package capture

import (
	"sync"
)

// Coordinator - desired device config shared between control and capture goroutines.
// Writes are validated against the last probed capabilities, never against the live device.
type Coordinator struct {
	mu      sync.Mutex
	config  Config
	caps    *Capabilities
	version uint64
}

func NewCoordinator(initial Config) *Coordinator {
	return &Coordinator{config: initial}
}

// Config - consistent snapshot of the whole tuple
func (c *Coordinator) Config() Config {
	c.mu.Lock()
	config := c.config
	c.mu.Unlock()
	return config
}

// Version - incremented on every accepted write
func (c *Coordinator) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

func (c *Coordinator) Capabilities() *Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps
}

func (c *Coordinator) SetCapabilities(caps *Capabilities) {
	c.mu.Lock()
	c.caps = caps
	c.mu.Unlock()
}

func (c *Coordinator) SetResolution(width, height int) error {
	if width <= 0 || height <= 0 {
		return newError(ErrUnsupported, "wrong video size")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	format := c.config.Format
	format.Width = width
	format.Height = height
	return c.apply(format, c.config.Rate, true)
}

func (c *Coordinator) SetPixelFormat(fourcc FourCC) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	format := c.config.Format
	format.FourCC = fourcc
	return c.apply(format, c.config.Rate, true)
}

func (c *Coordinator) SetFrameRate(numerator, denominator uint32) error {
	if numerator == 0 || denominator == 0 {
		return newError(ErrUnsupported, "wrong frame interval")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.apply(c.config.Format, Rate{Numerator: numerator, Denominator: denominator}, false)
}

// Set - change format and rate at once, zero fields keep current values
func (c *Coordinator) Set(format Format, rate Rate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if format.FourCC == 0 {
		format.FourCC = c.config.Format.FourCC
	}
	if format.Width == 0 || format.Height == 0 {
		format.Width = c.config.Format.Width
		format.Height = c.config.Format.Height
	}

	keepRate := rate.IsZero()
	if keepRate {
		rate = c.config.Rate
	}

	return c.apply(format, rate, keepRate)
}

// apply - must be called under lock. When the current rate is not valid
// for the new format it falls back to device default instead of rejecting.
func (c *Coordinator) apply(format Format, rate Rate, keepRate bool) error {
	format.Stride = 0

	if err := c.caps.Validate(format, rate); err != nil {
		if !keepRate || rate.IsZero() {
			return err
		}
		if err = c.caps.Validate(format, Rate{}); err != nil {
			return err
		}
		rate = Rate{}
	}

	if format.Equal(c.config.Format) && rate.Equal(c.config.Rate) {
		return nil
	}

	c.config.Format = format
	c.config.Rate = rate
	c.version++
	return nil
}
