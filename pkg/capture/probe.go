package capture

type Capabilities struct {
	DeviceInfo
	Formats []*FormatDesc `json:"formats"`
}

type FormatDesc struct {
	FourCC FourCC      `json:"fourcc"`
	Name   string      `json:"name,omitempty"`
	Sizes  []*SizeDesc `json:"sizes,omitempty"`
}

type SizeDesc struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Rates  []Rate `json:"rates,omitempty"`
}

// Probe - open device, read capabilities and close it
func Probe(open Opener) (*Capabilities, error) {
	dev, err := open()
	if err != nil {
		return nil, wrapError(ErrUnavailable, err)
	}
	defer dev.Close()

	return ProbeDevice(dev)
}

// ProbeDevice - read capabilities of opened device. Missing sizes or rates
// mean "use default", enumeration errors for them are not fatal.
func ProbeDevice(dev Device) (*Capabilities, error) {
	info, err := dev.Info()
	if err != nil {
		return nil, wrapError(ErrUnavailable, err)
	}
	if !info.IsCapture {
		return nil, newError(ErrNotCapture, info.Card)
	}

	fourccs, err := dev.ListFormats()
	if err != nil {
		return nil, wrapError(ErrUnavailable, err)
	}

	caps := &Capabilities{DeviceInfo: *info}

	for _, fourcc := range fourccs {
		desc := &FormatDesc{FourCC: fourcc}
		if pf := fourcc.Info(); pf != nil {
			desc.Name = pf.Name
		}

		sizes, _ := dev.ListSizes(fourcc)
		for _, wh := range sizes {
			size := &SizeDesc{Width: wh[0], Height: wh[1]}
			size.Rates, _ = dev.ListRates(fourcc, wh[0], wh[1])
			desc.Sizes = append(desc.Sizes, size)
		}

		caps.Formats = append(caps.Formats, desc)
	}

	return caps, nil
}

func (c *Capabilities) Format(fourcc FourCC) *FormatDesc {
	if c == nil {
		return nil
	}
	for _, desc := range c.Formats {
		if desc.FourCC == fourcc {
			return desc
		}
	}
	return nil
}

func (d *FormatDesc) Size(width, height int) *SizeDesc {
	for _, size := range d.Sizes {
		if size.Width == width && size.Height == height {
			return size
		}
	}
	return nil
}

func (s *SizeDesc) HasRate(rate Rate) bool {
	for _, r := range s.Rates {
		if r.Equal(rate) {
			return true
		}
	}
	return false
}

// Validate - check config against probed capabilities, nil capabilities accept anything
func (c *Capabilities) Validate(format Format, rate Rate) error {
	if GetCodec(format.FourCC) == nil {
		return newError(ErrUnsupported, "no decoder for pixel format: "+format.FourCC.String())
	}

	if c == nil {
		return nil
	}

	desc := c.Format(format.FourCC)
	if desc == nil {
		return newError(ErrUnsupported, "pixel format not supported: "+format.FourCC.String())
	}

	// stepwise devices list no sizes, device will negotiate
	if len(desc.Sizes) == 0 {
		return nil
	}

	size := desc.Size(format.Width, format.Height)
	if size == nil {
		return newError(ErrUnsupported, "video size not supported: "+format.String())
	}

	if rate.IsZero() || len(size.Rates) == 0 {
		return nil
	}

	if !size.HasRate(rate) {
		return newError(ErrUnsupported, "framerate not supported: "+rate.String()+" for "+format.String())
	}

	return nil
}
