package camera

import (
	"errors"
	"fmt"
	"sync"

	"github.com/AlexxIT/camview/internal/app"
	"github.com/AlexxIT/camview/pkg/capture"
	"github.com/rs/zerolog"
)

// Camera - one capture session with its coordinator and delivery channel
type Camera struct {
	Device string

	open    capture.Opener
	coord   *capture.Coordinator
	out     *capture.Channel
	session *capture.Session
	log     zerolog.Logger

	mu   sync.Mutex
	err  error
	done chan struct{}
}

func New(device string, open capture.Opener, config capture.Config, out *capture.Channel, opts capture.Options) *Camera {
	config.Device = device

	c := &Camera{
		Device: device,
		open:   open,
		coord:  capture.NewCoordinator(config),
		out:    out,
		done:   make(chan struct{}),
	}

	if opts.Logger != nil {
		c.log = *opts.Logger
	} else {
		c.log = zerolog.Nop()
	}

	c.session = capture.NewSession(open, c.coord, out, opts)
	c.session.OnState(func(from, to capture.State) {
		c.log.Debug().Str("device", device).Stringer("from", from).Stringer("to", to).Msg("[camera] state")
	})

	return c
}

// Run - probe device and capture until Stop or fatal error
func (c *Camera) Run() error {
	defer close(c.done)

	if err := c.Probe(); err != nil {
		c.log.Warn().Err(err).Str("device", c.Device).Msg("[camera] probe")
	}

	err := c.session.Start()

	c.mu.Lock()
	c.err = err
	c.mu.Unlock()

	return err
}

func (c *Camera) Stop() {
	c.session.Stop()
}

// Frames - delivery channel, only one consumer allowed
func (c *Camera) Frames() *capture.Channel {
	return c.out
}

func (c *Camera) Done() <-chan struct{} {
	return c.done
}

func (c *Camera) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Camera) Coordinator() *capture.Coordinator {
	return c.coord
}

// Probe - read capabilities and complete partial config from the device current format.
// Works with a second device handle, so it may fail while the session is streaming.
func (c *Camera) Probe() error {
	dev, err := c.open()
	if err != nil {
		return fmt.Errorf("%w: %w", capture.ErrUnavailable, err)
	}
	defer dev.Close()

	caps, err := capture.ProbeDevice(dev)
	if err != nil {
		return err
	}

	c.coord.SetCapabilities(caps)

	current, _ := dev.GetFormat()
	rate, _ := dev.GetRate()

	config := c.coord.Config()
	format := complete(config.Format, current, caps)
	if format.Equal(config.Format) {
		return nil
	}

	if err = c.coord.Set(format, config.Rate); err != nil {
		c.log.Warn().Err(err).Stringer("format", format).Msg("[camera] config not supported, use device default")
		err = c.coord.Set(current, rate)
	}
	return err
}

// complete - fill zero fields from device current format or the first probed one
func complete(format, current capture.Format, caps *capture.Capabilities) capture.Format {
	if format.FourCC == 0 {
		if current.FourCC != 0 {
			format.FourCC = current.FourCC
		} else if len(caps.Formats) > 0 {
			format.FourCC = caps.Formats[0].FourCC
		}
	}

	if format.Width == 0 || format.Height == 0 {
		if current.FourCC == format.FourCC && current.Width > 0 {
			format.Width, format.Height = current.Width, current.Height
		} else if desc := caps.Format(format.FourCC); desc != nil && len(desc.Sizes) > 0 {
			format.Width, format.Height = desc.Sizes[0].Width, desc.Sizes[0].Height
		} else {
			format.Width, format.Height = current.Width, current.Height
		}
	}

	format.Stride = 0
	return format
}

type Request struct {
	InputFormat string `json:"input_format,omitempty"`
	VideoSize   string `json:"video_size,omitempty"`
	Framerate   string `json:"framerate,omitempty"`
}

// Apply - validate and publish new desired config, session picks it up on the next frame
func (c *Camera) Apply(req *Request) error {
	config, err := parseRequest(req)
	if err != nil {
		return err
	}

	format, rate := config.Format, config.Rate

	if format.IsZero() && rate.IsZero() {
		return fmt.Errorf("camera: %w: empty request", capture.ErrUnsupported)
	}

	if err = c.coord.Set(format, rate); err != nil {
		return err
	}

	c.log.Info().Stringer("format", format).Str("fps", rate.String()).Msg("[camera] apply")
	return nil
}

// Save - persist current desired config to the YAML file
func (c *Camera) Save() error {
	config := c.coord.Config()

	var inputFormat any
	if pf := config.Format.FourCC.Info(); pf != nil {
		inputFormat = pf.FFmpeg
	} else if config.Format.FourCC != 0 {
		inputFormat = config.Format.FourCC.String()
	}

	var videoSize any
	if config.Format.Width > 0 {
		videoSize = config.Format.Size()
	}

	var framerate any
	if !config.Rate.IsZero() {
		framerate = config.Rate.String()
	}

	return errors.Join(
		app.PatchConfig([]string{"camera", "input_format"}, inputFormat),
		app.PatchConfig([]string{"camera", "video_size"}, videoSize),
		app.PatchConfig([]string{"camera", "framerate"}, framerate),
	)
}

type Info struct {
	Device       string                `json:"device"`
	Config       capture.Config        `json:"config"`
	Session      *capture.Info         `json:"session"`
	Capabilities *capture.Capabilities `json:"capabilities,omitempty"`
	Queue        QueueInfo             `json:"queue"`
}

type QueueInfo struct {
	Size    int            `json:"size"`
	Policy  capture.Policy `json:"policy"`
	Sent    uint64         `json:"sent"`
	Dropped uint64         `json:"dropped"`
}

func (c *Camera) Info() *Info {
	return &Info{
		Device:       c.Device,
		Config:       c.coord.Config(),
		Session:      c.session.Info(),
		Capabilities: c.coord.Capabilities(),
		Queue: QueueInfo{
			Size:    c.out.Cap(),
			Policy:  c.out.Policy(),
			Sent:    c.out.Sent(),
			Dropped: c.out.Dropped(),
		},
	}
}
