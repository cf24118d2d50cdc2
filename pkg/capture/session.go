package capture

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type State byte

const (
	StateClosed State = iota
	StateNegotiating
	StateStreaming
	StateRebuildingFormat
	StateRebuildingRate
	StateFatal
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateNegotiating:
		return "negotiating"
	case StateStreaming:
		return "streaming"
	case StateRebuildingFormat:
		return "rebuilding_format"
	case StateRebuildingRate:
		return "rebuilding_rate"
	case StateFatal:
		return "fatal"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const (
	DefaultBuffers = 4
	DefaultRetries = 5
	DefaultTimeout = time.Second
)

type Options struct {
	// Buffers - count of device buffers in the stream
	Buffers int
	// Retries - consecutive transient read errors before the session fails
	Retries int
	// Timeout - single wait for the next buffer, the loop re-checks shutdown and drift after it
	Timeout time.Duration
	// Watchdog - warn once when the device is silent longer, zero disables
	Watchdog time.Duration

	Logger *zerolog.Logger
}

type Session struct {
	ID string

	open  Opener
	coord *Coordinator
	out   *Channel
	opts  Options
	log   zerolog.Logger

	// owned by the capture goroutine
	dev           Device
	stream        Stream
	codec         Codec
	requested     Format
	requestedRate Rate

	mu      sync.Mutex
	state   State
	format  Format
	rate    Rate
	err     error
	onState []func(from, to State)

	started atomic.Bool
	stop    atomic.Bool

	frames         atomic.Uint64
	decodeErrors   atomic.Uint64
	readErrors     atomic.Uint64
	formatRebuilds atomic.Uint64
	rateRebuilds   atomic.Uint64
	allocations    atomic.Uint64
}

func NewSession(open Opener, coord *Coordinator, out *Channel, opts Options) *Session {
	if opts.Buffers <= 0 {
		opts.Buffers = DefaultBuffers
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	s := &Session{
		ID:    uuid.NewString(),
		open:  open,
		coord: coord,
		out:   out,
		opts:  opts,
	}

	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("session", s.ID).Logger()
	} else {
		s.log = zerolog.Nop()
	}

	return s
}

// OnState - add transitions listener, called from the capture goroutine
func (s *Session) OnState(f func(from, to State)) {
	s.mu.Lock()
	s.onState = append(s.onState, f)
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start - run capture loop until Stop or fatal error.
// Output channel and device are always closed on return.
func (s *Session) Start() (err error) {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("capture: session already started")
	}

	defer func() {
		s.release()
		s.out.Close()

		s.mu.Lock()
		s.err = err
		s.mu.Unlock()

		if err != nil {
			s.log.Error().Err(err).Msg("[capture] session failed")
			s.setState(StateFatal)
		} else {
			s.log.Debug().Msg("[capture] session closed")
			s.setState(StateClosed)
		}
	}()

	s.setState(StateNegotiating)

	dev, err := s.open()
	if err != nil {
		return wrapError(ErrOpen, err)
	}
	s.dev = dev

	info, err := dev.Info()
	if err != nil {
		return wrapError(ErrOpen, err)
	}
	if !info.IsCapture {
		return newError(ErrNotCapture, info.Card)
	}

	if err = s.negotiate(s.coord.Config()); err != nil {
		return err
	}

	s.setState(StateStreaming)

	return s.loop()
}

// Stop - cooperative, observed by the loop at the next iteration
func (s *Session) Stop() {
	s.stop.Store(true)
	s.out.Stop()
}

func (s *Session) loop() error {
	var retries int
	var silence time.Duration

	for !s.stop.Load() {
		config := s.coord.Config()

		// format drift supersedes rate drift
		switch formatDrift, rateDrift := s.drift(config); {
		case formatDrift:
			if err := s.rebuildFormat(config); err != nil {
				return err
			}
		case rateDrift:
			if err := s.rebuildRate(config); err != nil {
				return err
			}
		}

		buf, err := s.stream.Next(s.opts.Timeout)
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				silence += s.opts.Timeout
				if s.opts.Watchdog > 0 && silence >= s.opts.Watchdog && silence-s.opts.Timeout < s.opts.Watchdog {
					s.log.Warn().Dur("silence", silence).Msg("[capture] device doesn't send frames")
				}
				continue
			}

			s.readErrors.Add(1)

			if errors.Is(err, ErrTransient) && retries < s.opts.Retries {
				retries++
				s.log.Debug().Err(err).Int("retry", retries).Msg("[capture] read buffer")
				continue
			}

			return wrapError(ErrRead, err)
		}

		retries = 0
		silence = 0

		frame, err := s.decode(buf)
		if err != nil {
			s.decodeErrors.Add(1)
			s.log.Warn().Err(err).Uint32("seq", buf.Sequence).Msg("[capture] drop frame")
			continue
		}

		s.frames.Add(1)

		if !s.out.Send(frame) {
			break
		}
	}

	return nil
}

// drift - compare desired config with the last request and the granted values.
// Desired value equal to the granted one is adopted as the request, no rebuild.
func (s *Session) drift(config Config) (formatDrift, rateDrift bool) {
	if f := config.Format; !f.IsZero() && !f.Equal(s.requested) {
		if f.Equal(s.format) {
			s.requested = f
		} else {
			formatDrift = true
		}
	}

	if r := config.Rate; !r.IsZero() && !r.Equal(s.requestedRate) {
		if r.Equal(s.rate) {
			s.requestedRate = r
		} else {
			rateDrift = true
		}
	}

	return
}

// negotiate - set format and rate, allocate and start a new stream
func (s *Session) negotiate(config Config) error {
	request := config.Format
	if request.IsZero() {
		current, err := s.dev.GetFormat()
		if err != nil {
			return wrapError(ErrFormatRejected, err)
		}
		request = current
	}

	format, err := s.dev.SetFormat(request)
	if err != nil {
		return wrapError(ErrFormatRejected, err)
	}

	codec := GetCodec(format.FourCC)
	if codec == nil {
		return newError(ErrFormatRejected, "no decoder for "+format.String())
	}

	if !format.Equal(request) {
		s.log.Info().Stringer("request", request).Stringer("granted", format).Msg("[capture] device changed format")
	}

	s.requested = config.Format
	s.codec = codec

	rate := s.applyRate(config.Rate)

	stream, err := s.dev.NewStream(s.opts.Buffers)
	if err != nil {
		return wrapError(ErrAllocation, err)
	}
	s.allocations.Add(1)
	s.stream = stream

	if err = stream.Start(); err != nil {
		return wrapError(ErrAllocation, err)
	}

	s.mu.Lock()
	s.format = format
	s.rate = rate
	s.mu.Unlock()

	s.log.Debug().Stringer("format", format).Str("fps", rate.String()).Msg("[capture] stream started")

	return nil
}

// applyRate - best-effort, rejected rate keeps the current device rate
func (s *Session) applyRate(rate Rate) Rate {
	s.requestedRate = rate

	if !rate.IsZero() {
		granted, err := s.dev.SetRate(rate)
		if err == nil {
			return granted
		}
		s.log.Warn().Err(err).Str("fps", rate.String()).Msg("[capture] set framerate")
	}

	current, err := s.dev.GetRate()
	if err != nil {
		return Rate{}
	}
	return current
}

func (s *Session) rebuildFormat(config Config) error {
	s.setState(StateRebuildingFormat)

	if err := s.stream.Stop(); err != nil {
		return wrapError(ErrAllocation, err)
	}

	err := s.stream.Close()
	s.stream = nil
	if err != nil {
		return wrapError(ErrAllocation, err)
	}

	if err = s.negotiate(config); err != nil {
		return err
	}

	s.formatRebuilds.Add(1)
	s.setState(StateStreaming)
	return nil
}

// rebuildRate - frame interval doesn't change buffers layout, so the same stream is restarted
func (s *Session) rebuildRate(config Config) error {
	s.setState(StateRebuildingRate)

	if err := s.stream.Stop(); err != nil {
		return wrapError(ErrAllocation, err)
	}

	rate := s.applyRate(config.Rate)

	if err := s.stream.Start(); err != nil {
		return wrapError(ErrAllocation, err)
	}

	s.mu.Lock()
	s.rate = rate
	s.mu.Unlock()

	s.log.Debug().Str("fps", rate.String()).Msg("[capture] framerate changed")

	s.rateRebuilds.Add(1)
	s.setState(StateStreaming)
	return nil
}

func (s *Session) decode(buf *Buffer) (*Frame, error) {
	payload, err := s.codec.Decode(buf.Data, s.format)
	if err != nil {
		return nil, err
	}

	frame := &Frame{
		Format:    s.format,
		Layout:    s.codec.Layout(),
		Payload:   payload,
		Sequence:  buf.Sequence,
		Timestamp: buf.Timestamp,
	}
	if !frame.Valid() {
		return nil, newError(ErrDecode, "payload doesn't match "+s.format.String())
	}

	return frame, nil
}

func (s *Session) release() {
	if s.stream != nil {
		_ = s.stream.Stop()
		_ = s.stream.Close()
		s.stream = nil
	}
	if s.dev != nil {
		_ = s.dev.Close()
		s.dev = nil
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	from := s.state
	s.state = state
	listeners := s.onState
	s.mu.Unlock()

	if from == state {
		return
	}

	s.log.Trace().Stringer("from", from).Stringer("to", state).Msg("[capture] state")

	for _, f := range listeners {
		f(from, state)
	}
}

type Info struct {
	ID     string `json:"id"`
	State  State  `json:"state"`
	Format Format `json:"format"`
	Rate   Rate   `json:"rate"`
	FPS    string `json:"fps,omitempty"`
	Error  string `json:"error,omitempty"`

	Frames         uint64 `json:"frames"`
	DecodeErrors   uint64 `json:"decode_errors"`
	ReadErrors     uint64 `json:"read_errors"`
	FormatRebuilds uint64 `json:"format_rebuilds"`
	RateRebuilds   uint64 `json:"rate_rebuilds"`
	Allocations    uint64 `json:"allocations"`
	Dropped        uint64 `json:"dropped"`
}

func (s *Session) Info() *Info {
	s.mu.Lock()
	info := &Info{
		ID:     s.ID,
		State:  s.state,
		Format: s.format,
		Rate:   s.rate,
		FPS:    s.rate.String(),
	}
	if s.err != nil {
		info.Error = s.err.Error()
	}
	s.mu.Unlock()

	info.Frames = s.frames.Load()
	info.DecodeErrors = s.decodeErrors.Load()
	info.ReadErrors = s.readErrors.Load()
	info.FormatRebuilds = s.formatRebuilds.Load()
	info.RateRebuilds = s.rateRebuilds.Load()
	info.Allocations = s.allocations.Load()
	info.Dropped = s.out.Dropped()
	return info
}

// Err - fatal error after Start returned
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
