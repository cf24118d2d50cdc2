package mjpeg

import (
	"sync"
	"time"

	"github.com/AlexxIT/camview/pkg/capture"
	"github.com/AlexxIT/camview/pkg/mjpeg"
	"github.com/rs/zerolog"
)

// Preview - the only consumer of the capture channel, keeps the latest JPEG for viewers
type Preview struct {
	enc *mjpeg.Encoder
	log zerolog.Logger

	mu      sync.Mutex
	jpeg    []byte
	format  capture.Format
	seq     uint32
	updated time.Time
	viewers map[chan []byte]struct{}
	closed  bool

	frames  uint64
	errors  uint64
	changes uint64
}

func NewPreview(quality int, log zerolog.Logger) *Preview {
	return &Preview{
		enc:     mjpeg.NewEncoder(quality),
		log:     log,
		viewers: map[chan []byte]struct{}{},
	}
}

// Run - read frames until end of stream, format may change between any two frames
func (p *Preview) Run(ch *capture.Channel) {
	for {
		frame, ok := ch.Recv()
		if !ok {
			break
		}

		b, err := p.enc.Encode(frame)
		if err != nil {
			p.mu.Lock()
			p.errors++
			p.mu.Unlock()
			p.log.Debug().Err(err).Uint32("seq", frame.Sequence).Msg("[mjpeg] encode")
			continue
		}

		p.publish(frame, b)
	}

	p.close()
}

func (p *Preview) publish(frame *capture.Frame, b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.format.Equal(frame.Format) {
		if !p.format.IsZero() {
			p.changes++
		}
		p.log.Debug().Stringer("format", frame.Format).Msg("[mjpeg] preview format")
		p.format = frame.Format
	}

	p.jpeg = b
	p.seq = frame.Sequence
	p.updated = time.Now()
	p.frames++

	for ch := range p.viewers {
		// slow viewer gets the newest image only
		select {
		case ch <- b:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- b:
			default:
			}
		}
	}
}

func (p *Preview) close() {
	p.mu.Lock()
	p.closed = true
	for ch := range p.viewers {
		delete(p.viewers, ch)
		close(ch)
	}
	p.mu.Unlock()
}

// Latest - last JPEG and its age, nil before the first frame
func (p *Preview) Latest() ([]byte, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jpeg, p.updated
}

// Subscribe - channel with every new JPEG, closed on end of stream or by the returned func
func (p *Preview) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 1)

	p.mu.Lock()
	if p.closed {
		close(ch)
	} else {
		p.viewers[ch] = struct{}{}
	}
	p.mu.Unlock()

	return ch, func() {
		p.mu.Lock()
		if _, ok := p.viewers[ch]; ok {
			delete(p.viewers, ch)
			close(ch)
		}
		p.mu.Unlock()
	}
}

// Wait - latest JPEG or the next one within timeout
func (p *Preview) Wait(timeout time.Duration) []byte {
	if b, _ := p.Latest(); b != nil {
		return b
	}

	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()

	select {
	case b := <-ch:
		return b
	case <-time.After(timeout):
		return nil
	}
}

type Stats struct {
	Format  capture.Format `json:"format"`
	Seq     uint32         `json:"seq"`
	Frames  uint64         `json:"frames"`
	Errors  uint64         `json:"errors"`
	Changes uint64         `json:"changes"`
	Viewers int            `json:"viewers"`
}

func (p *Preview) Stats() *Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &Stats{
		Format:  p.format,
		Seq:     p.seq,
		Frames:  p.frames,
		Errors:  p.errors,
		Changes: p.changes,
		Viewers: len(p.viewers),
	}
}
