package capture

import "time"

// Frame - one message of the delivery channel, format and payload always travel together
type Frame struct {
	// Format - negotiated device format the frame was captured with
	Format Format
	// Layout - pixel layout of Payload
	Layout  FourCC
	Payload []byte

	Sequence  uint32
	Timestamp time.Duration
}

// Valid - payload length matches layout and size
func (f *Frame) Valid() bool {
	size := PayloadSize(f.Layout, f.Format.Width, f.Format.Height)
	return size > 0 && len(f.Payload) == size
}
