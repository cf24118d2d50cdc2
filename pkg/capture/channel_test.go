package capture

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testFrames(n int) []*Frame {
	frames := make([]*Frame, n)
	for i := range frames {
		frames[i] = &Frame{Sequence: uint32(i + 1)}
	}
	return frames
}

func TestChannelOrder(t *testing.T) {
	ch := NewChannel(4, Block)
	for _, frame := range testFrames(4) {
		require.True(t, ch.Send(frame))
	}
	ch.Close()

	var seqs []uint32
	for {
		frame, ok := ch.Recv()
		if !ok {
			break
		}
		seqs = append(seqs, frame.Sequence)
	}
	require.Equal(t, []uint32{1, 2, 3, 4}, seqs)
	require.Equal(t, uint64(4), ch.Sent())
	require.Equal(t, uint64(0), ch.Dropped())
}

func TestChannelDropOldest(t *testing.T) {
	ch := NewChannel(2, DropOldest)
	for _, frame := range testFrames(5) {
		require.True(t, ch.Send(frame))
	}
	require.Equal(t, uint64(3), ch.Dropped())
	require.Equal(t, 2, ch.Len())

	frame, _ := ch.Recv()
	require.Equal(t, uint32(4), frame.Sequence)
	frame, _ = ch.Recv()
	require.Equal(t, uint32(5), frame.Sequence)
}

func TestChannelBlock(t *testing.T) {
	ch := NewChannel(1, Block)
	require.True(t, ch.Send(&Frame{Sequence: 1}))

	sent := make(chan bool)
	go func() {
		sent <- ch.Send(&Frame{Sequence: 2})
	}()

	select {
	case <-sent:
		require.FailNow(t, "send must block on full channel")
	case <-time.After(10 * time.Millisecond):
	}

	frame, _ := ch.Recv()
	require.Equal(t, uint32(1), frame.Sequence)
	require.True(t, <-sent)

	frame, _ = ch.Recv()
	require.Equal(t, uint32(2), frame.Sequence)
}

func TestChannelStop(t *testing.T) {
	ch := NewChannel(1, Block)
	require.True(t, ch.Send(&Frame{}))

	var wg sync.WaitGroup
	var sent bool
	wg.Add(1)
	go func() {
		sent = ch.Send(&Frame{})
		wg.Done()
	}()

	time.Sleep(5 * time.Millisecond)
	ch.Stop()
	wg.Wait()
	require.False(t, sent)

	// stop doesn't close, queued frame still available
	require.Equal(t, 1, ch.Len())
	require.False(t, ch.Send(&Frame{}))
}

func TestChannelClose(t *testing.T) {
	ch := NewChannel(2, DropOldest)
	require.True(t, ch.Send(&Frame{Sequence: 1}))
	ch.Close()
	ch.Close()

	require.False(t, ch.Send(&Frame{Sequence: 2}))

	frame, ok := ch.Recv()
	require.True(t, ok)
	require.Equal(t, uint32(1), frame.Sequence)

	_, ok = ch.Recv()
	require.False(t, ok)
}

func TestChannelSize(t *testing.T) {
	require.Equal(t, DefaultQueueSize, NewChannel(0, Block).Cap())
	require.Equal(t, MaxQueueSize, NewChannel(100, Block).Cap())
	require.Equal(t, 3, NewChannel(3, Block).Cap())
}

func TestParsePolicy(t *testing.T) {
	for s, policy := range map[string]Policy{
		"":            DropOldest,
		"drop":        DropOldest,
		"drop_oldest": DropOldest,
		"Block":       Block,
	} {
		p, err := ParsePolicy(s)
		require.NoError(t, err)
		require.Equal(t, policy, p, s)
	}

	_, err := ParsePolicy("drop_newest")
	require.Error(t, err)
	require.Equal(t, "drop_oldest", DropOldest.String())
}
