package mjpeg

import (
	"bytes"
	"context"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AlexxIT/camview/pkg/capture"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testFrame(fourcc capture.FourCC, w, h int, seq uint32) *capture.Frame {
	return &capture.Frame{
		Format:   capture.Format{FourCC: fourcc, Width: w, Height: h},
		Layout:   fourcc,
		Payload:  make([]byte, capture.PayloadSize(fourcc, w, h)),
		Sequence: seq,
	}
}

func TestPreview(t *testing.T) {
	ch := capture.NewChannel(4, capture.Block)
	p := NewPreview(50, zerolog.Nop())

	require.True(t, ch.Send(testFrame(capture.FourCCYUYV, 64, 48, 1)))
	require.True(t, ch.Send(&capture.Frame{Layout: capture.FourCCYUYV, Sequence: 2})) // broken
	require.True(t, ch.Send(testFrame(capture.FourCCRGB3, 32, 16, 3)))
	ch.Close()

	p.Run(ch)

	b, updated := p.Latest()
	require.NotNil(t, b)
	require.False(t, updated.IsZero())

	img, err := jpeg.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	require.Equal(t, 32, img.Bounds().Dx())

	stats := p.Stats()
	require.Equal(t, uint64(2), stats.Frames)
	require.Equal(t, uint64(1), stats.Errors)
	require.Equal(t, uint64(1), stats.Changes)
	require.Equal(t, uint32(3), stats.Seq)

	// end of stream closes new viewers
	sub, _ := p.Subscribe()
	_, ok := <-sub
	require.False(t, ok)
}

func TestPreviewViewers(t *testing.T) {
	ch := capture.NewChannel(2, capture.Block)
	p := NewPreview(0, zerolog.Nop())

	fast, unsubscribe := p.Subscribe()
	slow, _ := p.Subscribe()

	go p.Run(ch)

	require.Nil(t, p.Wait(10*time.Millisecond))

	for i := uint32(1); i <= 3; i++ {
		require.True(t, ch.Send(testFrame(capture.FourCCGREY, 16, 16, i)))
		require.NotNil(t, <-fast)
	}

	// slow viewer keeps only the newest image
	require.Eventually(t, func() bool {
		return p.Stats().Frames == 3
	}, time.Second, time.Millisecond)
	require.Len(t, slow, 1)

	unsubscribe()
	require.Equal(t, 1, p.Stats().Viewers)

	require.NotNil(t, p.Wait(time.Second))

	ch.Close()
	require.Eventually(t, func() bool {
		return p.Stats().Viewers == 0
	}, time.Second, time.Millisecond)
}

func TestHandlers(t *testing.T) {
	ch := capture.NewChannel(2, capture.Block)
	preview = NewPreview(0, zerolog.Nop())
	snapshotTimeout = time.Second
	t.Cleanup(func() { preview = nil })

	go preview.Run(ch)

	require.True(t, ch.Send(testFrame(capture.FourCCYUYV, 32, 16, 1)))

	w := httptest.NewRecorder()
	handlerKeyframe(w, httptest.NewRequest("GET", "/api/frame.jpeg", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	_, err := jpeg.Decode(w.Body)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w = httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		handlerStream(w, httptest.NewRequest("GET", "/api/stream.mjpeg", nil).WithContext(ctx))
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	require.True(t, ch.Send(testFrame(capture.FourCCYUYV, 32, 16, 2)))
	require.Eventually(t, func() bool {
		return preview.Stats().Seq == 2
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	cancel()
	<-done

	require.Equal(t, "multipart/x-mixed-replace; boundary=frame", w.Header().Get("Content-Type"))
	require.Equal(t, 2, strings.Count(w.Body.String(), "--frame\r\n"))

	ch.Close()
}

func TestHandlersNotStarted(t *testing.T) {
	w := httptest.NewRecorder()
	handlerKeyframe(w, httptest.NewRequest("GET", "/api/frame.jpeg", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
