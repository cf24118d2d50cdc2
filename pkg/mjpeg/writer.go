package mjpeg

import (
	"io"
	"net/http"
	"strconv"
)

// NewWriter - multipart/x-mixed-replace writer, one JPEG per Write call
func NewWriter(w http.ResponseWriter) io.Writer {
	h := w.Header()
	h.Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "close")
	h.Set("Pragma", "no-cache")

	wr := &writer{wr: w, buf: []byte(header)}
	wr.flusher, _ = w.(http.Flusher)
	return wr
}

const boundary = "frame"

const header = "--" + boundary + "\r\nContent-Type: image/jpeg\r\nContent-Length: "

type writer struct {
	wr      io.Writer
	flusher http.Flusher
	buf     []byte
}

func (w *writer) Write(p []byte) (n int, err error) {
	w.buf = w.buf[:len(header)]
	w.buf = append(w.buf, strconv.Itoa(len(p))...)
	w.buf = append(w.buf, "\r\n\r\n"...)
	w.buf = append(w.buf, p...)
	w.buf = append(w.buf, "\r\n"...)

	// Chrome bug: mjpeg image always shows the second to last image
	// https://bugs.chromium.org/p/chromium/issues/detail?id=527446
	if _, err = w.wr.Write(w.buf); err != nil {
		return 0, err
	}

	if w.flusher != nil {
		w.flusher.Flush()
	}

	return len(p), nil
}
