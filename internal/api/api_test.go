package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMiddlewareAuth(t *testing.T) {
	handler := middlewareAuth("admin", "secret", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Response(w, "OK", MimeText)
	}))

	r := httptest.NewRequest("GET", "/api", nil)
	r.RemoteAddr = "192.168.1.2:5000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, `Basic realm="camview"`, w.Header().Get("Www-Authenticate"))

	r.SetBasicAuth("admin", "secret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())

	// localhost is trusted
	r = httptest.NewRequest("GET", "/api", nil)
	r.RemoteAddr = "127.0.0.1:5000"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestResponseSources(t *testing.T) {
	w := httptest.NewRecorder()
	ResponseSources(w, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	ResponseSources(w, []*Source{{Name: "Motion-JPEG", Info: "640x480", URL: "/dev/video0"}})
	require.Equal(t, MimeJSON, w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"sources":[{"name":"Motion-JPEG","info":"640x480","url":"/dev/video0"}]}`, w.Body.String())
}

func TestLogHandler(t *testing.T) {
	w := httptest.NewRecorder()
	logHandler(w, httptest.NewRequest("DELETE", "/api/log", nil))
	require.Equal(t, "OK", w.Body.String())

	w = httptest.NewRecorder()
	logHandler(w, httptest.NewRequest("PUT", "/api/log", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}
