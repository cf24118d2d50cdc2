package mjpeg

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AlexxIT/camview/internal/api"
	"github.com/AlexxIT/camview/internal/api/ws"
	"github.com/AlexxIT/camview/internal/app"
	"github.com/AlexxIT/camview/internal/camera"
	"github.com/AlexxIT/camview/pkg/mjpeg"
	"github.com/rs/zerolog"
)

func Init() {
	var cfg struct {
		Mod struct {
			Quality int           `yaml:"quality"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"mjpeg"`
	}

	// defaults
	cfg.Mod.Quality = mjpeg.DefaultQuality
	cfg.Mod.Timeout = 5 * time.Second

	app.LoadConfig(&cfg)

	log = app.GetLogger("mjpeg")

	cam := camera.Default()
	if cam == nil {
		return
	}

	snapshotTimeout = cfg.Mod.Timeout
	preview = NewPreview(cfg.Mod.Quality, log)

	go preview.Run(cam.Frames())

	api.HandleFunc("api/frame.jpeg", handlerKeyframe)
	api.HandleFunc("api/stream.mjpeg", handlerStream)
	api.HandleFunc("api/preview", handlerStats)

	ws.HandleFunc("mjpeg", handlerWS)
}

var log zerolog.Logger

var preview *Preview
var snapshotTimeout time.Duration

func handlerKeyframe(w http.ResponseWriter, r *http.Request) {
	if preview == nil {
		http.Error(w, "preview not started", http.StatusNotFound)
		return
	}

	b, updated := preview.Latest()
	if b == nil {
		if b = preview.Wait(snapshotTimeout); b == nil {
			http.Error(w, "no frames", http.StatusServiceUnavailable)
			return
		}
		updated = time.Now()
	}

	age := time.Since(updated)

	h := w.Header()
	h.Set("Content-Type", "image/jpeg")
	h.Set("Content-Length", strconv.Itoa(len(b)))
	h.Set("X-Snapshot-Age-Ms", strconv.Itoa(int(age.Milliseconds())))
	h.Set("X-Snapshot-Timestamp", updated.Format(time.RFC3339Nano))
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "close")
	h.Set("Pragma", "no-cache")

	if _, err := w.Write(b); err != nil {
		log.Error().Err(err).Caller().Send()
	}
}

func handlerStream(w http.ResponseWriter, r *http.Request) {
	if preview == nil {
		http.Error(w, "preview not started", http.StatusNotFound)
		return
	}

	ch, unsubscribe := preview.Subscribe()
	defer unsubscribe()

	wr := mjpeg.NewWriter(w)

	if b, _ := preview.Latest(); b != nil {
		if _, err := wr.Write(b); err != nil {
			return
		}
	}

	for {
		select {
		case b, ok := <-ch:
			if !ok {
				return
			}
			if _, err := wr.Write(b); err != nil {
				log.Trace().Err(err).Msg("[mjpeg] write")
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func handlerStats(w http.ResponseWriter, r *http.Request) {
	if preview == nil {
		http.Error(w, "preview not started", http.StatusNotFound)
		return
	}
	api.ResponseJSON(w, preview.Stats())
}

func handlerWS(tr *ws.Transport, _ *ws.Message) error {
	if preview == nil {
		return errors.New("preview not started")
	}

	ch, unsubscribe := preview.Subscribe()

	tr.Write(&ws.Message{Type: "mjpeg"})

	go func() {
		wr := tr.Writer()
		for b := range ch {
			if _, err := wr.Write(b); err != nil {
				log.Trace().Err(err).Msg("[mjpeg] ws write")
				unsubscribe()
				return
			}
		}
	}()

	tr.OnClose(unsubscribe)

	return nil
}
