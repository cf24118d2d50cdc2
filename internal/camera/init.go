package camera

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AlexxIT/camview/internal/api"
	"github.com/AlexxIT/camview/internal/api/ws"
	"github.com/AlexxIT/camview/internal/app"
	"github.com/AlexxIT/camview/pkg/capture"
	"github.com/AlexxIT/camview/pkg/fake"
	"github.com/AlexxIT/camview/pkg/v4l2"
	"github.com/rs/zerolog"
)

type Config struct {
	Device      string        `yaml:"device"`
	InputFormat string        `yaml:"input_format"`
	VideoSize   string        `yaml:"video_size"`
	Framerate   string        `yaml:"framerate"`
	Buffers     int           `yaml:"buffers"`
	Queue       int           `yaml:"queue"`
	Policy      string        `yaml:"policy"`
	Retries     int           `yaml:"retries"`
	Timeout     time.Duration `yaml:"timeout"`
	Watchdog    time.Duration `yaml:"watchdog"`
}

func DefaultConfig() Config {
	return Config{
		Device:   "/dev/video0",
		Buffers:  capture.DefaultBuffers,
		Queue:    capture.DefaultQueueSize,
		Policy:   capture.DropOldest.String(),
		Retries:  capture.DefaultRetries,
		Timeout:  2 * time.Second,
		Watchdog: 10 * time.Second,
	}
}

func Init() {
	var cfg struct {
		Mod Config `yaml:"camera"`
	}

	cfg.Mod = DefaultConfig()

	app.LoadConfig(&cfg)

	log = app.GetLogger("camera")

	cam, err := NewFromConfig(cfg.Mod, &log)
	if err != nil {
		log.Error().Err(err).Msg("[camera] config")
		return
	}

	defaultCamera = cam

	api.HandleFunc("api/camera", apiCamera)
	api.HandleFunc("api/camera/probe", apiProbe)
	api.HandleFunc("api/v4l2", apiV4L2)

	ws.HandleFunc("camera", wsCamera)
	ws.HandleFunc("camera/set", wsCameraSet)

	go func() {
		if err := cam.Run(); err != nil {
			log.Error().Err(err).Str("device", cam.Device).Msg("[camera] session")
		}
	}()
}

var log zerolog.Logger

var defaultCamera *Camera

// Default - camera from config, nil if it is not configured
func Default() *Camera {
	return defaultCamera
}

func NewFromConfig(cfg Config, logger *zerolog.Logger) (*Camera, error) {
	req := &Request{InputFormat: cfg.InputFormat, VideoSize: cfg.VideoSize, Framerate: cfg.Framerate}

	config, err := parseRequest(req)
	if err != nil {
		return nil, err
	}

	policy, err := capture.ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	opts := capture.Options{
		Buffers:  cfg.Buffers,
		Retries:  cfg.Retries,
		Timeout:  cfg.Timeout,
		Watchdog: cfg.Watchdog,
		Logger:   logger,
	}

	out := capture.NewChannel(cfg.Queue, policy)

	return New(cfg.Device, Opener(cfg.Device), config, out, opts), nil
}

// Opener - "fake" is the built-in test pattern, anything else is a V4L2 device
func Opener(device string) capture.Opener {
	switch device {
	case "fake", "test":
		return fake.Opener()
	}
	return v4l2.Opener(device)
}

func parseRequest(req *Request) (config capture.Config, err error) {
	if req.InputFormat != "" {
		if config.Format.FourCC, err = capture.ParseFourCC(req.InputFormat); err != nil {
			return
		}
	}
	if req.VideoSize != "" {
		if config.Format.Width, config.Format.Height, err = capture.ParseSize(req.VideoSize); err != nil {
			return
		}
	}
	if req.Framerate != "" {
		config.Rate, err = capture.ParseRate(req.Framerate)
	}
	return
}

func apiCamera(w http.ResponseWriter, r *http.Request) {
	cam := Default()
	if cam == nil {
		http.Error(w, "camera not configured", http.StatusNotFound)
		return
	}

	switch r.Method {
	case "GET":
		api.ResponsePrettyJSON(w, cam.Info())

	case "POST":
		query := r.URL.Query()
		req := &Request{
			InputFormat: query.Get("input_format"),
			VideoSize:   query.Get("video_size"),
			Framerate:   query.Get("framerate"),
		}

		if err := cam.Apply(req); err != nil {
			responseError(w, err)
			return
		}

		if query.Get("save") == "1" || query.Get("save") == "true" {
			if err := cam.Save(); err != nil {
				api.Error(w, err)
				return
			}
		}

		api.ResponseJSON(w, cam.Info())

	default:
		http.Error(w, "", http.StatusMethodNotAllowed)
	}
}

func apiProbe(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	cam := Default()
	if cam == nil {
		http.Error(w, "camera not configured", http.StatusNotFound)
		return
	}

	if err := cam.Probe(); err != nil {
		responseError(w, err)
		return
	}

	api.ResponseJSON(w, cam.Coordinator().Capabilities())
}

// apiV4L2 - list all video devices with formats and sizes
func apiV4L2(w http.ResponseWriter, r *http.Request) {
	paths, err := v4l2.ListDevices()
	if err != nil {
		api.Error(w, err)
		return
	}

	var sources []*api.Source

	for _, path := range paths {
		caps, err := capture.Probe(v4l2.Opener(path))
		if err != nil {
			log.Trace().Err(err).Str("path", path).Msg("[camera] probe")
			continue
		}

		for _, desc := range caps.Formats {
			source := &api.Source{Name: caps.Card + " " + desc.FourCC.String(), URL: path}

			if pf := desc.FourCC.Info(); pf != nil {
				source.Name = caps.Card + " " + pf.Name
				source.URL += "?input_format=" + pf.FFmpeg
			}

			var sizes []string
			for _, size := range desc.Sizes {
				sizes = append(sizes, capture.Format{Width: size.Width, Height: size.Height}.Size())
			}
			source.Info = strings.Join(sizes, " ")

			sources = append(sources, source)
		}
	}

	api.ResponseSources(w, sources)
}

func wsCamera(tr *ws.Transport, _ *ws.Message) error {
	cam := Default()
	if cam == nil {
		return errors.New("camera not configured")
	}
	tr.Write(&ws.Message{Type: "camera", Value: cam.Info()})
	return nil
}

func wsCameraSet(tr *ws.Transport, msg *ws.Message) error {
	cam := Default()
	if cam == nil {
		return errors.New("camera not configured")
	}

	var req Request
	if err := msg.Unmarshal(&req); err != nil {
		return err
	}
	if err := cam.Apply(&req); err != nil {
		return err
	}

	tr.Write(&ws.Message{Type: "camera", Value: cam.Info()})
	return nil
}

func responseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, capture.ErrUnsupported):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, capture.ErrUnavailable), errors.Is(err, capture.ErrNotCapture):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		api.Error(w, err)
	}
}
