package main

import (
	"os"

	"github.com/AlexxIT/camview/internal/api"
	"github.com/AlexxIT/camview/internal/api/ws"
	"github.com/AlexxIT/camview/internal/app"
	"github.com/AlexxIT/camview/internal/camera"
	"github.com/AlexxIT/camview/internal/mjpeg"
	"github.com/AlexxIT/camview/pkg/shell"
)

func main() {
	// 1. Core modules: app, api/ws
	app.Init() // init config and logs

	api.Init() // init API before all others
	ws.Init()  // init WS API endpoint

	// 2. Capture and preview
	camera.Init()
	mjpeg.Init()

	// 3. Wait for signal or the end of capture
	cam := camera.Default()
	if cam == nil {
		app.Logger.Error().Msg("[camera] not configured")
		os.Exit(1)
	}

	if sig := shell.RunUntilSignal(cam.Done()); sig != nil {
		app.Logger.Info().Stringer("signal", sig).Msg("exit")
		cam.Stop()
		<-cam.Done()
		return
	}

	if err := cam.Err(); err != nil {
		app.Logger.Error().Err(err).Msg("exit")
		os.Exit(1)
	}
}
