// Package camera provides frame sources for the perception pipeline.
package camera

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/studiolumen/light-puppet/internal/config"
)

// Source is a stream of camera frames. Implementations are used from
// a single goroutine: Start, then Read per frame, then Stop.
type Source interface {
	// Start opens the underlying device or file.
	Start() error

	// Read fills img with the next frame. False means no frame could
	// be captured; the caller skips the frame and tries again.
	Read(img *gocv.Mat) bool

	// Stop releases the source.
	Stop() error
}

// New builds the configured frame source. A preset name, when set,
// overrides the explicit capture size.
func New(cfg config.CameraConfig) (Source, error) {
	if cfg.Preset != "" {
		p := GetPreset(cfg.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown camera preset %q (have %v)", cfg.Preset, PresetNames())
		}
		cfg.Width, cfg.Height, cfg.FPS = p.Width, p.Height, p.FPS
	}

	switch cfg.Type {
	case "webcam":
		return NewWebcam(cfg.DeviceIndex, cfg.Width, cfg.Height, cfg.FPS), nil
	case "file":
		return NewFile(cfg.Path), nil
	case "stream":
		return NewStream(cfg.URL), nil
	}
	return nil, &UnknownTypeError{Type: cfg.Type}
}

// UnknownTypeError reports an unrecognized camera type.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return "unknown camera type: " + e.Type
}
