package camera

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/studiolumen/light-puppet/internal/log"
)

// WebcamSource reads frames from a local camera device. Frames are
// mirror-flipped so the subject moves the way a mirror would show,
// which is also what the handedness swap in the hand backend assumes.
type WebcamSource struct {
	deviceIndex int
	width       int
	height      int
	fps         int

	capture *gocv.VideoCapture
}

// NewWebcam creates an unopened webcam source.
func NewWebcam(deviceIndex, width, height, fps int) *WebcamSource {
	return &WebcamSource{
		deviceIndex: deviceIndex,
		width:       width,
		height:      height,
		fps:         fps,
	}
}

// Start opens the camera device and applies the requested mode.
func (s *WebcamSource) Start() error {
	capture, err := gocv.OpenVideoCapture(s.deviceIndex)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", s.deviceIndex, err)
	}
	capture.Set(gocv.VideoCaptureFrameWidth, float64(s.width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(s.height))
	capture.Set(gocv.VideoCaptureFPS, float64(s.fps))
	s.capture = capture

	log.Info("webcam opened",
		"device", s.deviceIndex,
		"width", s.width, "height", s.height, "fps", s.fps)
	return nil
}

// Read fills img with the next mirrored frame.
func (s *WebcamSource) Read(img *gocv.Mat) bool {
	if s.capture == nil {
		return false
	}
	if ok := s.capture.Read(img); !ok || img.Empty() {
		return false
	}
	gocv.Flip(*img, img, 1)
	return true
}

// Stop releases the camera device.
func (s *WebcamSource) Stop() error {
	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.capture = nil
	return err
}
