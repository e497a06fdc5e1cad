package camera

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/studiolumen/light-puppet/internal/log"
)

// FileSource reads frames from a video file and loops back to the
// start at end of file, so a short clip can drive the pipeline
// indefinitely. Frames are not mirrored; recorded clips already show
// the view the pipeline should see.
type FileSource struct {
	path    string
	capture *gocv.VideoCapture
}

// NewFile creates an unopened video file source.
func NewFile(path string) *FileSource {
	return &FileSource{path: path}
}

// Start opens the video file.
func (s *FileSource) Start() error {
	capture, err := gocv.VideoCaptureFile(s.path)
	if err != nil {
		return fmt.Errorf("open video file %s: %w", s.path, err)
	}
	s.capture = capture

	log.Info("video file opened", "path", s.path)
	return nil
}

// Read fills img with the next frame, rewinding at end of file.
func (s *FileSource) Read(img *gocv.Mat) bool {
	if s.capture == nil {
		return false
	}
	if ok := s.capture.Read(img); ok && !img.Empty() {
		return true
	}

	// End of file: rewind and try once more.
	s.capture.Set(gocv.VideoCapturePosFrames, 0)
	if ok := s.capture.Read(img); !ok || img.Empty() {
		return false
	}
	return true
}

// Stop releases the file handle.
func (s *FileSource) Stop() error {
	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.capture = nil
	return err
}
