package detect

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// FaceBox is a detected face in frame-normalized coordinates.
type FaceBox struct {
	X, Y, W, H float64
	Confidence float64
}

// Center returns the normalized center of the box.
func (b FaceBox) Center() (x, y float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Area returns the fraction of the frame the box covers.
func (b FaceBox) Area() float64 {
	return b.W * b.H
}

// FaceSource finds faces in a frame. The face-driven backends share
// one source so the face network runs once per backend call chain,
// and tests can substitute canned faces.
type FaceSource interface {
	// Largest returns the biggest face in the frame, if any.
	Largest(img gocv.Mat) (FaceBox, bool, error)

	Close() error
}

// FaceFinder implements FaceSource with OpenCV's FaceDetectorYN
// (YuNet). Model files are checked up front so a missing model fails
// at startup, not mid-stream.
type FaceFinder struct {
	mu       sync.Mutex // protects inference
	detector gocv.FaceDetectorYN
}

// NewFaceFinder loads the YuNet face detection model.
func NewFaceFinder(modelPath string, confidence float64) (*FaceFinder, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("face model not found: %s", modelPath)
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		modelPath,
		"",                          // no config file needed for ONNX
		image.Pt(320, 320),          // placeholder, updated per frame
		float32(confidence),         // score threshold
		0.3,                         // NMS threshold
		5000,                        // top K
		int(gocv.NetBackendDefault), // backend
		int(gocv.NetTargetCPU),      // target
	)

	return &FaceFinder{detector: detector}, nil
}

// Largest returns the biggest face in the frame in normalized
// coordinates.
func (f *FaceFinder) Largest(img gocv.Mat) (FaceBox, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if img.Empty() {
		return FaceBox{}, false, fmt.Errorf("empty frame")
	}

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())

	f.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	f.detector.Detect(img, &faces)

	// YuNet output rows: cols 0-3 are the pixel bbox, col 14 the score.
	var best FaceBox
	found := false
	for r := 0; r < faces.Rows(); r++ {
		box := FaceBox{
			X:          float64(faces.GetFloatAt(r, 0)) / imgW,
			Y:          float64(faces.GetFloatAt(r, 1)) / imgH,
			W:          float64(faces.GetFloatAt(r, 2)) / imgW,
			H:          float64(faces.GetFloatAt(r, 3)) / imgH,
			Confidence: float64(faces.GetFloatAt(r, 14)),
		}
		if !found || box.Area() > best.Area() {
			best = box
			found = true
		}
	}
	return best, found, nil
}

// Close releases the detector resources.
func (f *FaceFinder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detector.Close()
	return nil
}
