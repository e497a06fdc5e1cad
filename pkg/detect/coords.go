package detect

import (
	"gocv.io/x/gocv"

	"github.com/studiolumen/light-puppet/pkg/state"
)

// FaceCoordsDetector reports the normalized center of the largest
// face, for consumers that aim something at the subject. No face
// reads as the not-visible sentinel on both axes.
type FaceCoordsDetector struct {
	faces FaceSource
}

// NewFaceCoords creates the face position backend. The face source is
// shared and not owned.
func NewFaceCoords(faces FaceSource) *FaceCoordsDetector {
	return &FaceCoordsDetector{faces: faces}
}

// Name identifies the backend in logs.
func (d *FaceCoordsDetector) Name() string { return "face_coords" }

// Detect reports the face center for the frame.
func (d *FaceCoordsDetector) Detect(img gocv.Mat) (state.Observation, error) {
	var obs state.Observation

	box, ok, err := d.faces.Largest(img)
	if err != nil {
		return obs, err
	}
	if !ok {
		obs.SetFace(state.NotVisible, state.NotVisible)
		return obs, nil
	}

	cx, cy := box.Center()
	obs.SetFace(round3(clamp01(cx)), round3(clamp01(cy)))
	return obs, nil
}

// Close is a no-op; the face source is owned by the pipeline.
func (d *FaceCoordsDetector) Close() error { return nil }
