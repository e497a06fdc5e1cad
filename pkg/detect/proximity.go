package detect

import (
	"gocv.io/x/gocv"

	"github.com/studiolumen/light-puppet/pkg/state"
)

// ProximityDetector buckets subject distance by how much of the frame
// the largest face covers. It also reports the continuous closeness
// value: the area ratio normalized against the CLOSE threshold,
// saturating at 1.
type ProximityDetector struct {
	faces          FaceSource
	closeThreshold float64
	farThreshold   float64
}

// NewProximity creates the distance backend. The face source is
// shared and not owned.
func NewProximity(faces FaceSource, closeThreshold, farThreshold float64) *ProximityDetector {
	return &ProximityDetector{
		faces:          faces,
		closeThreshold: closeThreshold,
		farThreshold:   farThreshold,
	}
}

// Name identifies the backend in logs.
func (d *ProximityDetector) Name() string { return "proximity" }

// Detect reports the distance band and closeness value for the frame.
// No face reads as NONE with a zero value.
func (d *ProximityDetector) Detect(img gocv.Mat) (state.Observation, error) {
	var obs state.Observation

	box, ok, err := d.faces.Largest(img)
	if err != nil {
		return obs, err
	}
	if !ok {
		obs.SetProximity(state.ProximityNone)
		obs.SetProximityValue(0)
		return obs, nil
	}

	ratio := box.Area()
	obs.SetProximity(d.band(ratio))
	obs.SetProximityValue(round3(clamp01(ratio / d.closeThreshold)))
	return obs, nil
}

// band maps a face area ratio onto the distance buckets.
func (d *ProximityDetector) band(ratio float64) state.Proximity {
	switch {
	case ratio >= d.closeThreshold:
		return state.ProximityClose
	case ratio <= d.farThreshold:
		return state.ProximityFar
	default:
		return state.ProximityMedium
	}
}

// Close is a no-op; the face source is owned by the pipeline.
func (d *ProximityDetector) Close() error { return nil }
