package detect

import (
	"gocv.io/x/gocv"

	"github.com/studiolumen/light-puppet/pkg/state"
)

// PeekabooDetector recognizes the hiding half of peekaboo: a face
// that was in frame disappears and stays gone for faceLostFrames
// consecutive frames. The gesture holds while the face is hidden and
// drops the moment it returns. A face must be sighted at least once
// before the gesture can trigger, so an empty room is not a peekaboo.
type PeekabooDetector struct {
	faces          FaceSource
	faceLostFrames int

	seenFace      bool
	framesWithout int
}

// NewPeekaboo creates the gesture backend. The face source is shared
// and not owned.
func NewPeekaboo(faces FaceSource, faceLostFrames int) *PeekabooDetector {
	return &PeekabooDetector{
		faces:          faces,
		faceLostFrames: faceLostFrames,
	}
}

// Name identifies the backend in logs.
func (d *PeekabooDetector) Name() string { return "peekaboo" }

// Detect reports PEEKABOO while a previously seen face has been
// hidden long enough, NONE otherwise.
func (d *PeekabooDetector) Detect(img gocv.Mat) (state.Observation, error) {
	var obs state.Observation

	_, ok, err := d.faces.Largest(img)
	if err != nil {
		return obs, err
	}

	if ok {
		d.seenFace = true
		d.framesWithout = 0
	} else if d.seenFace {
		d.framesWithout++
	}

	if d.seenFace && d.framesWithout >= d.faceLostFrames {
		obs.SetGesture(state.GesturePeekaboo)
	} else {
		obs.SetGesture(state.GestureNone)
	}
	return obs, nil
}

// Close is a no-op; the face source is owned by the pipeline.
func (d *PeekabooDetector) Close() error { return nil }
