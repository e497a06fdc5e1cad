package detect

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/studiolumen/light-puppet/pkg/state"
)

func gestureOf(t *testing.T, d *PeekabooDetector) state.Gesture {
	t.Helper()
	var img gocv.Mat
	obs, err := d.Detect(img)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	return state.Merge([]state.Observation{obs}).Gesture
}

func TestPeekabooTriggersAfterFaceLost(t *testing.T) {
	faces := &fakeFaces{steps: []faceStep{
		faceWithArea(0.1), // seen
		noFace(), noFace(), noFace(), noFace(),
	}}
	d := NewPeekaboo(faces, 3)

	if got := gestureOf(t, d); got != state.GestureNone {
		t.Errorf("face visible: got %v, want none", got)
	}
	if got := gestureOf(t, d); got != state.GestureNone {
		t.Errorf("1 lost frame: got %v, want none", got)
	}
	if got := gestureOf(t, d); got != state.GestureNone {
		t.Errorf("2 lost frames: got %v, want none", got)
	}
	if got := gestureOf(t, d); got != state.GesturePeekaboo {
		t.Errorf("3 lost frames: got %v, want peekaboo", got)
	}
	// The gesture holds while the face stays hidden.
	if got := gestureOf(t, d); got != state.GesturePeekaboo {
		t.Errorf("4 lost frames: got %v, want peekaboo", got)
	}
}

func TestPeekabooDropsWhenFaceReturns(t *testing.T) {
	faces := &fakeFaces{steps: []faceStep{
		faceWithArea(0.1),
		noFace(), noFace(),
		faceWithArea(0.1),
	}}
	d := NewPeekaboo(faces, 2)

	gestureOf(t, d)
	gestureOf(t, d)
	if got := gestureOf(t, d); got != state.GesturePeekaboo {
		t.Fatalf("hidden: got %v, want peekaboo", got)
	}
	if got := gestureOf(t, d); got != state.GestureNone {
		t.Errorf("revealed: got %v, want none", got)
	}
}

func TestPeekabooNeedsPriorSighting(t *testing.T) {
	faces := &fakeFaces{steps: []faceStep{noFace()}}
	d := NewPeekaboo(faces, 2)

	// An empty room never reads as a gesture.
	for i := 0; i < 10; i++ {
		if got := gestureOf(t, d); got != state.GestureNone {
			t.Fatalf("frame %d without prior face: got %v, want none", i, got)
		}
	}
}

func TestPeekabooFaceSourceErrorPropagates(t *testing.T) {
	faces := &fakeFaces{steps: []faceStep{{err: errors.New("detector gone")}}}
	d := NewPeekaboo(faces, 2)

	var img gocv.Mat
	if _, err := d.Detect(img); err == nil {
		t.Error("Detect: expected error from face source")
	}
}
