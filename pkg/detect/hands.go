package detect

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/studiolumen/light-puppet/pkg/state"
)

const handInputSize = 224

// HandsDetector reports normalized wrist positions from a hand
// landmark network.
//
// The network is a single-hand landmarker with three outputs: 21
// landmarks in input pixels, a presence score, and a handedness
// score (probability the hand is a right hand). The detector reports
// the most prominent hand on the side handedness names, swapped
// because the camera view is mirrored; the other side stays
// not-visible.
//
// TODO: two-hand tracking needs a palm-detection stage in front of
// the landmarker.
type HandsDetector struct {
	mu          sync.Mutex // protects inference
	net         gocv.Net
	minPresence float64
}

// NewHands loads the hand landmark model.
func NewHands(modelPath string, minPresence float64) (*HandsDetector, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("hand model not found: %s", modelPath)
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("load hand model %s", modelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &HandsDetector{net: net, minPresence: minPresence}, nil
}

// Name identifies the backend in logs.
func (d *HandsDetector) Name() string { return "hands" }

// Detect reports wrist positions for the frame. Below the presence
// threshold both hands read as not visible.
func (d *HandsDetector) Detect(img gocv.Mat) (state.Observation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var obs state.Observation
	obs.SetHandLeft(state.NotVisible, state.NotVisible)
	obs.SetHandRight(state.NotVisible, state.NotVisible)

	if img.Empty() {
		return obs, fmt.Errorf("empty frame")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0,
		image.Pt(handInputSize, handInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	outputs := d.net.ForwardLayers([]string{"Identity", "Identity_1", "Identity_2"})
	defer func() {
		for _, o := range outputs {
			o.Close()
		}
	}()
	if len(outputs) != 3 {
		return obs, fmt.Errorf("unexpected hand model outputs: %d", len(outputs))
	}

	landmarks, err := outputs[0].DataPtrFloat32()
	if err != nil {
		return obs, fmt.Errorf("read landmarks: %w", err)
	}
	if len(landmarks) < 2 {
		return obs, fmt.Errorf("unexpected landmark size %d", len(landmarks))
	}
	presence := float64(outputs[1].GetFloatAt(0, 0))
	handedness := float64(outputs[2].GetFloatAt(0, 0))

	if presence < d.minPresence {
		return obs, nil
	}

	// Landmark 0 is the wrist, in input pixels.
	x := round3(clamp01(float64(landmarks[0]) / handInputSize))
	y := round3(clamp01(float64(landmarks[1]) / handInputSize))

	// Mirrored view: the model's right hand is the viewer's left.
	if handedness >= 0.5 {
		obs.SetHandLeft(x, y)
	} else {
		obs.SetHandRight(x, y)
	}
	return obs, nil
}

// Close releases the network.
func (d *HandsDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.net.Close()
	return nil
}
