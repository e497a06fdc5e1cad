package detect

import (
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/studiolumen/light-puppet/pkg/state"
)

// ferLabels is the emotion-ferplus-8 output order.
var ferLabels = [8]string{
	"neutral", "happiness", "surprise", "sadness",
	"anger", "disgust", "fear", "contempt",
}

// ferToExpression maps classifier labels onto the schema. Labels with
// no schema counterpart read as NEUTRAL.
var ferToExpression = map[string]state.Expression{
	"happiness": state.ExpressionSmile,
	"anger":     state.ExpressionAngry,
	"sadness":   state.ExpressionSad,
	"neutral":   state.ExpressionNeutral,
}

func mapLabel(label string) state.Expression {
	if e, ok := ferToExpression[label]; ok {
		return e
	}
	return state.ExpressionNeutral
}

// classifier scores a face crop. Split from the detector so tests can
// drive the cadence and gating logic without a loaded network.
type classifier interface {
	classify(img gocv.Mat, face FaceBox) (label string, confidence float64, err error)
	Close() error
}

// ferClassifier runs the FER+ emotion network on a face crop.
type ferClassifier struct {
	mu  sync.Mutex // protects inference
	net gocv.Net
}

func newFERClassifier(modelPath string) (*ferClassifier, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("expression model not found: %s", modelPath)
	}

	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("load expression model %s", modelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &ferClassifier{net: net}, nil
}

func (c *ferClassifier) classify(img gocv.Mat, face FaceBox) (string, float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	crop, err := cropFace(img, face)
	if err != nil {
		return "", 0, err
	}
	defer crop.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(crop, &gray, gocv.ColorBGRToGray)

	// FER+ expects a 1x1x64x64 grayscale blob.
	blob := gocv.BlobFromImage(gray, 1.0, image.Pt(64, 64), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	c.net.SetInput(blob, "")
	output := c.net.Forward("")
	defer output.Close()

	scores, err := output.DataPtrFloat32()
	if err != nil {
		return "", 0, fmt.Errorf("read scores: %w", err)
	}
	if len(scores) < len(ferLabels) {
		return "", 0, fmt.Errorf("unexpected output size %d", len(scores))
	}

	probs := softmax(scores[:len(ferLabels)])
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return ferLabels[best], probs[best], nil
}

func (c *ferClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.net.Close()
	return nil
}

// cropFace clips the normalized box to the frame and returns the face
// region. The caller owns the returned Mat.
func cropFace(img gocv.Mat, face FaceBox) (gocv.Mat, error) {
	w := img.Cols()
	h := img.Rows()
	rect := image.Rect(
		int(face.X*float64(w)), int(face.Y*float64(h)),
		int((face.X+face.W)*float64(w)), int((face.Y+face.H)*float64(h)),
	)
	rect = rect.Intersect(image.Rect(0, 0, w, h))
	if rect.Empty() {
		return gocv.Mat{}, fmt.Errorf("face box outside frame")
	}

	region := img.Region(rect)
	defer region.Close()
	return region.Clone(), nil
}

func softmax(scores []float32) []float64 {
	max := float64(scores[0])
	for _, s := range scores[1:] {
		if float64(s) > max {
			max = float64(s)
		}
	}
	var sum float64
	probs := make([]float64, len(scores))
	for i, s := range scores {
		probs[i] = math.Exp(float64(s) - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// ExpressionDetector classifies the subject's facial expression.
// Classification is the most expensive backend, so it only runs every
// analyzeEvery frames and repeats its last answer in between. Low
// confidence reads as NEUTRAL rather than flickering through
// half-recognized expressions.
type ExpressionDetector struct {
	faces         FaceSource
	clf           classifier
	analyzeEvery  int
	minConfidence float64

	frame int
	last  state.Expression
}

// NewExpression creates the expression backend. The face source is
// shared and not owned; the classifier network is owned.
func NewExpression(faces FaceSource, modelPath string, analyzeEvery int, minConfidence float64) (*ExpressionDetector, error) {
	clf, err := newFERClassifier(modelPath)
	if err != nil {
		return nil, err
	}
	return &ExpressionDetector{
		faces:         faces,
		clf:           clf,
		analyzeEvery:  analyzeEvery,
		minConfidence: minConfidence,
		last:          state.ExpressionNone,
	}, nil
}

// Name identifies the backend in logs.
func (d *ExpressionDetector) Name() string { return "expression" }

// Detect reports the current expression. Off-cycle frames repeat the
// last classification; a frame with no face reads as NONE.
func (d *ExpressionDetector) Detect(img gocv.Mat) (state.Observation, error) {
	var obs state.Observation

	d.frame++
	if d.frame%d.analyzeEvery != 0 {
		obs.SetExpression(d.last)
		return obs, nil
	}

	box, ok, err := d.faces.Largest(img)
	if err != nil {
		return obs, err
	}
	if !ok {
		d.last = state.ExpressionNone
		obs.SetExpression(d.last)
		return obs, nil
	}

	label, confidence, err := d.clf.classify(img, box)
	if err != nil {
		return obs, err
	}

	expr := mapLabel(label)
	if confidence < d.minConfidence {
		expr = state.ExpressionNeutral
	}
	d.last = expr
	obs.SetExpression(expr)
	return obs, nil
}

// Close releases the classifier network.
func (d *ExpressionDetector) Close() error {
	return d.clf.Close()
}
