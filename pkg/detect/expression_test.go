package detect

import (
	"errors"
	"math"
	"testing"

	"gocv.io/x/gocv"

	"github.com/studiolumen/light-puppet/pkg/state"
)

type fakeClassifier struct {
	label      string
	confidence float64
	err        error
	calls      int
	closed     bool
}

func (c *fakeClassifier) classify(img gocv.Mat, face FaceBox) (string, float64, error) {
	c.calls++
	if c.err != nil {
		return "", 0, c.err
	}
	return c.label, c.confidence, nil
}

func (c *fakeClassifier) Close() error {
	c.closed = true
	return nil
}

func newTestExpression(faces FaceSource, clf classifier, analyzeEvery int) *ExpressionDetector {
	return &ExpressionDetector{
		faces:         faces,
		clf:           clf,
		analyzeEvery:  analyzeEvery,
		minConfidence: 0.4,
		last:          state.ExpressionNone,
	}
}

func expressionOf(t *testing.T, d *ExpressionDetector) state.Expression {
	t.Helper()
	var img gocv.Mat
	obs, err := d.Detect(img)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	return state.Merge([]state.Observation{obs}).Expression
}

func TestExpressionAnalyzesOnSchedule(t *testing.T) {
	clf := &fakeClassifier{label: "happiness", confidence: 0.9}
	d := newTestExpression(&fakeFaces{steps: []faceStep{faceWithArea(0.1)}}, clf, 3)

	// Frames 1 and 2 repeat the initial NONE without classifying.
	if got := expressionOf(t, d); got != state.ExpressionNone {
		t.Errorf("frame 1: got %v, want none", got)
	}
	if got := expressionOf(t, d); got != state.ExpressionNone {
		t.Errorf("frame 2: got %v, want none", got)
	}
	if clf.calls != 0 {
		t.Fatalf("classifier ran %d times before schedule", clf.calls)
	}

	// Frame 3 classifies; 4 and 5 repeat the result.
	if got := expressionOf(t, d); got != state.ExpressionSmile {
		t.Errorf("frame 3: got %v, want smile", got)
	}
	if got := expressionOf(t, d); got != state.ExpressionSmile {
		t.Errorf("frame 4: got %v, want smile (held)", got)
	}
	expressionOf(t, d)
	if clf.calls != 1 {
		t.Errorf("classifier calls after 5 frames: got %d, want 1", clf.calls)
	}
}

func TestExpressionLowConfidenceReadsNeutral(t *testing.T) {
	clf := &fakeClassifier{label: "anger", confidence: 0.2}
	d := newTestExpression(&fakeFaces{steps: []faceStep{faceWithArea(0.1)}}, clf, 1)

	if got := expressionOf(t, d); got != state.ExpressionNeutral {
		t.Errorf("got %v, want neutral below confidence floor", got)
	}
}

func TestExpressionUnmappedLabelReadsNeutral(t *testing.T) {
	clf := &fakeClassifier{label: "surprise", confidence: 0.95}
	d := newTestExpression(&fakeFaces{steps: []faceStep{faceWithArea(0.1)}}, clf, 1)

	if got := expressionOf(t, d); got != state.ExpressionNeutral {
		t.Errorf("got %v, want neutral for unmapped label", got)
	}
}

func TestExpressionNoFaceReadsNone(t *testing.T) {
	clf := &fakeClassifier{label: "happiness", confidence: 0.9}
	faces := &fakeFaces{steps: []faceStep{faceWithArea(0.1), noFace(), noFace()}}
	d := newTestExpression(faces, clf, 1)

	if got := expressionOf(t, d); got != state.ExpressionSmile {
		t.Fatalf("frame with face: got %v, want smile", got)
	}
	if got := expressionOf(t, d); got != state.ExpressionNone {
		t.Errorf("faceless frame: got %v, want none", got)
	}
	if clf.calls != 1 {
		t.Errorf("classifier calls: got %d, want 1 (no classification without a face)", clf.calls)
	}
}

func TestExpressionClassifierErrorPropagates(t *testing.T) {
	clf := &fakeClassifier{err: errors.New("forward pass failed")}
	d := newTestExpression(&fakeFaces{steps: []faceStep{faceWithArea(0.1)}}, clf, 1)

	var img gocv.Mat
	if _, err := d.Detect(img); err == nil {
		t.Error("Detect: expected classifier error")
	}
}

func TestExpressionCloseReleasesClassifier(t *testing.T) {
	clf := &fakeClassifier{}
	d := newTestExpression(&fakeFaces{steps: []faceStep{noFace()}}, clf, 1)

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !clf.closed {
		t.Error("classifier not closed")
	}
}

func TestMapLabel(t *testing.T) {
	cases := []struct {
		label string
		want  state.Expression
	}{
		{"happiness", state.ExpressionSmile},
		{"anger", state.ExpressionAngry},
		{"sadness", state.ExpressionSad},
		{"neutral", state.ExpressionNeutral},
		{"disgust", state.ExpressionNeutral},
		{"contempt", state.ExpressionNeutral},
		{"fear", state.ExpressionNeutral},
	}
	for _, tc := range cases {
		if got := mapLabel(tc.label); got != tc.want {
			t.Errorf("mapLabel(%q): got %v, want %v", tc.label, got, tc.want)
		}
	}
}

func TestSoftmax(t *testing.T) {
	probs := softmax([]float32{0, 0, 0, 0})
	for i, p := range probs {
		if math.Abs(p-0.25) > 1e-9 {
			t.Errorf("uniform softmax[%d]: got %v, want 0.25", i, p)
		}
	}

	probs = softmax([]float32{10, 0, 0, 0})
	var sum float64
	best := 0
	for i, p := range probs {
		sum += p
		if p > probs[best] {
			best = i
		}
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("softmax sum: got %v, want 1", sum)
	}
	if best != 0 {
		t.Errorf("softmax argmax: got %d, want 0", best)
	}
	if probs[0] < 0.99 {
		t.Errorf("peaked softmax: got %v, want > 0.99", probs[0])
	}
}
