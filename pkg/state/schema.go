// Package state holds the perception schema and the conditioning logic
// that turns noisy per-frame detections into stable, change-driven
// state for downstream consumers.
package state

import "fmt"

// Proximity is the coarse distance band of the nearest subject.
type Proximity string

const (
	ProximityClose  Proximity = "close"
	ProximityMedium Proximity = "medium"
	ProximityFar    Proximity = "far"
	ProximityNone   Proximity = "none"
)

// ParseProximity converts a stored string back into a Proximity.
func ParseProximity(s string) (Proximity, error) {
	switch p := Proximity(s); p {
	case ProximityClose, ProximityMedium, ProximityFar, ProximityNone:
		return p, nil
	}
	return ProximityNone, fmt.Errorf("unknown proximity %q", s)
}

// Expression is the dominant facial expression of the subject.
type Expression string

const (
	ExpressionSmile   Expression = "smile"
	ExpressionAngry   Expression = "angry"
	ExpressionSad     Expression = "sad"
	ExpressionNeutral Expression = "neutral"
	ExpressionNone    Expression = "none"
)

// ParseExpression converts a stored string back into an Expression.
func ParseExpression(s string) (Expression, error) {
	switch e := Expression(s); e {
	case ExpressionSmile, ExpressionAngry, ExpressionSad, ExpressionNeutral, ExpressionNone:
		return e, nil
	}
	return ExpressionNone, fmt.Errorf("unknown expression %q", s)
}

// Gesture is a recognized temporal gesture.
type Gesture string

const (
	GesturePeekaboo Gesture = "peekaboo"
	GestureNone     Gesture = "none"
)

// ParseGesture converts a stored string back into a Gesture.
func ParseGesture(s string) (Gesture, error) {
	switch g := Gesture(s); g {
	case GesturePeekaboo, GestureNone:
		return g, nil
	}
	return GestureNone, fmt.Errorf("unknown gesture %q", s)
}

// Field names one signal in the schema. Field names double as the
// lookup key for notifier address mappings and for recorded events.
type Field string

const (
	FieldProximity      Field = "proximity"
	FieldProximityValue Field = "proximity_value"
	FieldExpression     Field = "expression"
	FieldGesture        Field = "gesture"
	FieldFaceX          Field = "face_x"
	FieldFaceY          Field = "face_y"
	FieldHandLeftX      Field = "hand_left_x"
	FieldHandLeftY      Field = "hand_left_y"
	FieldHandRightX     Field = "hand_right_x"
	FieldHandRightY     Field = "hand_right_y"
)

// debounced is the canonical order in which discrete fields are
// evaluated and in which their change events are emitted.
var debounced = []Field{FieldProximity, FieldExpression, FieldGesture}

// continuous is the canonical order in which per-frame continuous
// values are forwarded.
var continuous = []Field{
	FieldProximityValue,
	FieldFaceX, FieldFaceY,
	FieldHandLeftX, FieldHandLeftY,
	FieldHandRightX, FieldHandRightY,
}

// DebouncedFields returns the discrete fields in emission order.
func DebouncedFields() []Field {
	out := make([]Field, len(debounced))
	copy(out, debounced)
	return out
}

// ContinuousFields returns the continuous fields in emission order.
func ContinuousFields() []Field {
	out := make([]Field, len(continuous))
	copy(out, continuous)
	return out
}

// NotVisible is the sentinel coordinate for a landmark that is not
// currently observable, e.g. a hand out of frame.
const NotVisible = -1.0

// Result is the merged perception output of a single camera frame:
// every discrete field carries exactly one value (NONE when nothing
// was seen) and every continuous field carries a number or its
// absence sentinel.
type Result struct {
	Proximity      Proximity
	Expression     Expression
	Gesture        Gesture
	ProximityValue float64
	FaceX          float64
	FaceY          float64
	HandLeftX      float64
	HandLeftY      float64
	HandRightX     float64
	HandRightY     float64
}

// NewResult returns an empty frame: discrete fields NONE, coordinates
// not visible, proximity value zero.
func NewResult() Result {
	return Result{
		Proximity:  ProximityNone,
		Expression: ExpressionNone,
		Gesture:    GestureNone,
		FaceX:      NotVisible,
		FaceY:      NotVisible,
		HandLeftX:  NotVisible,
		HandLeftY:  NotVisible,
		HandRightX: NotVisible,
		HandRightY: NotVisible,
	}
}

// discrete returns the raw value of one debounced field.
func (r Result) discrete(f Field) string {
	switch f {
	case FieldProximity:
		return string(r.Proximity)
	case FieldExpression:
		return string(r.Expression)
	case FieldGesture:
		return string(r.Gesture)
	}
	return ""
}

// Continuous returns the value of one continuous field.
func (r Result) Continuous(f Field) float64 {
	switch f {
	case FieldProximityValue:
		return r.ProximityValue
	case FieldFaceX:
		return r.FaceX
	case FieldFaceY:
		return r.FaceY
	case FieldHandLeftX:
		return r.HandLeftX
	case FieldHandLeftY:
		return r.HandLeftY
	case FieldHandRightX:
		return r.HandRightX
	case FieldHandRightY:
		return r.HandRightY
	}
	return NotVisible
}

// Confirmed is the debounced subset of the schema: the discrete fields
// that have survived the frame-window filter. Continuous fields bypass
// confirmation entirely.
type Confirmed struct {
	Proximity  Proximity
	Expression Expression
	Gesture    Gesture
}

// NewConfirmed returns the initial confirmed state, all fields NONE.
func NewConfirmed() Confirmed {
	return Confirmed{
		Proximity:  ProximityNone,
		Expression: ExpressionNone,
		Gesture:    GestureNone,
	}
}

func (c Confirmed) value(f Field) string {
	switch f {
	case FieldProximity:
		return string(c.Proximity)
	case FieldExpression:
		return string(c.Expression)
	case FieldGesture:
		return string(c.Gesture)
	}
	return ""
}

func (c *Confirmed) set(f Field, v string) {
	switch f {
	case FieldProximity:
		c.Proximity = Proximity(v)
	case FieldExpression:
		c.Expression = Expression(v)
	case FieldGesture:
		c.Gesture = Gesture(v)
	}
}

// noneValue is the absence value for a debounced field.
func noneValue(f Field) string {
	switch f {
	case FieldProximity:
		return string(ProximityNone)
	case FieldExpression:
		return string(ExpressionNone)
	case FieldGesture:
		return string(GestureNone)
	}
	return ""
}

// Change records one confirmed-state transition: the field that moved
// and the value it moved to.
type Change struct {
	Field Field
	Value string
}

// Observation is one backend's partial view of a frame. Fields the
// backend does not set leave no mark on the merged Result.
type Observation struct {
	proximity      *Proximity
	proximityValue *float64
	expression     *Expression
	gesture        *Gesture
	faceX          *float64
	faceY          *float64
	handLeftX      *float64
	handLeftY      *float64
	handRightX     *float64
	handRightY     *float64
}

// SetProximity reports a distance band for this frame.
func (o *Observation) SetProximity(p Proximity) {
	o.proximity = &p
}

// SetProximityValue reports the normalized closeness value.
func (o *Observation) SetProximityValue(v float64) {
	o.proximityValue = &v
}

// SetExpression reports a facial expression for this frame.
func (o *Observation) SetExpression(e Expression) {
	o.expression = &e
}

// SetGesture reports a gesture for this frame.
func (o *Observation) SetGesture(g Gesture) {
	o.gesture = &g
}

// SetFace reports the normalized face center.
func (o *Observation) SetFace(x, y float64) {
	o.faceX, o.faceY = &x, &y
}

// SetHandLeft reports the normalized left wrist position.
func (o *Observation) SetHandLeft(x, y float64) {
	o.handLeftX, o.handLeftY = &x, &y
}

// SetHandRight reports the normalized right wrist position.
func (o *Observation) SetHandRight(x, y float64) {
	o.handRightX, o.handRightY = &x, &y
}
