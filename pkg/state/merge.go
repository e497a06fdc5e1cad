package state

// Merge folds ordered backend observations into a single frame Result.
// Later observations win on any field two backends both set. Fields no
// backend sets keep the NewResult defaults, so a backend dropping out
// reads as absence rather than as a stale value.
//
// A PEEKABOO gesture means the face is covered, so an expression
// reported for the same frame is unreliable and is suppressed after
// the fold.
func Merge(observations []Observation) Result {
	r := NewResult()
	for _, o := range observations {
		if o.proximity != nil {
			r.Proximity = *o.proximity
		}
		if o.proximityValue != nil {
			r.ProximityValue = *o.proximityValue
		}
		if o.expression != nil {
			r.Expression = *o.expression
		}
		if o.gesture != nil {
			r.Gesture = *o.gesture
		}
		if o.faceX != nil {
			r.FaceX = *o.faceX
		}
		if o.faceY != nil {
			r.FaceY = *o.faceY
		}
		if o.handLeftX != nil {
			r.HandLeftX = *o.handLeftX
		}
		if o.handLeftY != nil {
			r.HandLeftY = *o.handLeftY
		}
		if o.handRightX != nil {
			r.HandRightX = *o.handRightX
		}
		if o.handRightY != nil {
			r.HandRightY = *o.handRightY
		}
	}
	if r.Gesture == GesturePeekaboo {
		r.Expression = ExpressionNone
	}
	return r
}
