package notify

import "github.com/studiolumen/light-puppet/pkg/state"

// Addresses maps schema fields to OSC addresses. Fields without an
// entry are dropped with a warning rather than failing the frame.
var Addresses = map[state.Field]string{
	state.FieldProximity:      "/person/proximity",
	state.FieldProximityValue: "/person/proximity/value",
	state.FieldExpression:     "/person/expression",
	state.FieldGesture:        "/person/gesture",
	state.FieldFaceX:          "/person/face/x",
	state.FieldFaceY:          "/person/face/y",
	state.FieldHandLeftX:      "/person/hand/left/x",
	state.FieldHandLeftY:      "/person/hand/left/y",
	state.FieldHandRightX:     "/person/hand/right/x",
	state.FieldHandRightY:     "/person/hand/right/y",
}

// ValueCodes maps discrete values to numeric codes for consumers that
// cannot parse strings. Distance bands are single digits, expressions
// teens, gestures twenties; absence is zero for every field.
var ValueCodes = map[string]int32{
	string(state.ProximityClose):  1,
	string(state.ProximityMedium): 2,
	string(state.ProximityFar):    3,

	string(state.ExpressionSmile):   11,
	string(state.ExpressionAngry):   12,
	string(state.ExpressionSad):     13,
	string(state.ExpressionNeutral): 14,

	string(state.GesturePeekaboo): 21,

	"none": 0,
}

// codeFor returns the numeric code for a discrete value, zero when
// the value has no code.
func codeFor(value string) int32 {
	if code, ok := ValueCodes[value]; ok {
		return code
	}
	return 0
}
