package notify

import (
	"github.com/hypebeast/go-osc/osc"

	"github.com/studiolumen/light-puppet/internal/log"
	"github.com/studiolumen/light-puppet/pkg/state"
)

// OSC sends one UDP message per change or value, addressed per the
// Addresses table. With useCodes set, discrete values go out as int32
// codes from ValueCodes instead of strings; continuous values are
// always float32.
type OSC struct {
	client   *osc.Client
	useCodes bool
}

// NewOSC creates a sink pointed at an OSC consumer.
func NewOSC(host string, port int, useCodes bool) *OSC {
	return &OSC{
		client:   osc.NewClient(host, port),
		useCodes: useCodes,
	}
}

// SendChange delivers one discrete change.
func (o *OSC) SendChange(field state.Field, value string) error {
	addr, ok := Addresses[field]
	if !ok {
		log.Warn("no OSC address for field", "field", field)
		return nil
	}
	msg := osc.NewMessage(addr)
	if o.useCodes {
		msg.Append(codeFor(value))
	} else {
		msg.Append(value)
	}
	return o.client.Send(msg)
}

// SendValue delivers one continuous value.
func (o *OSC) SendValue(field state.Field, value float64) error {
	addr, ok := Addresses[field]
	if !ok {
		log.Warn("no OSC address for field", "field", field)
		return nil
	}
	msg := osc.NewMessage(addr)
	msg.Append(float32(value))
	return o.client.Send(msg)
}

// SendAll delivers the full confirmed state.
func (o *OSC) SendAll(c state.Confirmed) error {
	if err := o.SendChange(state.FieldProximity, string(c.Proximity)); err != nil {
		return err
	}
	if err := o.SendChange(state.FieldExpression, string(c.Expression)); err != nil {
		return err
	}
	return o.SendChange(state.FieldGesture, string(c.Gesture))
}

// Close is a no-op; the client dials per send.
func (o *OSC) Close() error { return nil }
