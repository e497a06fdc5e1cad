// Package notify delivers conditioned state to external consumers
// over OSC and MQTT.
package notify

import (
	"github.com/studiolumen/light-puppet/internal/log"
	"github.com/studiolumen/light-puppet/pkg/state"
)

// Notifier receives confirmed-state changes and per-frame continuous
// values.
type Notifier interface {
	// SendChange delivers one confirmed discrete change.
	SendChange(field state.Field, value string) error

	// SendValue delivers one continuous per-frame value.
	SendValue(field state.Field, value float64) error

	// SendAll delivers the full confirmed state, used at startup so
	// consumers begin from a known baseline.
	SendAll(c state.Confirmed) error

	// Close releases the transport.
	Close() error
}

// Multi fans out to several notifiers. Every sink sees every message;
// a failing sink is logged and skipped so one dead consumer cannot
// silence the others.
type Multi struct {
	sinks []Notifier
}

// NewMulti wraps the given sinks.
func NewMulti(sinks ...Notifier) *Multi {
	return &Multi{sinks: sinks}
}

// SendChange fans the change out to every sink.
func (m *Multi) SendChange(field state.Field, value string) error {
	for _, s := range m.sinks {
		if err := s.SendChange(field, value); err != nil {
			log.Warn("notifier send failed", "field", field, "error", err)
		}
	}
	return nil
}

// SendValue fans the value out to every sink.
func (m *Multi) SendValue(field state.Field, value float64) error {
	for _, s := range m.sinks {
		if err := s.SendValue(field, value); err != nil {
			log.Warn("notifier send failed", "field", field, "error", err)
		}
	}
	return nil
}

// SendAll fans the baseline state out to every sink.
func (m *Multi) SendAll(c state.Confirmed) error {
	for _, s := range m.sinks {
		if err := s.SendAll(c); err != nil {
			log.Warn("notifier baseline failed", "error", err)
		}
	}
	return nil
}

// Close closes every sink and returns the first error.
func (m *Multi) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
