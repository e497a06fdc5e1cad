package notify

import (
	"fmt"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/studiolumen/light-puppet/internal/log"
	"github.com/studiolumen/light-puppet/pkg/state"
)

// MQTT publishes state to a broker, one retained topic per field
// under a common prefix, so late subscribers read the current state
// the moment they connect. Discrete changes wait for the publish
// token; per-frame values are fire-and-forget at QoS 0.
type MQTT struct {
	client mqtt.Client
	prefix string
}

// NewMQTT connects to the broker. The broker URL carries its scheme,
// e.g. tcp://localhost:1883.
func NewMQTT(broker, clientID, prefix string) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		log.Info("mqtt connected", "broker", broker, "client_id", clientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost, will auto-reconnect", "error", err, "broker", broker)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, fmt.Errorf("mqtt connection timeout: %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	return &MQTT{client: client, prefix: prefix}, nil
}

func (m *MQTT) topic(field state.Field) string {
	return m.prefix + "/" + string(field)
}

// SendChange publishes one discrete change, retained.
func (m *MQTT) SendChange(field state.Field, value string) error {
	token := m.client.Publish(m.topic(field), 0, true, value)
	if !token.WaitTimeout(2 * time.Second) {
		return fmt.Errorf("publish timeout: %s", m.topic(field))
	}
	return token.Error()
}

// SendValue publishes one continuous value, retained, without waiting.
func (m *MQTT) SendValue(field state.Field, value float64) error {
	m.client.Publish(m.topic(field), 0, true, strconv.FormatFloat(value, 'f', -1, 64))
	return nil
}

// SendAll publishes the full confirmed state.
func (m *MQTT) SendAll(c state.Confirmed) error {
	if err := m.SendChange(state.FieldProximity, string(c.Proximity)); err != nil {
		return err
	}
	if err := m.SendChange(state.FieldExpression, string(c.Expression)); err != nil {
		return err
	}
	return m.SendChange(state.FieldGesture, string(c.Gesture))
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	if m.client.IsConnected() {
		m.client.Disconnect(250)
	}
	return nil
}
