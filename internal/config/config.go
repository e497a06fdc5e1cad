// Package config loads and validates the light-puppet YAML
// configuration. Validation happens here, at the boundary: the
// conditioning core trusts the values it is handed.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete light-puppet configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Camera    CameraConfig    `yaml:"camera"`
	Detection DetectionConfig `yaml:"detection"`
	State     StateConfig     `yaml:"state"`
	OSC       OSCConfig       `yaml:"osc"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Recorder  RecorderConfig  `yaml:"recorder"`

	Preview         bool `yaml:"preview"`
	PrintDetections bool `yaml:"print_detections"`
}

// CameraConfig selects and sizes the frame source.
type CameraConfig struct {
	Type        string `yaml:"type"` // webcam, file, stream
	DeviceIndex int    `yaml:"device_index"`
	Path        string `yaml:"path"`   // for type: file
	URL         string `yaml:"url"`    // for type: stream
	Preset      string `yaml:"preset"` // named capture size, overrides width/height/fps
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	FPS         int    `yaml:"fps"`
}

// DetectionConfig holds model paths and per-backend tuning.
type DetectionConfig struct {
	FaceModel       string  `yaml:"face_model"`
	ExpressionModel string  `yaml:"expression_model"`
	HandModel       string  `yaml:"hand_model"`
	FaceConfidence  float64 `yaml:"face_confidence"`

	Proximity  ProximityConfig  `yaml:"proximity"`
	Expression ExpressionConfig `yaml:"expression"`
	Peekaboo   PeekabooConfig   `yaml:"peekaboo"`
	FaceCoords FaceCoordsConfig `yaml:"face_coords"`
	Hands      HandsConfig      `yaml:"hands"`
}

// ProximityConfig tunes the face-area distance bands.
type ProximityConfig struct {
	Enabled        bool    `yaml:"enabled"`
	CloseThreshold float64 `yaml:"close_threshold"` // face area ratio at or above this is CLOSE
	FarThreshold   float64 `yaml:"far_threshold"`   // face area ratio at or below this is FAR
}

// ExpressionConfig tunes the expression classifier.
type ExpressionConfig struct {
	Enabled       bool    `yaml:"enabled"`
	AnalyzeEvery  int     `yaml:"analyze_every"`  // classify every Nth frame
	MinConfidence float64 `yaml:"min_confidence"` // below this the expression reads NEUTRAL
}

// PeekabooConfig tunes the face-disappearance gesture.
type PeekabooConfig struct {
	Enabled        bool `yaml:"enabled"`
	FaceLostFrames int  `yaml:"face_lost_frames"` // consecutive faceless frames before PEEKABOO
}

// FaceCoordsConfig enables face center reporting.
type FaceCoordsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// HandsConfig tunes the hand landmark backend.
type HandsConfig struct {
	Enabled     bool    `yaml:"enabled"`
	MinPresence float64 `yaml:"min_presence"` // below this no hand is reported
}

// StateConfig tunes the two conditioning timescales.
type StateConfig struct {
	DebounceFrames     int     `yaml:"debounce_frames"`
	IdleTimeoutSeconds float64 `yaml:"idle_timeout_seconds"`
}

// IdleTimeout returns the idle timeout as a duration.
func (s StateConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds * float64(time.Second))
}

// OSCConfig points at the OSC consumer.
type OSCConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	UseCodes bool   `yaml:"use_codes"` // numeric codes instead of string values
}

// MQTTConfig points at an optional MQTT broker.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// MonitorConfig enables the web dashboard.
type MonitorConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// RecorderConfig enables session recording to SQLite.
type RecorderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Camera: CameraConfig{
			Type:        "webcam",
			DeviceIndex: 0,
			Width:       1280,
			Height:      720,
			FPS:         30,
		},
		Detection: DetectionConfig{
			FaceModel:       "models/face_detection_yunet_2023mar.onnx",
			ExpressionModel: "models/emotion-ferplus-8.onnx",
			HandModel:       "models/hand_landmark.onnx",
			FaceConfidence:  0.6,
			Proximity: ProximityConfig{
				Enabled:        true,
				CloseThreshold: 0.15,
				FarThreshold:   0.04,
			},
			Expression: ExpressionConfig{
				Enabled:       true,
				AnalyzeEvery:  3,
				MinConfidence: 0.4,
			},
			Peekaboo: PeekabooConfig{
				Enabled:        true,
				FaceLostFrames: 3,
			},
			FaceCoords: FaceCoordsConfig{
				Enabled: true,
			},
			Hands: HandsConfig{
				Enabled:     false,
				MinPresence: 0.5,
			},
		},
		State: StateConfig{
			DebounceFrames:     5,
			IdleTimeoutSeconds: 5.0,
		},
		OSC: OSCConfig{
			Enabled:  true,
			Host:     "127.0.0.1",
			Port:     7000,
			UseCodes: false,
		},
		MQTT: MQTTConfig{
			Enabled:     false,
			Broker:      "tcp://localhost:1883",
			ClientID:    "light-puppet",
			TopicPrefix: "puppet/state",
		},
		Monitor: MonitorConfig{
			Enabled: false,
			Port:    8089,
		},
		Recorder: RecorderConfig{
			Enabled: false,
			Path:    "puppet.db",
		},
	}
}

// Load reads and parses a YAML configuration file. Fields absent from
// the file keep their Default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot
// run with.
func (c *Config) Validate() error {
	switch c.Camera.Type {
	case "webcam":
	case "file":
		if c.Camera.Path == "" {
			return fmt.Errorf("camera.path is required for type: file")
		}
	case "stream":
		if c.Camera.URL == "" {
			return fmt.Errorf("camera.url is required for type: stream")
		}
	default:
		return fmt.Errorf("camera.type must be webcam, file or stream, got %q", c.Camera.Type)
	}
	// preset names are resolved by the camera package
	if c.Camera.Preset == "" {
		if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
			return fmt.Errorf("camera resolution must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
		}
		if c.Camera.FPS <= 0 {
			return fmt.Errorf("camera.fps must be > 0")
		}
	}

	if c.State.DebounceFrames < 1 {
		return fmt.Errorf("state.debounce_frames must be >= 1, got %d", c.State.DebounceFrames)
	}
	if c.State.IdleTimeoutSeconds <= 0 {
		return fmt.Errorf("state.idle_timeout_seconds must be > 0, got %v", c.State.IdleTimeoutSeconds)
	}

	d := &c.Detection
	if d.Proximity.Enabled {
		if d.Proximity.CloseThreshold <= 0 || d.Proximity.CloseThreshold > 1 {
			return fmt.Errorf("detection.proximity.close_threshold must be in (0, 1]")
		}
		if d.Proximity.FarThreshold <= 0 || d.Proximity.FarThreshold >= d.Proximity.CloseThreshold {
			return fmt.Errorf("detection.proximity.far_threshold must be in (0, close_threshold)")
		}
	}
	if d.Expression.Enabled {
		if d.Expression.AnalyzeEvery < 1 {
			return fmt.Errorf("detection.expression.analyze_every must be >= 1")
		}
		if d.Expression.MinConfidence < 0 || d.Expression.MinConfidence > 1 {
			return fmt.Errorf("detection.expression.min_confidence must be in [0, 1]")
		}
	}
	if d.Peekaboo.Enabled && d.Peekaboo.FaceLostFrames < 1 {
		return fmt.Errorf("detection.peekaboo.face_lost_frames must be >= 1")
	}
	if d.Hands.Enabled && (d.Hands.MinPresence <= 0 || d.Hands.MinPresence > 1) {
		return fmt.Errorf("detection.hands.min_presence must be in (0, 1]")
	}
	if needsFaceModel(d) && d.FaceModel == "" {
		return fmt.Errorf("detection.face_model is required by the enabled backends")
	}
	if d.Expression.Enabled && d.ExpressionModel == "" {
		return fmt.Errorf("detection.expression_model is required")
	}
	if d.Hands.Enabled && d.HandModel == "" {
		return fmt.Errorf("detection.hand_model is required")
	}
	if d.FaceConfidence <= 0 || d.FaceConfidence >= 1 {
		return fmt.Errorf("detection.face_confidence must be in (0, 1)")
	}

	if c.OSC.Enabled {
		if c.OSC.Host == "" {
			return fmt.Errorf("osc.host is required")
		}
		if c.OSC.Port < 1 || c.OSC.Port > 65535 {
			return fmt.Errorf("osc.port must be in [1, 65535], got %d", c.OSC.Port)
		}
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required")
		}
		if c.MQTT.TopicPrefix == "" {
			return fmt.Errorf("mqtt.topic_prefix is required")
		}
	}
	if c.Monitor.Enabled && (c.Monitor.Port < 1 || c.Monitor.Port > 65535) {
		return fmt.Errorf("monitor.port must be in [1, 65535], got %d", c.Monitor.Port)
	}
	if c.Recorder.Enabled && c.Recorder.Path == "" {
		return fmt.Errorf("recorder.path is required")
	}
	return nil
}

func needsFaceModel(d *DetectionConfig) bool {
	return d.Proximity.Enabled || d.Expression.Enabled || d.Peekaboo.Enabled || d.FaceCoords.Enabled
}
