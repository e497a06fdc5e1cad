package config

import (
	"os"
	"strconv"
)

// ApplyEnv overlays environment overrides onto cfg. Installations use
// these to repoint a machine without editing its config file; flags
// still win over the environment.
func ApplyEnv(cfg *Config) {
	if level := os.Getenv("PUPPET_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if host := os.Getenv("PUPPET_OSC_HOST"); host != "" {
		cfg.OSC.Host = host
	}
	if port := os.Getenv("PUPPET_OSC_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.OSC.Port = p
		}
	}
	if broker := os.Getenv("PUPPET_MQTT_BROKER"); broker != "" {
		cfg.MQTT.Broker = broker
	}
	if port := os.Getenv("PUPPET_MONITOR_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Monitor.Port = p
		}
	}
}
