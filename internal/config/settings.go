package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Settings holds runtime tunables. Values come from SERVWATCH_* environment
// variables with the defaults below.
type Settings struct {
	// PollInterval is the adapter inbound poll cadence.
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	// HealthWatchInterval is the health watcher cycle length.
	HealthWatchInterval time.Duration `envconfig:"HEALTH_WATCH_INTERVAL" default:"30s"`
	// ProbeTimeout bounds one HTTP health probe.
	ProbeTimeout time.Duration `envconfig:"PROBE_TIMEOUT" default:"10s"`
	// ChunkSize is the outbound message chunk limit in bytes.
	ChunkSize int `envconfig:"CHUNK_SIZE" default:"4000"`
	// ChunkDelay spaces consecutive outbound chunks.
	ChunkDelay time.Duration `envconfig:"CHUNK_DELAY" default:"500ms"`
}

// LoadSettings reads settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := envconfig.Process("servwatch", &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
