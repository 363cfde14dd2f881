package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Firestore     FirestoreConfig     `yaml:"firestore"`
	NATS          NATSConfig          `yaml:"nats"`
	Observability ObservabilityConfig `yaml:"observability"`
	Throttle      ThrottleConfig      `yaml:"throttle"`
}

// FirestoreConfig holds Firestore configuration.
type FirestoreConfig struct {
	ProjectID  string `yaml:"project_id"`
	Collection string `yaml:"collection"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// ObservabilityConfig holds configuration for metrics and health endpoints.
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
}

// ThrottleConfig tunes the per-user command throttle.
type ThrottleConfig struct {
	CommandsPerSecond float64 `yaml:"commands_per_second"`
	Burst             int     `yaml:"burst"`
}

// LoadConfig reads configuration from a YAML file, then applies environment
// overrides. A missing file falls back to environment variables alone.
func LoadConfig(filename string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
		// No file; environment variables and defaults apply.
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if v := os.Getenv("FIRESTORE_PROJECT_ID"); v != "" {
		cfg.Firestore.ProjectID = v
	}
	if v := os.Getenv("FIRESTORE_COLLECTION"); v != "" {
		cfg.Firestore.Collection = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("THROTTLE_COMMANDS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Throttle.CommandsPerSecond = f
		}
	}
	if v := os.Getenv("THROTTLE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Throttle.Burst = n
		}
	}

	if cfg.Firestore.ProjectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Firestore: FirestoreConfig{
			Collection: "users",
		},
		NATS: NATSConfig{
			URL: "nats://localhost:4222",
		},
		Observability: ObservabilityConfig{
			MetricsAddress: ":9090",
		},
		Throttle: ThrottleConfig{
			CommandsPerSecond: 1,
			Burst:             3,
		},
	}
}
