package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/routeopt/core/baseline"
	"github.com/kilianp07/routeopt/core/driver"
	"github.com/kilianp07/routeopt/core/engine"
	"github.com/kilianp07/routeopt/core/history"
	"github.com/kilianp07/routeopt/core/metrics"
	"github.com/kilianp07/routeopt/core/vehicle"
	"github.com/kilianp07/routeopt/infra/mqtt"
)

type Config struct {
	Engine      engine.Config     `json:"engine"`
	Baseline    baseline.Config   `json:"baseline"`
	History     history.Config    `json:"history"`
	Drivers     driver.Config     `json:"drivers"`
	Vehicles    vehicle.Config    `json:"vehicles"`
	Metrics     metrics.Config    `json:"metrics"`
	MQTT        MQTTConfig        `json:"mqtt"`
	API         APIConfig         `json:"api"`
	Persistence PersistenceConfig `json:"persistence"`
}

// APIConfig defines the HTTP surface.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Listen  string `json:"listen"`
	// Token guards the insights endpoint when non-empty.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
}

// MQTTConfig wraps the ingest settings with an enable switch so a
// deployment without a broker stays valid.
type MQTTConfig struct {
	Enabled     bool `json:"enabled"`
	mqtt.Config `json:",squash"`
}

// PersistenceConfig selects the state store backend.
type PersistenceConfig struct {
	// Backend is "none", "memory" or "postgres".
	Backend string `json:"backend"`
	// DatabaseURL is the Postgres connection string. The ROUTEOPT_DB_URL
	// environment variable overrides it.
	DatabaseURL string `json:"database_url"`
}

// SetDefaults applies sane defaults.
func (c *PersistenceConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "none"
	}
}

// Validate checks the backend selection.
func (c PersistenceConfig) Validate() error {
	switch c.Backend {
	case "none", "memory", "postgres":
	default:
		return fmt.Errorf("unknown persistence backend %s", c.Backend)
	}
	if c.Backend == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required for the postgres backend")
	}
	return nil
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("RO_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ro_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Engine.SetDefaults()
	cfg.Baseline.SetDefaults()
	cfg.History.SetDefaults()
	cfg.Drivers.SetDefaults()
	cfg.Vehicles.SetDefaults()
	cfg.API.SetDefaults()
	cfg.Persistence.SetDefaults()
	if cfg.MQTT.Enabled {
		cfg.MQTT.Config.SetDefaults()
		if err := cfg.MQTT.Config.Validate(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Persistence.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
