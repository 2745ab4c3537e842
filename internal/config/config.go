package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"webperch/internal/paths"
	"webperch/internal/policy"
)

// Defaults applied before JSON decoding.
const (
	DefaultStorage            = "file"
	DefaultCacheClearMinutes  = 30
	DefaultMemoryProbeSeconds = 45
	DefaultMemoryHighWater    = 0.85
	DefaultLogLevel           = "info"
)

// MQTTAlert configures the optional fault alert publisher. Disabled unless
// both Broker and Topic are set.
type MQTTAlert struct {
	Broker   string `json:"broker,omitempty"`
	Topic    string `json:"topic,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Enabled reports whether the alert publisher should run.
func (m MQTTAlert) Enabled() bool {
	return m.Broker != "" && m.Topic != ""
}

// Alerts holds outbound alert destinations.
type Alerts struct {
	MQTT MQTTAlert `json:"mqtt,omitempty"`
}

// Log holds logger settings.
type Log struct {
	Level string `json:"level,omitempty"` // debug|info|warn|error
	File  string `json:"file,omitempty"`  // optional rotating log file
}

// Config is the top-level configuration for the shell.
type Config struct {
	HomeURL            string  `json:"home_url"`
	Storage            string  `json:"storage,omitempty"` // "file" | "sqlite"
	CacheClearMinutes  int     `json:"cache_clear_minutes,omitempty"`
	MemoryProbeSeconds int     `json:"memory_probe_seconds,omitempty"`
	MemoryHighWater    float64 `json:"memory_high_water,omitempty"`
	Log                Log     `json:"log,omitempty"`
	Alerts             Alerts  `json:"alerts,omitempty"`
}

// UnmarshalJSON sets defaults then decodes the JSON structure.
// Go's json.Unmarshal merges into existing struct fields, so only
// values present in JSON override the defaults.
func (c *Config) UnmarshalJSON(data []byte) error {
	c.Storage = DefaultStorage
	c.CacheClearMinutes = DefaultCacheClearMinutes
	c.MemoryProbeSeconds = DefaultMemoryProbeSeconds
	c.MemoryHighWater = DefaultMemoryHighWater
	c.Log.Level = DefaultLogLevel
	type Alias Config
	return json.Unmarshal(data, (*Alias)(c))
}

// HomeOrigin returns the normalized origin of the configured home URL.
func (c Config) HomeOrigin() (string, error) {
	return policy.Origin(c.HomeURL)
}

// Load reads and parses a config file. It tries, in order:
//  1. explicitPath (if non-empty)
//  2. webperch-config.json next to the running binary
//  3. the user config directory
func Load(explicitPath string) (Config, error) {
	p, err := FindPath(explicitPath)
	if err != nil {
		return Config{}, err
	}
	return readConfig(p)
}

// FindPath resolves which config file Load would read, using the same
// search order, without parsing it.
func FindPath(explicitPath string) (string, error) {
	if explicitPath != "" {
		return explicitPath, nil
	}

	// Next to binary
	exe, err := os.Executable()
	if err == nil {
		p := filepath.Join(filepath.Dir(exe), paths.ConfigFileName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	// User config directory
	p := filepath.Join(paths.DataDir(), paths.ConfigFileName)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}

	return "", fmt.Errorf("no %s found (use --config to specify a path)", paths.ConfigFileName)
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks constraints that Load cannot express structurally.
func Validate(cfg Config) error {
	if cfg.HomeURL == "" {
		return fmt.Errorf("home_url is required")
	}
	origin, err := policy.Origin(cfg.HomeURL)
	if err != nil {
		return fmt.Errorf("home_url: %w", err)
	}
	if !policy.ExternallyOpenable(origin) {
		return fmt.Errorf("home_url must be https, got %q", cfg.HomeURL)
	}
	if cfg.Storage != "file" && cfg.Storage != "sqlite" {
		return fmt.Errorf("storage must be %q or %q, got %q", "file", "sqlite", cfg.Storage)
	}
	if cfg.CacheClearMinutes <= 0 {
		return fmt.Errorf("cache_clear_minutes must be positive, got %d", cfg.CacheClearMinutes)
	}
	if cfg.MemoryProbeSeconds <= 0 {
		return fmt.Errorf("memory_probe_seconds must be positive, got %d", cfg.MemoryProbeSeconds)
	}
	if cfg.MemoryHighWater <= 0 || cfg.MemoryHighWater > 1 {
		return fmt.Errorf("memory_high_water must be in (0, 1], got %g", cfg.MemoryHighWater)
	}
	return nil
}
