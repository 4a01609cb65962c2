package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const DefaultPath = "config/config.toml"

var (
	ErrMissingAccessToken = errors.New("missing required ACCESS_TOKEN")
	ErrMissingObjectType  = errors.New("missing required CUSTOM_OBJECT_TYPE")
)

type ServerConfig struct {
	Port string `toml:"port"`
	Mode string `toml:"mode"`
}

type HubSpotConfig struct {
	BaseURL          string `toml:"base_url"`
	AccessToken      string `toml:"access_token"`
	CustomObjectType string `toml:"custom_object_type"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	PageSize         int    `toml:"page_size"`
}

type AssociationConfig struct {
	SerializeSubjects bool `toml:"serialize_subjects"`
}

type ConcurrencyConfig struct {
	Enrichment int `toml:"enrichment"`
	Retire     int `toml:"retire"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type Config struct {
	Server      ServerConfig      `toml:"server"`
	HubSpot     HubSpotConfig     `toml:"hubspot"`
	Association AssociationConfig `toml:"association"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Log         LogConfig         `toml:"log"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "3000", Mode: "release"},
		HubSpot: HubSpotConfig{
			BaseURL:        "https://api.hubapi.com",
			TimeoutSeconds: 10,
			PageSize:       100,
		},
		Concurrency: ConcurrencyConfig{Enrichment: 8, Retire: 4},
		Log:         LogConfig{Level: "info"},
	}
}

// Load reads a TOML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// Resolve loads the file at path when it exists, falls back to the defaults
// when it does not, and applies environment overrides. It does not validate.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) ApplyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		c.Server.Mode = v
	}
	if v := os.Getenv("ACCESS_TOKEN"); v != "" {
		c.HubSpot.AccessToken = v
	}
	if v := os.Getenv("CUSTOM_OBJECT_TYPE"); v != "" {
		c.HubSpot.CustomObjectType = v
	}
	if v := os.Getenv("HUBSPOT_BASE_URL"); v != "" {
		c.HubSpot.BaseURL = v
	}
	if v := os.Getenv("REMOTE_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REMOTE_TIMEOUT %q: %w", v, err)
		}
		c.HubSpot.TimeoutSeconds = secs
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("SERIALIZE_SUBJECTS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SERIALIZE_SUBJECTS %q: %w", v, err)
		}
		c.Association.SerializeSubjects = b
	}
	return nil
}

// Validate reports the settings without which the process must not start.
func (c *Config) Validate() error {
	var errs []error
	if c.HubSpot.AccessToken == "" {
		errs = append(errs, ErrMissingAccessToken)
	}
	if c.HubSpot.CustomObjectType == "" {
		errs = append(errs, ErrMissingObjectType)
	}
	return errors.Join(errs...)
}

func (c *Config) Timeout() time.Duration {
	if c.HubSpot.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.HubSpot.TimeoutSeconds) * time.Second
}
