package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// APIConfig points at the planning system's HTTP API.
type APIConfig struct {
	// BaseURL is the upstream root, e.g. "http://127.0.0.1:9000".
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Token is an optional bearer token.
	Token string `yaml:"token" json:"token"`
}

// CacheConfig bounds the upstream response cache.
type CacheConfig struct {
	Size       int `yaml:"size" json:"size"`
	TTLMinutes int `yaml:"ttl_minutes" json:"ttl_minutes"`
}

// ICSConfig describes one subscribed calendar feed used as a supplemental
// meeting source.
type ICSConfig struct {
	ID       string `yaml:"id" json:"id"`
	URL      string `yaml:"url" json:"url"`
	Internal bool   `yaml:"internal" json:"internal"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API surface.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA display timezone (e.g. "Europe/Berlin").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekDays is the number of dates the default view selects: 5 for a
	// workweek grid, 7 for the full week. The aggregation window is
	// always the Monday-start 7-day week.
	WeekDays int `yaml:"week_days" json:"week_days"`

	// RefreshCron schedules background re-aggregation of the current
	// week (e.g. "*/10 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	API   APIConfig   `yaml:"api" json:"api"`
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// InternalPlatforms classify meetings on these platforms as in-house.
	InternalPlatforms []string `yaml:"internal_platforms" json:"internal_platforms"`

	// ProjectMarkers are legacy title substrings marking extended
	// projects; the project kind flag is the preferred signal.
	ProjectMarkers []string `yaml:"project_markers" json:"project_markers"`

	// SingleDayPhase is the task phase treated as a single-day commitment.
	SingleDayPhase string `yaml:"single_day_phase" json:"single_day_phase"`

	// ICS lists subscribed calendar feeds.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, protects all endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            "127.0.0.1:8080",
		Timezone:          "Europe/Berlin",
		WeekDays:          7,
		RefreshCron:       "*/10 * * * *",
		API:               APIConfig{BaseURL: "http://127.0.0.1:9000"},
		Cache:             CacheConfig{Size: 256, TTLMinutes: 10},
		InternalPlatforms: []string{"office", "huddle"},
		ProjectMarkers:    []string{"MST", "VS", "VL"},
		SingleDayPhase:    "commitment",
		ICS:               []ICSConfig{},
		BasicAuth:         nil,
	}
}

// Normalize fills missing/zero values with defaults so partially-filled
// configs from older versions still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Berlin"
	}
	switch c.WeekDays {
	case 5, 7:
		// ok
	default:
		c.WeekDays = 7
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/10 * * * *"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://127.0.0.1:9000"
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = 256
	}
	if c.Cache.TTLMinutes <= 0 {
		c.Cache.TTLMinutes = 10
	}
	if c.InternalPlatforms == nil {
		c.InternalPlatforms = []string{"office", "huddle"}
	}
	if c.ProjectMarkers == nil {
		c.ProjectMarkers = []string{"MST", "VS", "VL"}
	}
	if c.SingleDayPhase == "" {
		c.SingleDayPhase = "commitment"
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Load loads configuration from the given YAML path. A missing file is a
// first run: the default config is written there (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory as needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".plancal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
