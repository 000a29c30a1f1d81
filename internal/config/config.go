package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds runtime configuration, read from the environment
type Config struct {
	Environment string `mapstructure:"environment"`
	ListenAddr  string `mapstructure:"listen_addr"`

	DatabasePath string `mapstructure:"database_path"`

	StravaClientID     string `mapstructure:"strava_client_id"`
	StravaClientSecret string `mapstructure:"strava_client_secret"`
	StravaRedirectURI  string `mapstructure:"strava_redirect_uri"`

	SyncPerPage  int `mapstructure:"sync_per_page"`
	SyncMaxPages int `mapstructure:"sync_max_pages"`
}

// Load reads configuration from environment variables. Defaults cover
// everything except the Strava application credentials.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("environment", "development")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("database_path", "stridesync.db")
	v.SetDefault("sync_per_page", 100)
	v.SetDefault("sync_max_pages", 100)

	v.AutomaticEnv()
	for _, key := range []string{
		"environment",
		"listen_addr",
		"database_path",
		"strava_client_id",
		"strava_client_secret",
		"strava_redirect_uri",
		"sync_per_page",
		"sync_max_pages",
	} {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that required fields are present and bounds are sane
func (c *Config) Validate() error {
	if c.StravaClientID == "" {
		return errors.New("STRAVA_CLIENT_ID is required - get it from https://www.strava.com/settings/api")
	}
	if c.StravaClientSecret == "" {
		return errors.New("STRAVA_CLIENT_SECRET is required - get it from https://www.strava.com/settings/api")
	}
	if c.StravaRedirectURI == "" {
		return errors.New("STRAVA_REDIRECT_URI is required")
	}
	if c.SyncPerPage < 1 || c.SyncPerPage > 200 {
		return fmt.Errorf("SYNC_PER_PAGE must be between 1 and 200, got %d", c.SyncPerPage)
	}
	if c.SyncMaxPages < 1 {
		return fmt.Errorf("SYNC_MAX_PAGES must be positive, got %d", c.SyncMaxPages)
	}
	return nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
