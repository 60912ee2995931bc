// Package config loads robotnav settings from defaults, an optional YAML file
// and ROBOTNAV_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/robotnav/navigation/engine"
)

// Config holds the complete robotnav configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Navigation NavigationConfig `koanf:"navigation"`
	Presets    PresetsConfig    `koanf:"presets"`
	History    HistoryConfig    `koanf:"history"`
	Log        LogConfig        `koanf:"log"`
	Tunnel     TunnelConfig     `koanf:"tunnel"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// NavigationConfig holds the defaults applied to scenarios that leave
// these settings unset.
type NavigationConfig struct {
	Policy      string `koanf:"policy"`
	Occupancy   bool   `koanf:"occupancy"`
	OccupyFinal bool   `koanf:"occupy_final"`
}

// PresetsConfig locates the preset directory.
type PresetsConfig struct {
	Dir string `koanf:"dir"`
}

// HistoryConfig bounds the in-memory run history.
type HistoryConfig struct {
	Limit           int           `koanf:"limit"`
	MaxAge          time.Duration `koanf:"max_age"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// LogConfig selects log level and encoding.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

// TunnelConfig enables an ngrok tunnel. The auth token is read from NGROK_AUTHTOKEN.
type TunnelConfig struct {
	Enabled bool   `koanf:"enabled"`
	Domain  string `koanf:"domain"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Navigation: NavigationConfig{
			Policy:      engine.PolicyIgnore,
			Occupancy:   false,
			OccupyFinal: true,
		},
		Presets: PresetsConfig{Dir: "presets"},
		History: HistoryConfig{
			Limit:           500,
			MaxAge:          24 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Addr returns the host:port the HTTP server listens on
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if _, err := engine.PolicyByName(c.Navigation.Policy); err != nil {
		errs = append(errs, fmt.Errorf("navigation.policy: %w", err))
	}
	if c.History.Limit < 0 {
		errs = append(errs, fmt.Errorf("history.limit must not be negative, got %d", c.History.Limit))
	}
	if c.History.MaxAge < 0 || c.History.CleanupInterval < 0 {
		errs = append(errs, errors.New("history durations must not be negative"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if c.Tunnel.Domain != "" && !c.Tunnel.Enabled {
		errs = append(errs, errors.New("tunnel.domain requires tunnel.enabled"))
	}

	return errors.Join(errs...)
}
