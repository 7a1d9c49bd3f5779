// Package config handles configuration for the server: defaults, an optional
// JSON or YAML file overlay, and command-line flags, applied in that order.
package config

import (
	"fmt"
	"os"
	"time"
)

// Session modes. A deployment uses exactly one.
const (
	SessionModeOpaque = "opaque"
	SessionModeSigned = "signed"
)

// Config holds runtime settings for the niceweather server.
//
// Fields:
//   - EndpointAddrGRPC / MetricsAddr: listen addresses for gRPC and Prometheus.
//   - DatabaseDSN: SQLite DSN, or a postgres:// URL to use pgx instead.
//   - SecretKey: HMAC key for signed sessions (HS256). Do not use the default in prod.
//   - SessionMode / SessionTTL: token design and validity window.
//   - WeatherJobInterval, NiceTemperature, NotifyCooldown: weather job tuning.
//   - APNS* / VAPID*: push provider credentials; a provider with no credentials is disabled.
type Config struct {
	EndpointAddrGRPC string
	MetricsAddr      string
	DatabaseDSN      string
	SecretKey        string
	LogLevel         string

	SessionMode string
	SessionTTL  time.Duration

	WeatherJobInterval  time.Duration
	NiceTemperature     int
	NotifyCooldown      time.Duration
	DispatchConcurrency int

	OpenMeteoBaseURL string
	ForecastCacheTTL time.Duration

	APNSKeyFile    string
	APNSKeyID      string
	APNSTeamID     string
	APNSTopic      string
	APNSProduction bool

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.MetricsAddr = ":9090"
	c.DatabaseDSN = "file:niceweather.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	c.SecretKey = "secretKey"
	c.LogLevel = "info"
	c.SessionMode = SessionModeOpaque
	c.SessionTTL = 14 * 24 * time.Hour
	c.WeatherJobInterval = 15 * time.Minute
	c.NiceTemperature = 69
	c.NotifyCooldown = time.Hour
	c.DispatchConcurrency = 8
	c.OpenMeteoBaseURL = "https://api.open-meteo.com/v1"
	c.ForecastCacheTTL = 10 * time.Minute
}

// Validate rejects combinations the server cannot run with.
func (c *Config) Validate() error {
	switch c.SessionMode {
	case SessionModeOpaque:
	case SessionModeSigned:
		if c.SecretKey == "" {
			return fmt.Errorf("session mode %q requires a secret key", c.SessionMode)
		}
	default:
		return fmt.Errorf("unknown session mode %q", c.SessionMode)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	if c.WeatherJobInterval <= 0 {
		return fmt.Errorf("weather job interval must be positive, got %s", c.WeatherJobInterval)
	}
	if c.DispatchConcurrency < 1 {
		return fmt.Errorf("dispatch concurrency must be at least 1, got %d", c.DispatchConcurrency)
	}
	return nil
}

// LoadConfig builds a Config from defaults, then the file named by -c/-config
// (if any), then the remaining flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
