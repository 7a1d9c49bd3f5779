package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/niceweather/internal/flagx"
	"github.com/dmitrijs2005/niceweather/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Keys missing from the
// file keep the value already present in Config.
type FileConfig struct {
	EndpointAddrGRPC    string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	MetricsAddr         string         `json:"metrics_addr" yaml:"metrics_addr"`
	DatabaseDSN         string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey           string         `json:"secret_key" yaml:"secret_key"`
	LogLevel            string         `json:"log_level" yaml:"log_level"`
	SessionMode         string         `json:"session_mode" yaml:"session_mode"`
	SessionTTL          timex.Duration `json:"session_ttl" yaml:"session_ttl"`
	WeatherJobInterval  timex.Duration `json:"weather_job_interval" yaml:"weather_job_interval"`
	NiceTemperature     int            `json:"nice_temperature" yaml:"nice_temperature"`
	NotifyCooldown      timex.Duration `json:"notify_cooldown" yaml:"notify_cooldown"`
	DispatchConcurrency int            `json:"dispatch_concurrency" yaml:"dispatch_concurrency"`
	OpenMeteoBaseURL    string         `json:"open_meteo_base_url" yaml:"open_meteo_base_url"`
	ForecastCacheTTL    timex.Duration `json:"forecast_cache_ttl" yaml:"forecast_cache_ttl"`
	APNSKeyFile         string         `json:"apns_key_file" yaml:"apns_key_file"`
	APNSKeyID           string         `json:"apns_key_id" yaml:"apns_key_id"`
	APNSTeamID          string         `json:"apns_team_id" yaml:"apns_team_id"`
	APNSTopic           string         `json:"apns_topic" yaml:"apns_topic"`
	APNSProduction      bool           `json:"apns_production" yaml:"apns_production"`
	VAPIDPublicKey      string         `json:"vapid_public_key" yaml:"vapid_public_key"`
	VAPIDPrivateKey     string         `json:"vapid_private_key" yaml:"vapid_private_key"`
	VAPIDSubscriber     string         `json:"vapid_subscriber" yaml:"vapid_subscriber"`
}

func fromConfig(c *Config) *FileConfig {
	return &FileConfig{
		EndpointAddrGRPC:    c.EndpointAddrGRPC,
		MetricsAddr:         c.MetricsAddr,
		DatabaseDSN:         c.DatabaseDSN,
		SecretKey:           c.SecretKey,
		LogLevel:            c.LogLevel,
		SessionMode:         c.SessionMode,
		SessionTTL:          timex.Duration{Duration: c.SessionTTL},
		WeatherJobInterval:  timex.Duration{Duration: c.WeatherJobInterval},
		NiceTemperature:     c.NiceTemperature,
		NotifyCooldown:      timex.Duration{Duration: c.NotifyCooldown},
		DispatchConcurrency: c.DispatchConcurrency,
		OpenMeteoBaseURL:    c.OpenMeteoBaseURL,
		ForecastCacheTTL:    timex.Duration{Duration: c.ForecastCacheTTL},
		APNSKeyFile:         c.APNSKeyFile,
		APNSKeyID:           c.APNSKeyID,
		APNSTeamID:          c.APNSTeamID,
		APNSTopic:           c.APNSTopic,
		APNSProduction:      c.APNSProduction,
		VAPIDPublicKey:      c.VAPIDPublicKey,
		VAPIDPrivateKey:     c.VAPIDPrivateKey,
		VAPIDSubscriber:     c.VAPIDSubscriber,
	}
}

func (f *FileConfig) apply(c *Config) {
	c.EndpointAddrGRPC = f.EndpointAddrGRPC
	c.MetricsAddr = f.MetricsAddr
	c.DatabaseDSN = f.DatabaseDSN
	c.SecretKey = f.SecretKey
	c.LogLevel = f.LogLevel
	c.SessionMode = f.SessionMode
	c.SessionTTL = f.SessionTTL.Duration
	c.WeatherJobInterval = f.WeatherJobInterval.Duration
	c.NiceTemperature = f.NiceTemperature
	c.NotifyCooldown = f.NotifyCooldown.Duration
	c.DispatchConcurrency = f.DispatchConcurrency
	c.OpenMeteoBaseURL = f.OpenMeteoBaseURL
	c.ForecastCacheTTL = f.ForecastCacheTTL.Duration
	c.APNSKeyFile = f.APNSKeyFile
	c.APNSKeyID = f.APNSKeyID
	c.APNSTeamID = f.APNSTeamID
	c.APNSTopic = f.APNSTopic
	c.APNSProduction = f.APNSProduction
	c.VAPIDPublicKey = f.VAPIDPublicKey
	c.VAPIDPrivateKey = f.VAPIDPrivateKey
	c.VAPIDSubscriber = f.VAPIDSubscriber
}

// parseFile overlays the file named by -c/-config onto config. The format is
// chosen by extension: .yaml/.yml use YAML, anything else JSON.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := fromConfig(config)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}
