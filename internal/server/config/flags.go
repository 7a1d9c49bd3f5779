package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/niceweather/internal/flagx"
)

// parseFlags overrides Config fields from short command-line flags:
//
//	-a string   gRPC bind address
//	-m string   metrics bind address
//	-d string   database DSN (sqlite DSN or postgres:// URL)
//	-s string   HMAC secret for signed sessions
//	-k string   session mode: opaque or signed
//	-t int      session validity, hours
//	-i int      weather job interval, minutes
//	-n int      nice temperature target
//	-l string   log level
//
// Only these flags are considered; anything else on the command line is
// ignored here.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-m", "-d", "-s", "-k", "-t", "-i", "-n", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "metrics address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.SessionMode, "k", config.SessionMode, "session mode (opaque|signed)")
	sessionTTL := fs.Int("t", int(config.SessionTTL.Hours()), "session validity (in hours)")
	jobInterval := fs.Int("i", int(config.WeatherJobInterval.Minutes()), "weather job interval (in minutes)")
	fs.IntVar(&config.NiceTemperature, "n", config.NiceTemperature, "nice temperature target")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// only touch durations that were given, so sub-unit defaults survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.SessionTTL = time.Duration(*sessionTTL) * time.Hour
		case "i":
			config.WeatherJobInterval = time.Duration(*jobInterval) * time.Minute
		}
	})
	return nil
}
