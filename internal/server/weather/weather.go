// Package weather defines the forecast model consumed by the weather job and
// the "nice weather" predicate.
package weather

import (
	"context"
	"time"
)

// Location is a point on the globe in decimal degrees.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Forecast is a snapshot of current conditions. Temperatures are in °F.
type Forecast struct {
	Temperature       float64
	FeelsLike         float64
	CurrentTime       time.Time
	Sunrise           time.Time
	Sunset            time.Time
	CloudCoverPercent float64
}

type Forecaster interface {
	Forecast(ctx context.Context, loc Location) (Forecast, error)
}

// IsNice reports whether the current temperature, truncated toward zero,
// equals target.
func IsNice(f Forecast, target int) bool {
	return int(f.Temperature) == target
}
