package models

import "time"

// Location is the per-user row the weather job reads and writes. The last
// temperature and notification time drive notification throttling.
type Location struct {
	UserID          string
	Latitude        float64
	Longitude       float64
	LastTemperature *float64
	LastNotifiedAt  *time.Time
	UpdatedAt       time.Time
}
