// Package locations stores each user's coordinates together with the
// weather job's notification state.
package locations

import (
	"context"
	"time"

	"github.com/dmitrijs2005/niceweather/internal/server/models"
)

type Repository interface {
	// Get returns common.ErrorNotFound when the user never set a location.
	Get(ctx context.Context, userID string) (*models.Location, error)
	// Upsert sets coordinates; throttle state of an existing row is preserved.
	Upsert(ctx context.Context, userID string, lat, lon float64, now time.Time) error
	List(ctx context.Context) ([]models.Location, error)
	// RecordObservation stores the latest temperature. notifiedAt is written
	// only when non-nil.
	RecordObservation(ctx context.Context, userID string, temperature float64, notifiedAt *time.Time, now time.Time) error
	Delete(ctx context.Context, userID string) (int64, error)
}
