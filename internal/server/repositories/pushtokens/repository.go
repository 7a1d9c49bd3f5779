// Package pushtokens persists device push tokens keyed by
// (user, device type, device token).
package pushtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/niceweather/internal/server/models"
)

type Repository interface {
	// Find returns the registration for (userID, deviceType, deviceToken)
	// or common.ErrorNotFound.
	Find(ctx context.Context, userID string, deviceType models.DeviceType, deviceToken string) (*models.PushToken, error)
	Create(ctx context.Context, t *models.PushToken) error
	// UpdateSession rebinds an existing registration to sessionID.
	UpdateSession(ctx context.Context, id, sessionID string, updatedAt time.Time) error
	ListByUser(ctx context.Context, userID string) ([]models.PushToken, error)
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
