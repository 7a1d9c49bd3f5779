// Package sessions persists opaque session tokens, one row per user.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/niceweather/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	// FindByToken returns common.ErrorNotFound when no session carries token.
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	// FindByUser returns common.ErrorNotFound when the user has no session.
	FindByUser(ctx context.Context, userID string) (*models.Session, error)
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
