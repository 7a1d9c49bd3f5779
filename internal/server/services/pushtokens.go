package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/niceweather/internal/clock"
	"github.com/dmitrijs2005/niceweather/internal/common"
	"github.com/dmitrijs2005/niceweather/internal/dbx"
	"github.com/dmitrijs2005/niceweather/internal/logging"
	"github.com/dmitrijs2005/niceweather/internal/server/models"
	"github.com/dmitrijs2005/niceweather/internal/server/push"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// PushTokenRegistry binds device tokens to users and sessions. At most one
// row exists per (user, device type, device token).
type PushTokenRegistry struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       clock.Clock
	logger      logging.Logger
}

func NewPushTokenRegistry(db *sql.DB, m repomanager.RepositoryManager, c clock.Clock, logger logging.Logger) *PushTokenRegistry {
	return &PushTokenRegistry{db: db, repomanager: m, clock: c, logger: logger.With("module", "pushtokens")}
}

func validatePushToken(deviceToken string, deviceType models.DeviceType) error {
	if _, err := models.ParseDeviceType(string(deviceType)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidDeviceType, err)
	}
	if strings.TrimSpace(deviceToken) == "" {
		return fmt.Errorf("%w: empty token", common.ErrInvalidPushToken)
	}
	if deviceType == models.DeviceTypeWeb {
		if _, err := push.ParseSubscription(deviceToken); err != nil {
			return fmt.Errorf("%w: %v", common.ErrInvalidPushToken, err)
		}
	}
	return nil
}

// Register records deviceToken for userID under sessionID. Repeating a
// registration with the same session changes nothing; a new session rebinds
// the existing row in place.
func (r *PushTokenRegistry) Register(ctx context.Context, deviceToken string, deviceType models.DeviceType, userID, sessionID string) (*models.PushToken, error) {
	if err := validatePushToken(deviceToken, deviceType); err != nil {
		return nil, err
	}

	var result *models.PushToken
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := r.repomanager.PushTokens(tx)
		now := r.clock.Now()

		existing, err := repo.Find(ctx, userID, deviceType, deviceToken)
		switch {
		case err == nil && existing.SessionID == sessionID:
			result = existing
			return nil
		case err == nil:
			if err := repo.UpdateSession(ctx, existing.ID, sessionID, now); err != nil {
				return fmt.Errorf("error updating push token: %w", err)
			}
			existing.SessionID = sessionID
			existing.UpdatedAt = now
			result = existing
			return nil
		case !errors.Is(err, common.ErrorNotFound):
			return fmt.Errorf("error searching push token: %w", err)
		}

		t := &models.PushToken{
			ID:          uuid.NewString(),
			UserID:      userID,
			DeviceToken: deviceToken,
			DeviceType:  deviceType,
			SessionID:   sessionID,
			UpdatedAt:   now,
		}
		if err := repo.Create(ctx, t); err != nil {
			if dbx.IsForeignKeyViolation(err) {
				return common.NotFound(userID)
			}
			return fmt.Errorf("error creating push token: %w", err)
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteBySession removes every token registered under sessionID.
func (r *PushTokenRegistry) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	n, err := r.repomanager.PushTokens(r.db).DeleteBySession(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("error deleting push tokens: %w", err)
	}
	return n, nil
}

// Invalidate removes tokens a provider reported as permanently undeliverable.
func (r *PushTokenRegistry) Invalidate(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := r.repomanager.PushTokens(r.db).DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("error invalidating push tokens: %w", err)
	}
	r.logger.Info(ctx, "push tokens invalidated", "requested", len(ids), "deleted", n)
	return n, nil
}

func (r *PushTokenRegistry) ListForUser(ctx context.Context, userID string) ([]models.PushToken, error) {
	list, err := r.repomanager.PushTokens(r.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing push tokens: %w", err)
	}
	return list, nil
}
