package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/niceweather/internal/clock"
	"github.com/dmitrijs2005/niceweather/internal/common"
	"github.com/dmitrijs2005/niceweather/internal/dbx"
	"github.com/dmitrijs2005/niceweather/internal/server/models"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/repomanager"
)

// LocationService reads and writes a user's saved coordinates.
type LocationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       clock.Clock
}

func NewLocationService(db *sql.DB, m repomanager.RepositoryManager, c clock.Clock) *LocationService {
	return &LocationService{db: db, repomanager: m, clock: c}
}

func (s *LocationService) GetLocation(ctx context.Context, userID string) (*models.Location, error) {
	loc, err := s.repomanager.Locations(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NotFound(userID)
		}
		return nil, fmt.Errorf("error reading location: %w", err)
	}
	return loc, nil
}

// UpdateLocation creates or moves the user's location. Throttle state is kept.
func (s *LocationService) UpdateLocation(ctx context.Context, userID string, lat, lon float64) (*models.Location, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	repo := s.repomanager.Locations(s.db)
	if err := repo.Upsert(ctx, userID, lat, lon, s.clock.Now()); err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.NotFound(userID)
		}
		return nil, fmt.Errorf("error saving location: %w", err)
	}
	return repo.Get(ctx, userID)
}
