package locations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/niceweather/internal/common"
	"github.com/dmitrijs2005/niceweather/internal/dbx"
	"github.com/dmitrijs2005/niceweather/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

const selectColumns = `user_id, latitude, longitude, last_temperature, last_notified_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanLocation(s scanner) (*models.Location, error) {
	l := &models.Location{}
	var temp sql.NullFloat64
	var notified sql.NullTime
	if err := s.Scan(&l.UserID, &l.Latitude, &l.Longitude, &temp, &notified, &l.UpdatedAt); err != nil {
		return nil, err
	}
	if temp.Valid {
		v := temp.Float64
		l.LastTemperature = &v
	}
	if notified.Valid {
		v := notified.Time
		l.LastNotifiedAt = &v
	}
	return l, nil
}

func (r *SQLRepository) Get(ctx context.Context, userID string) (*models.Location, error) {
	query := `SELECT ` + selectColumns + ` FROM locations WHERE user_id = $1`
	l, err := scanLocation(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

func (r *SQLRepository) Upsert(ctx context.Context, userID string, lat, lon float64, now time.Time) error {
	query := `
		INSERT INTO locations (user_id, latitude, longitude, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET latitude = excluded.latitude,
		    longitude = excluded.longitude,
		    updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, userID, lat, lon, now); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context) ([]models.Location, error) {
	query := `SELECT ` + selectColumns + ` FROM locations ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) RecordObservation(ctx context.Context, userID string, temperature float64, notifiedAt *time.Time, now time.Time) error {
	var (
		res sql.Result
		err error
	)
	if notifiedAt != nil {
		res, err = r.db.ExecContext(ctx,
			`UPDATE locations SET last_temperature = $2, last_notified_at = $3, updated_at = $4 WHERE user_id = $1`,
			userID, temperature, *notifiedAt, now)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE locations SET last_temperature = $2, updated_at = $3 WHERE user_id = $1`,
			userID, temperature, now)
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.NotFound(userID)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM locations WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
