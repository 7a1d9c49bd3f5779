package pushtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
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

func (r *SQLRepository) Find(ctx context.Context, userID string, deviceType models.DeviceType, deviceToken string) (*models.PushToken, error) {
	query := `
		SELECT id, user_id, device_type, device_token, session_id, updated_at
		FROM push_tokens
		WHERE user_id = $1 AND device_type = $2 AND device_token = $3
	`
	t := &models.PushToken{}
	var dt string
	err := r.db.QueryRowContext(ctx, query, userID, string(deviceType), deviceToken).
		Scan(&t.ID, &t.UserID, &dt, &t.DeviceToken, &t.SessionID, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.DeviceType = models.DeviceType(dt)
	return t, nil
}

func (r *SQLRepository) Create(ctx context.Context, t *models.PushToken) error {
	query := `
		INSERT INTO push_tokens (id, user_id, device_type, device_token, session_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.UserID, string(t.DeviceType), t.DeviceToken, t.SessionID, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) UpdateSession(ctx context.Context, id, sessionID string, updatedAt time.Time) error {
	query := `UPDATE push_tokens SET session_id = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, sessionID, updatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.NotFound(id)
	}
	return nil
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID string) ([]models.PushToken, error) {
	query := `
		SELECT id, user_id, device_type, device_token, session_id, updated_at
		FROM push_tokens
		WHERE user_id = $1
		ORDER BY updated_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.PushToken
	for rows.Next() {
		var t models.PushToken
		var dt string
		if err := rows.Scan(&t.ID, &t.UserID, &dt, &t.DeviceToken, &t.SessionID, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		t.DeviceType = models.DeviceType(dt)
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	return r.exec(ctx, `DELETE FROM push_tokens WHERE session_id = $1`, sessionID)
}

func (r *SQLRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return r.exec(ctx, `DELETE FROM push_tokens WHERE user_id = $1`, userID)
}

// DeleteByIDs removes every listed registration. Unknown ids are ignored.
func (r *SQLRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `DELETE FROM push_tokens WHERE id IN (` + strings.Join(placeholders, ", ") + `)`
	return r.exec(ctx, query, args...)
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
