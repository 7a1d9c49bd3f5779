package sessions_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/niceweather/internal/common"
	"github.com/dmitrijs2005/niceweather/internal/dbx"
	"github.com/dmitrijs2005/niceweather/internal/server/models"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/niceweather/internal/server/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func newSession(id, user, token string) *models.Session {
	return &models.Session{ID: id, UserID: user, Token: token, ExpiresAt: t0.Add(time.Hour), CreatedAt: t0}
}

func TestCreateAndFind(t *testing.T) {
	db, _ := storetest.Open(t)
	storetest.SeedUsers(t, db, "u-1", "u-2")
	repo := sessions.NewSQLRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession("s-1", "u-1", "tok-1")))

	got, err := repo.FindByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", got.ID)
	assert.Equal(t, "u-1", got.UserID)
	assert.True(t, got.ExpiresAt.Equal(t0.Add(time.Hour)))

	got, err = repo.FindByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.Token)

	_, err = repo.FindByToken(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = repo.FindByUser(ctx, "u-2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCreate_OneSessionPerUser(t *testing.T) {
	db, _ := storetest.Open(t)
	storetest.SeedUsers(t, db, "u-1", "u-2")
	repo := sessions.NewSQLRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession("s-1", "u-1", "tok-1")))
	err := repo.Create(ctx, newSession("s-2", "u-1", "tok-2"))
	require.Error(t, err)
	assert.True(t, dbx.IsUniqueViolation(err))
}

func TestUpdateExpiry(t *testing.T) {
	db, _ := storetest.Open(t)
	storetest.SeedUsers(t, db, "u-1", "u-2")
	repo := sessions.NewSQLRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession("s-1", "u-1", "tok-1")))

	later := t0.Add(14 * 24 * time.Hour)
	require.NoError(t, repo.UpdateExpiry(ctx, "s-1", later))

	got, err := repo.FindByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, got.ExpiresAt.Equal(later))

	assert.ErrorIs(t, repo.UpdateExpiry(ctx, "missing", later), common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	db, _ := storetest.Open(t)
	storetest.SeedUsers(t, db, "u-1", "u-2")
	repo := sessions.NewSQLRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSession("s-1", "u-1", "tok-1")))
	require.NoError(t, repo.Create(ctx, newSession("s-2", "u-2", "tok-2")))

	n, err := repo.Delete(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteByUser(ctx, "u-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteByUser(ctx, "u-2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestUpdateExpiry_DBError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`^UPDATE\s+sessions\s+SET\s+expires_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("s-1", t0).
		WillReturnError(errors.New("db down"))

	err = sessions.NewSQLRepository(db).UpdateExpiry(context.Background(), "s-1", t0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.NoError(t, mock.ExpectationsWereMet())
}
