package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/niceweather/internal/clock"
	"github.com/dmitrijs2005/niceweather/internal/dbx"
	"github.com/dmitrijs2005/niceweather/internal/logging"
	"github.com/dmitrijs2005/niceweather/internal/server/config"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/locations"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/pushtokens"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/niceweather/internal/server/repositories/users"
	"github.com/dmitrijs2005/niceweather/internal/server/storetest"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// sha256Hasher is a fast stand-in for scrypt.
type sha256Hasher struct{}

func (sha256Hasher) Hash(password, salt string) (string, error) {
	sum := sha256.Sum256([]byte(salt + "\x00" + password))
	return hex.EncodeToString(sum[:]), nil
}

type env struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	clock    *clock.Fake
	sessions *SessionService
	registry *PushTokenRegistry
	places   *LocationService
}

func newEnv(t *testing.T, mode string) *env {
	t.Helper()
	db, rm := storetest.Open(t)
	return newEnvWith(t, db, rm, mode)
}

func newEnvWith(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager, mode string) *env {
	t.Helper()
	cfg := &config.Config{
		SecretKey:   "test-secret",
		SessionMode: mode,
		SessionTTL:  14 * 24 * time.Hour,
	}
	c := clock.NewFake(t0)
	return &env{
		db:       db,
		rm:       rm,
		clock:    c,
		sessions: NewSessionService(db, rm, cfg, sha256Hasher{}, c, logging.Nop{}),
		registry: NewPushTokenRegistry(db, rm, c, logging.Nop{}),
		places:   NewLocationService(db, rm, c),
	}
}

// seedUsers creates bare accounts for tests that work below the session layer.
func (e *env) seedUsers(t *testing.T, ids ...string) {
	t.Helper()
	storetest.SeedUsers(t, e.db, ids...)
}

func countRows(t *testing.T, db *sql.DB, table, userID string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE user_id = $1`, userID).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// failingManager wraps a real manager and makes one location delete fail,
// to exercise rollback of multi-table operations.
type failingManager struct {
	repomanager.RepositoryManager
	failLocationDelete bool
}

func (m *failingManager) Locations(db dbx.DBTX) locations.Repository {
	return &failingLocations{Repository: m.RepositoryManager.Locations(db), fail: m.failLocationDelete}
}

func (m *failingManager) Users(db dbx.DBTX) users.Repository {
	return m.RepositoryManager.Users(db)
}

func (m *failingManager) Sessions(db dbx.DBTX) sessions.Repository {
	return m.RepositoryManager.Sessions(db)
}

func (m *failingManager) PushTokens(db dbx.DBTX) pushtokens.Repository {
	return m.RepositoryManager.PushTokens(db)
}

type failingLocations struct {
	locations.Repository
	fail bool
}

var errInjected = errors.New("injected failure")

func (f *failingLocations) Delete(ctx context.Context, userID string) (int64, error) {
	if f.fail {
		return 0, errInjected
	}
	return f.Repository.Delete(ctx, userID)
}
