package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/niceweather/internal/server/config"
	"github.com/dmitrijs2005/niceweather/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProviders(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	providers, err := buildProviders(cfg)
	require.NoError(t, err)
	assert.Empty(t, providers, "no credentials, no providers")

	cfg.VAPIDPublicKey = "pub"
	cfg.VAPIDPrivateKey = "priv"
	providers, err = buildProviders(cfg)
	require.NoError(t, err)
	assert.Contains(t, providers, models.DeviceTypeWeb)
	assert.NotContains(t, providers, models.DeviceTypeIOS)

	cfg.APNSKeyFile = filepath.Join(t.TempDir(), "missing.p8")
	_, err = buildProviders(cfg)
	assert.Error(t, err)
}

func TestNewApp_MigratesStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = "file:" + filepath.Join(t.TempDir(), "app.db")
	cfg.LogLevel = "error"

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	var n int
	require.NoError(t, app.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
	assert.Zero(t, n)
}

func TestNewApp_BadDSN(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = "postgres://nobody@127.0.0.1:1/none?connect_timeout=1"

	_, err := NewApp(context.Background(), cfg)
	assert.Error(t, err)
}
