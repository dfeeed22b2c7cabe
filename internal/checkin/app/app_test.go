package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/checkin/internal/checkin/report"
	"github.com/aussiebroadwan/checkin/internal/checkin/service"
	"github.com/aussiebroadwan/checkin/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Port:                0,
		KeyPort:             0,
		DatabaseDriver:      "sqlite",
		DatabaseFile:        filepath.Join(t.TempDir(), "checkin.db"),
		DBConnectRetries:    2,
		DBConnectDelay:      time.Millisecond,
		KeySource:           "random",
		KeyRotationInterval: time.Minute,
		KeyValidity:         time.Minute,
		Location:            time.UTC,
		ReportDir:           t.TempDir(),
		ShutdownGracePeriod: time.Second,
	}
}

func TestInitDatabase(t *testing.T) {
	ctx := context.Background()

	t.Run("opens and migrates sqlite", func(t *testing.T) {
		app := &Application{cfg: testConfig(t), logger: slogx.Discard()}
		require.NoError(t, app.initDatabase(ctx))
		t.Cleanup(func() { _ = app.db.Close() })

		require.NoError(t, app.db.Ping(ctx))
		bindings, err := app.db.Bindings().ListBindings(ctx)
		require.NoError(t, err)
		require.Empty(t, bindings)
	})

	t.Run("gives up after the configured retries", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.DatabaseFile = filepath.Join(t.TempDir(), "missing", "dir", "checkin.db")

		app := &Application{cfg: cfg, logger: slogx.Discard()}
		require.Error(t, app.initDatabase(ctx))
	})

	t.Run("configuration errors are not retried", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.DBConnectDelay = time.Hour

		cfg.DatabaseDriver = "mysql"
		app := &Application{cfg: cfg, logger: slogx.Discard()}
		require.ErrorContains(t, app.initDatabase(ctx), "unknown DATABASE_DRIVER")

		cfg.DatabaseDriver = "postgres"
		app = &Application{cfg: cfg, logger: slogx.Discard()}
		require.ErrorContains(t, app.initDatabase(ctx), "DATABASE_URL")
	})
}

func TestCodeSource(t *testing.T) {
	app := &Application{cfg: testConfig(t), logger: slogx.Discard()}

	src, err := app.codeSource()
	require.NoError(t, err)
	require.IsType(t, service.RandomSource{}, src)

	app.cfg.KeySource = "totp"
	src, err = app.codeSource()
	require.NoError(t, err)
	require.IsType(t, &service.TOTPSource{}, src)

	app.cfg.KeySource = "dice"
	_, err = app.codeSource()
	require.Error(t, err)
}

func TestNewWiresServices(t *testing.T) {
	cfg := testConfig(t)

	app, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	require.NotEmpty(t, app.keys.Current().Value)
	require.Equal(t, 0, app.bindings.Count())
	require.IsType(t, report.FileSink{}, app.reportService.Sink)
	require.Equal(t, ":0", app.server.Addr)
	require.NotNil(t, app.keyServer.Handler)
}
