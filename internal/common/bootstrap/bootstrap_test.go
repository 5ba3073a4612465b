package bootstrap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
	"github.com/AlibekovAA/relay-hub/internal/common/logger"
)

func TestNewRelayApp_InvalidConfigReturnsError(t *testing.T) {
	t.Setenv("RELAY_WS_PONG_WAIT", "soon")

	app, err := NewRelayApp()
	if !errors.Is(err, commonerrors.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if app != nil {
		t.Error("expected no app on config error")
	}
}

func TestNewRelayApp_LoggerFollowsConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOG_DIR", dir)
	t.Setenv("LOG_LEVEL", "debug")

	app, err := NewRelayApp()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	t.Cleanup(func() {
		app.Hub.Shutdown()
		app.Limiter.Stop()
		app.Log.Close()
	})

	if app.Config.LogDir != dir {
		t.Errorf("expected log dir %s, got %s", dir, app.Config.LogDir)
	}
	if !app.Log.ShouldLog(logger.DEBUG) {
		t.Error("expected logger at debug level")
	}
	app.Log.Info("bootstrap test")
	if _, err := os.Stat(filepath.Join(dir, "app.log")); err != nil {
		t.Errorf("expected log file in %s: %v", dir, err)
	}
}
