package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadEnvFile(filepath.Join(dir, "absent.env")); err != nil {
			t.Errorf("LoadEnvFile() error = %v", err)
		}
	})

	t.Run("values are loaded without overriding the environment", func(t *testing.T) {
		path := filepath.Join(dir, "test.env")
		content := "BILANCIO_TEST_A=from-file\nBILANCIO_TEST_B=from-file\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("BILANCIO_TEST_B", "from-env")
		t.Cleanup(func() { os.Unsetenv("BILANCIO_TEST_A") })

		if err := LoadEnvFile(path); err != nil {
			t.Fatalf("LoadEnvFile() error = %v", err)
		}
		if got := os.Getenv("BILANCIO_TEST_A"); got != "from-file" {
			t.Errorf("BILANCIO_TEST_A = %q", got)
		}
		if got := os.Getenv("BILANCIO_TEST_B"); got != "from-env" {
			t.Errorf("BILANCIO_TEST_B = %q, existing values must win", got)
		}
	})
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	if _, err := LoadAndValidateConfig(); err != nil {
		t.Fatalf("LoadAndValidateConfig() error = %v", err)
	}

	t.Setenv("DATA_BACKEND", "postgres")
	if _, err := LoadAndValidateConfig(); err == nil {
		t.Error("expected validation error")
	}
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug")
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}
	if slog.Default() != logger.Logger {
		t.Error("logger should be installed as default")
	}
}

func TestSignalContext(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	logger := SetupLogger("error")

	ctx, cancel := SignalContext(context.Background(), logger)
	defer cancel()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context was not cancelled by SIGTERM")
	}
}
