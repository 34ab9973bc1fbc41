package browser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/franz/suno-archive/internal/util"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DebugURL != "http://127.0.0.1:9222" {
		t.Errorf("expected default debug url on port 9222, got %s", cfg.DebugURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Timeout)
	}
}

func TestConnectErrorGuidance(t *testing.T) {
	err := &ConnectError{DebugURL: "http://127.0.0.1:9222", Cause: errors.New("connection refused")}

	if !errors.Is(err, util.ErrBrowserUnavailable) {
		t.Error("expected ConnectError to match ErrBrowserUnavailable")
	}
	if !strings.Contains(err.Error(), "--remote-debugging-port=9222") {
		t.Errorf("expected remote debugging guidance, got %q", err.Error())
	}
	if errors.Unwrap(err).Error() != "connection refused" {
		t.Errorf("expected cause to unwrap, got %v", errors.Unwrap(err))
	}
}

func TestConnect_NoBrowserListening(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping connection test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	cfg := &Config{
		DebugURL: "http://127.0.0.1:1",
		Timeout:  3 * time.Second,
		Retry:    &util.RetryConfig{MaxAttempts: 1, InitialWait: time.Millisecond, MaxWait: time.Millisecond},
	}

	c, err := Connect(ctx, cfg)
	if err == nil {
		c.Close()
		t.Fatal("expected connection failure with nothing listening")
	}

	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnectError, got %T: %v", err, err)
	}
	if connErr.DebugURL != cfg.DebugURL {
		t.Errorf("expected debug url %s, got %s", cfg.DebugURL, connErr.DebugURL)
	}
}
