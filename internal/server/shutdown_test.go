package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ecommerce-dashboard/internal/config"
)

func TestGracefulServer_RunStopsOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	httpServer := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}

	gs := NewGracefulServer(httpServer, logger, config.ServerConfig{ShutdownTimeout: 5 * time.Second})

	var ran atomic.Int32
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		ran.Add(1)
		return errors.New("flush failed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "flush failed") {
			t.Fatalf("Run() error = %v, want the failing hook's error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if ran.Load() != 2 {
		t.Errorf("ran %d hooks, want 2", ran.Load())
	}
}
