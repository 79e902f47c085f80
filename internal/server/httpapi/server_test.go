package httpapi

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/metrics"
)

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil, nil, nil, metrics.New(), logging.Nop{}, 1024)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- h.Run(ctx, "127.0.0.1:0")
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	h := NewHandler(nil, nil, nil, metrics.New(), logging.Nop{}, 1024)
	if err := h.Run(context.Background(), "127.0.0.1:99999"); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}
