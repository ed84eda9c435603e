package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestSetup_WithEndpoint(t *testing.T) {
	// The exporter connects lazily, so no collector is needed.
	shutdown, err := Setup(context.Background(), "http://127.0.0.1:4318")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = shutdown(ctx) // nothing was recorded, so there is nothing to flush
}
