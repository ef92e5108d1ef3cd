package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCorrelationID_Length(t *testing.T) {
	id := NewCorrelationID()
	assert.Len(t, id, 8)
}

func TestNewCorrelationID_Unique(t *testing.T) {
	ids := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		ids[NewCorrelationID()] = struct{}{}
	}
	assert.Len(t, ids, 100)
}

func TestWithCorrelationID_Roundtrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "abc12345")
	id, ok := CorrelationID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc12345", id)
}

func TestCorrelationID_Missing(t *testing.T) {
	id, ok := CorrelationID(context.Background())
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestCorrelationHandler_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewCorrelationHandler(inner))

	ctx := WithCorrelationID(context.Background(), "test1234")
	logger.InfoContext(ctx, "test message", "key", "value")

	output := buf.String()
	assert.Contains(t, output, "correlation_id=test1234")
	assert.Contains(t, output, "key=value")
	assert.Contains(t, output, "test message")
}

func TestCorrelationHandler_NoIDWhenMissing(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewCorrelationHandler(inner))

	logger.InfoContext(context.Background(), "no correlation")

	assert.NotContains(t, buf.String(), "correlation_id")
}

func TestCorrelationHandler_WithAttrsPreservesCorrelation(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewCorrelationHandler(inner)).With("component", "hub")

	ctx := WithCorrelationID(context.Background(), "attr1234")
	logger.InfoContext(ctx, "with attrs")

	output := buf.String()
	assert.Contains(t, output, "correlation_id=attr1234")
	assert.Contains(t, output, "component=hub")
}
