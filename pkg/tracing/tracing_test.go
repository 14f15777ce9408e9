package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const testTimeout = 2 * time.Second

func TestInit(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping exporter setup in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	tp, shutdown, err := Init(ctx, Config{
		ServiceName:    "test-service",
		ServiceVersion: "v1.0.0",
		Environment:    "test",
		Endpoint:       "localhost:4317",
	})
	require.NoError(t, err)
	require.NotNil(t, tp)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(ctx))
}

func TestInit_Disabled(t *testing.T) {
	tp, shutdown, err := Init(context.Background(), Config{Disabled: true})
	require.NoError(t, err)
	assert.Nil(t, tp)
	assert.NoError(t, shutdown(context.Background()))
}

func TestShutdown(t *testing.T) {
	t.Run("nil provider", func(t *testing.T) {
		err := Shutdown(context.Background(), nil)
		assert.NoError(t, err)
	})
}

func TestNewProvider_RecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	res := resource.NewSchemaless(semconv.ServiceName("referral-test"))
	tp := NewProvider(res, sdktrace.WithSpanProcessor(rec))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		assert.NoError(t, Shutdown(ctx, tp))
	}()

	_, span := tp.Tracer("test").Start(context.Background(), "leaderboard.Get")
	assert.True(t, span.SpanContext().IsSampled())
	span.SetAttributes(attribute.Int("leaderboard.top_n", 3))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "leaderboard.Get", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.Int("leaderboard.top_n", 3))
	assert.Contains(t, ended[0].Resource().Attributes(), semconv.ServiceName("referral-test"))
}
