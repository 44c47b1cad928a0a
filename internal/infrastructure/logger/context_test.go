package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext_DefaultsToNop(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	l.Info("goes nowhere")
}

func TestL_AddsContextFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUserID(ctx, "user-1")
	ctx = trace.ContextWithSpanContext(ctx, sc)

	L(ctx).Info("order placed", zap.String("order_id", "o-1"))

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "user-1", fields["user_id"])
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, "o-1", fields["order_id"])
	assert.Equal(t, traceID.String(), GetTraceID(ctx))
}

func TestFor_UsesExplicitLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	For(WithRequestID(context.Background(), "r"), zap.New(core)).Warn("careful")

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "r", recorded.All()[0].ContextMap()["request_id"])
}
