package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/geocoder89/scheduler/internal/config"
	"github.com/geocoder89/scheduler/internal/identity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		env, level string
		want       slog.Level
	}{
		{"prod", "debug", slog.LevelDebug},
		{"prod", " WARN ", slog.LevelWarn},
		{"prod", "error", slog.LevelError},
		{"dev", "info", slog.LevelInfo},
		{"dev", "", slog.LevelDebug},
		{"prod", "bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.env, tt.level), "env=%q level=%q", tt.env, tt.level)
	}
}

func TestNewLoggerTo_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod", "info")

	log.InfoContext(context.Background(), "hello", "k", "v")
	log.Debug("dropped")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "v", rec["k"])
	assert.NotContains(t, rec, "trace_id")
	assert.NotContains(t, rec, "request_id")
	assert.NotContains(t, rec, "user_id")
}

func TestContextHandler_AddsRequestScope(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod", "info")

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = identity.WithClaim(ctx, identity.Claim{ID: "u-1", Role: "admin"})
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	log.With("component", "test").InfoContext(ctx, "scoped")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "u-1", rec["user_id"])
	assert.Equal(t, traceID.String(), rec["trace_id"])
	assert.Equal(t, spanID.String(), rec["span_id"])
	assert.Equal(t, "test", rec["component"])
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
}

func TestInitTracer_RequiresEndpoint(t *testing.T) {
	_, err := InitTracer(context.Background(), config.TracingConfig{ServiceName: "scheduler"}, "test")
	assert.ErrorIs(t, err, ErrTracingDisabled)
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestProm_NilIsNoop(t *testing.T) {
	var p *Prom

	p.ObserveLogin("ok")
	p.ObserveHydration("ok")

	called := false
	err := p.ObserveDB("users.get", func() error { called = true; return nil })
	require.NoError(t, err)
	assert.True(t, called)
}

func TestProm_Counters(t *testing.T) {
	p := NewProm(NewRegistry())

	p.ObserveLogin("ok")
	p.ObserveLogin("invalid")
	p.ObserveLogin("invalid")

	assert.Equal(t, 1.0, testutil.ToFloat64(p.LoginsTotal.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.LoginsTotal.WithLabelValues("invalid")))

	dup := &pgconn.PgError{Code: "23505"}
	err := p.ObserveDB("users.create", func() error { return dup })
	assert.ErrorIs(t, err, dup)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")))

	err = p.ObserveDB("users.get", func() error { return pgx.ErrNoRows })
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Equal(t, 1, testutil.CollectAndCount(p.DbErrorsTotal), "a miss is not a database error")
}

func TestClassifyDBErr(t *testing.T) {
	assert.Equal(t, "foreign_key_violation", classifyDBErr(&pgconn.PgError{Code: "23503"}))
	assert.Equal(t, "data", classifyDBErr(&pgconn.PgError{Code: "22P02"}))
	assert.Equal(t, "connection", classifyDBErr(&pgconn.PgError{Code: "08006"}))
	assert.Equal(t, "tx_conflict", classifyDBErr(&pgconn.PgError{Code: "40P01"}))
	assert.Equal(t, "pg_42P01", classifyDBErr(&pgconn.PgError{Code: "42P01"}))
	assert.Equal(t, "timeout", classifyDBErr(fmt.Errorf("users.get: %w", context.DeadlineExceeded)))
	assert.Equal(t, "canceled", classifyDBErr(context.Canceled))
	assert.Equal(t, "unknown", classifyDBErr(errors.New("boom")))
}
