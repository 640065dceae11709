package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func restoreDefaultLogger(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestInstrument_JSONWithTraceContext(t *testing.T) {
	restoreDefaultLogger(t)

	var buf bytes.Buffer
	shutdown, err := instrument(context.Background(), Config{Level: slog.LevelInfo, Format: "json"}, &buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	slog.DebugContext(ctx, "dropped")
	slog.InfoContext(ctx, "hello", "provider", "gemini")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "gemini", record["provider"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", record["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", record["span_id"])

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
}

func TestInstrument_UnsupportedFormat(t *testing.T) {
	restoreDefaultLogger(t)

	_, err := instrument(context.Background(), Config{Format: "xml"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unsupported log format")
}

func TestInstrument_StdoutExport(t *testing.T) {
	restoreDefaultLogger(t)

	var buf bytes.Buffer
	shutdown, err := instrument(context.Background(), Config{
		Level:  slog.LevelInfo,
		Format: "text",
		Export: ExportConfig{Enabled: true, Protocol: ProtocolStdout},
	}, &buf)
	require.NoError(t, err)

	slog.Info("exported record")
	require.NoError(t, shutdown(context.Background()))

	// Once from the text handler, once from the stdout exporter.
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("exported record")))
}

func TestInstrument_UnsupportedProtocol(t *testing.T) {
	restoreDefaultLogger(t)

	_, err := instrument(context.Background(), Config{
		Export: ExportConfig{Enabled: true, Protocol: "carrier-pigeon"},
	}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unsupported export protocol")
}

func TestFanoutHandler(t *testing.T) {
	var infoBuf, errorBuf bytes.Buffer
	handler := fanoutHandler{
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	}
	logger := slog.New(handler).With("component", "test")

	assert.False(t, handler.Enabled(context.Background(), slog.LevelDebug))

	logger.Info("info message")
	logger.Error("error message")

	assert.Contains(t, infoBuf.String(), "info message")
	assert.Contains(t, infoBuf.String(), "error message")
	assert.Contains(t, infoBuf.String(), "component=test")
	assert.NotContains(t, errorBuf.String(), "info message")
	assert.Contains(t, errorBuf.String(), "error message")
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, minsev.SeverityDebug, severity(slog.LevelDebug))
	assert.Equal(t, minsev.SeverityInfo, severity(slog.LevelInfo))
	assert.Equal(t, minsev.SeverityWarn, severity(slog.LevelWarn))
	assert.Equal(t, minsev.SeverityError, severity(slog.LevelError))
}
