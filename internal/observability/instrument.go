// Package observability configures process-wide logging and W3C trace context
// handling, and provides the HTTP middlewares that correlate requests in logs.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Config selects the log level and format, and optional log export.
type Config struct {
	Level  slog.Level
	Format string
	Export ExportConfig
}

// ShutdownFunc flushes and stops exporters started by Instrument.
type ShutdownFunc func(context.Context) error

// Instrument installs the default slog logger and the global trace context
// propagator. The returned ShutdownFunc must be called before exit to flush
// exported logs; it is a no-op when export is disabled.
func Instrument(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	return instrument(ctx, cfg, os.Stdout)
}

func instrument(ctx context.Context, cfg Config, stdout io.Writer) (ShutdownFunc, error) {
	handler, err := newStdoutHandler(stdout, cfg.Level, cfg.Format)
	if err != nil {
		return nil, err
	}

	shutdown := ShutdownFunc(func(context.Context) error { return nil })

	if cfg.Export.Enabled {
		exportHandler, exportShutdown, err := newExportHandler(ctx, cfg.Export, cfg.Level, stdout)
		if err != nil {
			return nil, fmt.Errorf("failed to set up log export: %w", err)
		}
		handler = fanoutHandler{handler, exportHandler}
		shutdown = exportShutdown
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.SetDefault(slog.New(newTraceContextHandler(handler)))

	return shutdown, nil
}

// newStdoutHandler creates the human or machine readable console handler.
func newStdoutHandler(w io.Writer, level slog.Level, logFormat string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	switch strings.ToLower(logFormat) {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "text", "":
		return slog.NewTextHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q (expected: json, text)", logFormat)
	}
}
