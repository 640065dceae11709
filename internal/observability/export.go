package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// instrumentationName is the scope name attached to exported log records.
const instrumentationName = "github.com/florianilch/aihub"

// Export protocols.
const (
	ProtocolGRPC   = "grpc"
	ProtocolHTTP   = "http"
	ProtocolStdout = "stdout"
)

// ExportConfig enables sending log records to an OpenTelemetry collector.
type ExportConfig struct {
	Enabled bool
	// Protocol is one of grpc, http or stdout.
	Protocol string
	// Endpoint is host:port of the collector. Empty uses the exporter default
	// or the OTEL_EXPORTER_OTLP_* environment variables.
	Endpoint string
	Insecure bool
}

func newExportHandler(ctx context.Context, cfg ExportConfig, level slog.Level, stdout io.Writer) (slog.Handler, ShutdownFunc, error) {
	exporter, err := newExporter(ctx, cfg, stdout)
	if err != nil {
		return nil, nil, err
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity(level))
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))
	global.SetLoggerProvider(provider)

	handler := otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider))

	return handler, provider.Shutdown, nil
}

func newExporter(ctx context.Context, cfg ExportConfig, stdout io.Writer) (sdklog.Exporter, error) {
	switch strings.ToLower(cfg.Protocol) {
	case ProtocolGRPC, "":
		var opts []otlploggrpc.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlploggrpc.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlploggrpc.WithInsecure())
		}
		return otlploggrpc.New(ctx, opts...)
	case ProtocolHTTP:
		var opts []otlploghttp.Option
		if cfg.Endpoint != "" {
			opts = append(opts, otlploghttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		return otlploghttp.New(ctx, opts...)
	case ProtocolStdout:
		return stdoutlog.New(stdoutlog.WithWriter(stdout))
	default:
		return nil, fmt.Errorf("unsupported export protocol %q (expected: grpc, http, stdout)", cfg.Protocol)
	}
}

// severity maps a slog level to the closest OpenTelemetry severity.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level < slog.LevelInfo:
		return minsev.SeverityDebug
	case level < slog.LevelWarn:
		return minsev.SeverityInfo
	case level < slog.LevelError:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
