// Package observability wires logging, metrics, and tracing for the service.
package observability

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Observability bundles the logger, metrics, and tracer handed to modules.
type Observability struct {
	Logger   *slog.Logger
	Metrics  Metrics
	Tracer   trace.Tracer
	Registry *prometheus.Registry
}

// Config controls observability setup.
type Config struct {
	ServiceName    string
	Environment    string
	LogLevel       string
	MetricsAddress string
}

// Init builds the observability stack. Tracing is a noop tracer unless an
// external SDK wires a real provider; services only depend on the interface.
func Init(cfg Config) *Observability {
	level := parseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("service", cfg.ServiceName), slog.String("env", cfg.Environment))

	registry := prometheus.NewRegistry()

	return &Observability{
		Logger:   logger,
		Metrics:  NewPrometheusMetrics(registry, cfg.ServiceName),
		Tracer:   noop.NewTracerProvider().Tracer(cfg.ServiceName),
		Registry: registry,
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ServeMetrics exposes the prometheus registry on addr until ctx is done.
// An empty addr disables the endpoint.
func (o *Observability) ServeMetrics(ctx context.Context, addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			o.Logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()
}
