// Package observability wires the Prometheus collectors of the annotator
// backend into one registry and serves them.
package observability

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soundscape-lab/annotator/internal/logger"
	"github.com/soundscape-lab/annotator/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry   *prometheus.Registry
	Annotation *metrics.AnnotationMetrics
	Datastore  *metrics.DatastoreMetrics
}

// NewMetrics creates a new instance of Metrics on a private registry that also
// carries the Go runtime and process collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register go collector: %w", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("failed to register process collector: %w", err)
	}

	annotationMetrics, err := metrics.NewAnnotationMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Annotation metrics: %w", err)
	}

	datastoreMetrics, err := metrics.NewDatastoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Datastore metrics: %w", err)
	}

	return &Metrics{
		registry:   registry,
		Annotation: annotationMetrics,
		Datastore:  datastoreMetrics,
	}, nil
}

// Registry returns the registry all collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler(log logger.Logger) http.Handler {
	// the HTTP server compresses responses
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:           promErrorLogger{log: log},
		ErrorHandling:      promhttp.HTTPErrorOnError,
		DisableCompression: true,
	})
}

// promErrorLogger adapts Logger to promhttp's Println-style error log.
type promErrorLogger struct {
	log logger.Logger
}

func (l promErrorLogger) Println(v ...any) {
	if l.log == nil {
		slog.Error(fmt.Sprint(v...))
		return
	}
	l.log.Error("metrics handler error", logger.String("detail", fmt.Sprint(v...)))
}
