package observability

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/openmeters/openmeters-go/internal/errors"
	"github.com/openmeters/openmeters-go/internal/logging"
)

// ShutdownTimeout bounds how long a graceful endpoint shutdown may take.
const ShutdownTimeout = 5 * time.Second

// Endpoint serves Prometheus-compatible telemetry over HTTP.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
}

// NewEndpoint creates a telemetry endpoint bound to the given address.
func NewEndpoint(listenAddress string, m *Metrics) (*Endpoint, error) {
	if listenAddress == "" {
		return nil, errors.New(nil).
			Component("observability").
			Category(errors.CategoryConfiguration).
			Context("error", "telemetry listen address is empty").
			Build()
	}

	return &Endpoint{
		listenAddress: listenAddress,
		metrics:       m,
	}, nil
}

// Start runs the HTTP server in a goroutine tracked by wg and shuts it
// down when quitChan closes.
func (e *Endpoint) Start(wg *sync.WaitGroup, quitChan <-chan struct{}) {
	logger := logging.ForService("observability")
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)

	e.server = &http.Server{
		Addr:    e.listenAddress,
		Handler: mux,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("telemetry endpoint starting", "address", e.listenAddress)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("telemetry HTTP server error", "error", err)
		}
	}()

	go func() {
		<-quitChan
		logger.Info("stopping telemetry server")
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := e.server.Shutdown(ctx); err != nil {
			logger.Error("telemetry server shutdown error", "error", err)
		}
	}()
}

// GetMetrics returns the Metrics instance associated with this Endpoint.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}
