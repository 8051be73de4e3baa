// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tracing

import (
	"net/http"
	"slices"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
)

// health endpoints are polled by the orchestrator and would drown the real traffic
var healthPaths = []string{"/api/v0/status", "/api/v0/ready", "/api/v0/metrics"}

// Middleware wraps the whole router with OpenTelemetry instrumentation
type Middleware struct {
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (mdw *Middleware) OpenTelemetry(handler http.Handler) http.Handler {
	return otelhttp.NewHandler(
		handler,
		mdw.monitor.GetService(),
		otelhttp.WithFilter(traced),
		otelhttp.WithSpanNameFormatter(spanName),
	)
}

func traced(r *http.Request) bool {
	return !slices.Contains(healthPaths, r.URL.Path)
}

func spanName(_ string, r *http.Request) string {
	return r.Method + " " + r.URL.Path
}

func NewMiddleware(monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	mdw := new(Middleware)

	mdw.monitor = monitor
	mdw.logger = logger

	return mdw
}
