// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring/prometheus"
)

func TestAPI_Metrics(t *testing.T) {
	logger := logging.NewNoopLogger()
	monitor := prometheus.NewMonitor("test", logger)

	if err := monitor.IncAuthorizationDecision(map[string]string{"role": "admin", "decision": "allowed"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mux := chi.NewMux()
	NewAPI(logger).RegisterEndpoints(mux)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v0/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	if !strings.Contains(rr.Body.String(), "authorization_decisions_total") {
		t.Error("expected authorization decision counter in exposition")
	}
}
