// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package status

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/version"
)

const readinessTimeout = 2 * time.Second

type Status struct {
	Status    string     `json:"status"`
	BuildInfo *BuildInfo `json:"buildInfo,omitempty"`
}

type BuildInfo struct {
	Version string `json:"version"`
}

type API struct {
	db PingerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/status", a.alive)
	mux.Get("/api/v0/ready", a.ready)
}

func (a *API) alive(w http.ResponseWriter, r *http.Request) {
	_, span := a.tracer.Start(r.Context(), "status.API.alive")
	defer span.End()

	httptypes.WriteJSON(w, http.StatusOK, Status{Status: "ok", BuildInfo: &BuildInfo{Version: version.Version}}, a.logger)
}

// ready reports whether the database answers, the availability gauge follows
// the result.
func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "status.API.ready")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	available := 1.0
	status, code := "ok", http.StatusOK

	if err := a.db.Ping(ctx); err != nil {
		a.logger.Errorf("database is not reachable: %v", err)
		available = 0
		status, code = "unavailable", http.StatusServiceUnavailable
	}

	if err := a.monitor.SetDependencyAvailability(map[string]string{"component": "database"}, available); err != nil {
		a.logger.Debugf("error setting dependency availability: %v", err)
	}

	httptypes.WriteJSON(w, code, Status{Status: status}, a.logger)
}

func NewAPI(db PingerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *API {
	a := new(API)

	a.db = db
	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
