// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"net/http"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

const (
	// HeaderName is the header a proxy may use to pass the authenticated identity ID
	HeaderName = "X-Authenticated-Identity-Id"
	// KratosHeaderName is the header oathkeeper style proxies set
	KratosHeaderName = "X-Kratos-Authenticated-Identity-Id"
	// WorkspaceHeaderName carries the bound workspace to downstream services
	WorkspaceHeaderName = "X-Authenticated-Workspace-Id"
)

var untrustedHeaders = []string{HeaderName, KratosHeaderName, WorkspaceHeaderName}

// Middleware makes sure identity metadata only ever comes from this service.
type Middleware struct {
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewMiddleware(tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// StripUntrusted drops client supplied identity headers before routing.
func (m *Middleware) StripUntrusted(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := m.tracer.Start(r.Context(), "identity.Middleware.StripUntrusted")
		defer span.End()

		for _, h := range untrustedHeaders {
			if _, ok := r.Header[http.CanonicalHeaderKey(h)]; ok {
				m.logger.Debugf("dropping client supplied header %s", h)
				r.Header.Del(h)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetTrusted stamps the resolved identity and workspace on the headers of a
// request forwarded inside the service, never on a response.
func SetTrusted(h http.Header, userID, workspaceID string) {
	if userID != "" {
		h.Set(HeaderName, userID)
	}
	if workspaceID != "" {
		h.Set(WorkspaceHeaderName, workspaceID)
	}
}
