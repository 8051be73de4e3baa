// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package workspaces

import (
	"errors"
	"net/http"
	"strings"

	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/identity"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
)

const WorkspaceHeader = "X-Workspace-Id"

type Middleware struct {
	binder     BinderInterface
	cookieName string

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Bind attaches the current workspace for authenticated requests. Anonymous
// requests and users without any workspace pass through unbound.
func (m *Middleware) Bind() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "workspaces.Middleware.Bind")
			defer span.End()

			userID, ok := authentication.GetUserID(ctx)
			if !ok {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			explicit, fromCookie := m.override(r)

			workspaceID, err := m.binder.Bind(ctx, userID, explicit)
			switch {
			case errors.Is(err, types.ErrNoWorkspace):
				if fromCookie {
					clearWorkspaceCookie(w, m.cookieName)
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			case err != nil:
				httptypes.WriteError(w, err, m.logger)
				return
			}

			if fromCookie && workspaceID != explicit {
				setWorkspaceCookie(w, r, m.cookieName, workspaceID)
			}

			ctx = WithWorkspaceID(ctx, workspaceID)

			forwarded := r.Clone(ctx)
			identity.SetTrusted(forwarded.Header, userID, workspaceID)

			next.ServeHTTP(w, forwarded)
		})
	}
}

// override returns the requested workspace and whether it came from the cookie.
func (m *Middleware) override(r *http.Request) (string, bool) {
	if v := strings.TrimSpace(r.Header.Get(WorkspaceHeader)); v != "" {
		return v, false
	}

	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		return c.Value, true
	}

	return "", false
}

func setWorkspaceCookie(w http.ResponseWriter, r *http.Request, name, workspaceID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    workspaceID,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearWorkspaceCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func NewMiddleware(binder BinderInterface, cookieName string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		binder:     binder,
		cookieName: cookieName,
		tracer:     tracer,
		monitor:    monitor,
		logger:     logger,
	}
}
