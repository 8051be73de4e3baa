// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"

	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/identity"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/pkg/authentication"
	"github.com/canonical/workspace-service/pkg/gate"
	"github.com/canonical/workspace-service/pkg/invites"
	"github.com/canonical/workspace-service/pkg/members"
	"github.com/canonical/workspace-service/pkg/metrics"
	"github.com/canonical/workspace-service/pkg/status"
	"github.com/canonical/workspace-service/pkg/webhooks"
	"github.com/canonical/workspace-service/pkg/workspaces"
)

type Config struct {
	SessionCookieName   string
	WorkspaceCookieName string
	PublicPathPrefixes  []string
	APIPathPrefix       string
	SignInURL           string
	CORSAllowedOrigins  []string
	WebhookAPIKey       string
}

func NewRouter(
	config Config,
	resolver authentication.ResolverInterface,
	binder workspaces.BinderInterface,
	workspaceService workspaces.ServiceInterface,
	inviteService invites.ServiceInterface,
	memberService members.ServiceInterface,
	webhookService webhooks.ServiceInterface,
	dbClient db.DBClientInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	authn := authentication.NewMiddleware(resolver, config.SessionCookieName, tracer, monitor, logger)

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		middleware.Recoverer,
		identity.NewMiddleware(tracer, monitor, logger).StripUntrusted,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS(config.CORSAllowedOrigins),
		gate.NewGate(
			config.PublicPathPrefixes,
			config.APIPathPrefix,
			config.SignInURL,
			config.SessionCookieName,
			tracer,
			monitor,
			logger,
		).Middleware(),
	)

	router.Use(middlewares...)

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(dbClient, tracer, monitor, logger).RegisterEndpoints(router)

	// hooks are called by the identity provider, a failed hook must leave no rows behind
	router.Group(func(r chi.Router) {
		r.Use(
			webhooks.NewMiddleware(config.WebhookAPIKey, logger).Authorize(),
			db.TransactionMiddleware(dbClient, logger),
		)
		webhooks.NewAPI(webhookService, logger).RegisterEndpoints(r)
	})

	router.Group(func(r chi.Router) {
		r.Use(
			authn.Authenticate(),
			workspaces.NewMiddleware(binder, config.WorkspaceCookieName, tracer, monitor, logger).Bind(),
		)

		workspaces.NewAPI(workspaceService, config.WorkspaceCookieName, tracer, logger).RegisterEndpoints(r)

		r.Group(func(r chi.Router) {
			r.Use(authn.RequireIdentity())

			invites.NewAPI(inviteService, tracer, logger).RegisterEndpoints(r)
			members.NewAPI(memberService, tracer, logger).RegisterEndpoints(r)
		})
	})

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}
