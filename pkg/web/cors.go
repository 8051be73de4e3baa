// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"

	"github.com/canonical/workspace-service/pkg/authentication"
	"github.com/canonical/workspace-service/pkg/workspaces"
)

func middlewareCORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(
		cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodPut,
				http.MethodPatch,
				http.MethodDelete,
				http.MethodOptions,
			},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				authentication.SessionTokenHeader,
				workspaces.WorkspaceHeader,
			},
			ExposedHeaders: []string{"Link"},
			// cookies are never shared with a wildcard origin
			AllowCredentials: !slices.Contains(origins, "*"),
			MaxAge:           300,
		},
	)
}
