// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"crypto/subtle"
	"net/http"
	"strings"

	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/types"
)

// Middleware authenticates the identity provider calling the hooks.
type Middleware struct {
	apiKey []byte
	logger logging.LoggerInterface
}

// Authorize accepts a request only when its Authorization header carries the
// shared key, either raw as sent by the Kratos and Hydra api_key hook auth or
// as a bearer token. An empty key rejects every call.
func (m *Middleware) Authorize() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.valid(r.Header.Get("Authorization")) {
				m.logger.Security().AuthnFailure("webhook_api_key_invalid")
				httptypes.WriteError(w, types.ErrUnauthenticated, m.logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) valid(header string) bool {
	if len(m.apiKey) == 0 || header == "" {
		return false
	}

	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		header = token
	}

	return subtle.ConstantTimeCompare([]byte(header), m.apiKey) == 1
}

func NewMiddleware(apiKey string, logger logging.LoggerInterface) *Middleware {
	if apiKey == "" {
		logger.Warn("webhook api key is not set, identity provider hooks will be rejected")
	}

	return &Middleware{
		apiKey: []byte(apiKey),
		logger: logger,
	}
}
