// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"net/http"
	"strings"

	"github.com/canonical/workspace-service/internal/types"
)

const SessionTokenHeader = "X-Session-Token"

// CredentialFromRequest extracts the bearer credential without validating it.
// An Authorization bearer wins over the session token header, which wins over
// the session cookie.
func CredentialFromRequest(r *http.Request, cookieName string) (types.Credential, bool) {
	if token, ok := bearerToken(r.Header); ok {
		return types.Credential{Value: token, Source: types.CredentialToken}, true
	}

	if token := strings.TrimSpace(r.Header.Get(SessionTokenHeader)); token != "" {
		return types.Credential{Value: token, Source: types.CredentialToken}, true
	}

	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return types.Credential{Value: c.Value, Source: types.CredentialCookie}, true
		}
	}

	return types.Credential{}, false
}

func bearerToken(headers http.Header) (string, bool) {
	bearer := headers.Get("Authorization")
	if bearer == "" {
		return "", false
	}

	// Only support "Bearer <token>" format (RFC 6750)
	if !strings.HasPrefix(bearer, "Bearer ") {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(bearer, "Bearer "))
	return token, token != ""
}
