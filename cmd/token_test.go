// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/oauth2/auth",
			"token_endpoint":         srv.URL + "/oauth2/token",
			"jwks_uri":               srv.URL + "/.well-known/jwks.json",
		})
	})

	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if !ok || id != "cli" || secret != "s3cret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}

		if r.FormValue("grant_type") != "client_credentials" {
			t.Errorf("unexpected grant type %q", r.FormValue("grant_type"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-` + r.FormValue("scope") + `","token_type":"bearer","expires_in":3600}`))
	})

	t.Cleanup(srv.Close)

	return srv
}

func TestClientCredentials_Token(t *testing.T) {
	srv := newTokenServer(t)

	tests := []struct {
		name        string
		creds       clientCredentials
		expectToken string
		expectErr   bool
	}{
		{
			name:        "explicit token url",
			creds:       clientCredentials{clientID: "cli", clientSecret: "s3cret", tokenURL: srv.URL + "/oauth2/token", scopes: []string{"workspaces"}},
			expectToken: "at-workspaces",
		},
		{
			name:        "token url discovered from the issuer",
			creds:       clientCredentials{clientID: "cli", clientSecret: "s3cret", issuerURL: srv.URL},
			expectToken: "at-",
		},
		{
			name:      "wrong secret",
			creds:     clientCredentials{clientID: "cli", clientSecret: "guess", tokenURL: srv.URL + "/oauth2/token"},
			expectErr: true,
		},
		{
			name:      "no token url and no issuer",
			creds:     clientCredentials{clientID: "cli", clientSecret: "s3cret"},
			expectErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			creds := test.creds
			creds.ctx = context.Background()

			token, err := creds.Token()

			if test.expectErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token.AccessToken != test.expectToken {
				t.Errorf("expected token %q, got %q", test.expectToken, token.AccessToken)
			}
		})
	}
}
