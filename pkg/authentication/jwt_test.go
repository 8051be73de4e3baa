// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

const testIssuer = "https://issuer.example.com"

func unsignedToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("failed to marshal claims: %v", err)
	}

	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "." + base64.RawURLEncoding.EncodeToString([]byte("sig"))
}

func newTestVerifier(allowedSubjects []string, requiredScope string) *JWTVerifier {
	logger := logging.NewNoopLogger()
	v := oidc.NewVerifier(testIssuer, &oidc.StaticKeySet{}, &oidc.Config{
		SkipClientIDCheck:          true,
		InsecureSkipSignatureCheck: true,
	})

	return NewJWTVerifier(v, JWTPolicy{AllowedSubjects: allowedSubjects, RequiredScope: requiredScope}, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
}

func TestJWTVerifier_ValidateCredential(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name            string
		allowedSubjects []string
		requiredScope   string
		claims          map[string]interface{}
		source          types.CredentialSource
		expectErr       bool
	}{
		{
			name:          "scope granted",
			requiredScope: "workspaces",
			claims:        map[string]interface{}{"iss": testIssuer, "sub": "u1", "exp": exp, "scope": "openid workspaces", "email": "u1@x.com"},
			source:        types.CredentialToken,
		},
		{
			name:          "scp array granted",
			requiredScope: "workspaces",
			claims:        map[string]interface{}{"iss": testIssuer, "sub": "u1", "exp": exp, "scp": []string{"workspaces"}},
			source:        types.CredentialToken,
		},
		{
			name:            "allowed subject",
			allowedSubjects: []string{"u1"},
			claims:          map[string]interface{}{"iss": testIssuer, "sub": "u1", "exp": exp},
			source:          types.CredentialToken,
		},
		{
			name:          "missing scope",
			requiredScope: "workspaces",
			claims:        map[string]interface{}{"iss": testIssuer, "sub": "u1", "exp": exp, "scope": "openid"},
			source:        types.CredentialToken,
			expectErr:     true,
		},
		{
			name:      "no policy configured",
			claims:    map[string]interface{}{"iss": testIssuer, "sub": "u1", "exp": exp},
			source:    types.CredentialToken,
			expectErr: true,
		},
		{
			name:          "wrong issuer",
			requiredScope: "workspaces",
			claims:        map[string]interface{}{"iss": "https://evil.example.com", "sub": "u1", "exp": exp, "scope": "workspaces"},
			source:        types.CredentialToken,
			expectErr:     true,
		},
		{
			name:          "cookie source rejected",
			requiredScope: "workspaces",
			claims:        map[string]interface{}{"iss": testIssuer, "sub": "u1", "exp": exp, "scope": "workspaces"},
			source:        types.CredentialCookie,
			expectErr:     true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v := newTestVerifier(test.allowedSubjects, test.requiredScope)

			identity, err := v.ValidateCredential(context.Background(), types.Credential{
				Value:  unsignedToken(t, test.claims),
				Source: test.source,
			})

			if test.expectErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if identity.ID != "u1" {
				t.Errorf("expected subject u1, got %q", identity.ID)
			}
		})
	}
}

func TestJWTPolicy_Permits(t *testing.T) {
	tests := []struct {
		name   string
		policy JWTPolicy
		claims jwtClaims
		expect bool
	}{
		{
			name:   "subject listed",
			policy: JWTPolicy{AllowedSubjects: []string{"svc"}},
			claims: jwtClaims{Subject: "svc"},
			expect: true,
		},
		{
			name:   "scope is matched as a whole word",
			policy: JWTPolicy{RequiredScope: "work"},
			claims: jwtClaims{Subject: "u1", Scope: "workspaces"},
			expect: false,
		},
		{
			name:   "scope in scp claim",
			policy: JWTPolicy{RequiredScope: "workspaces"},
			claims: jwtClaims{Subject: "u1", Scopes: []string{"openid", "workspaces"}},
			expect: true,
		},
		{
			name:   "neither subject nor scope",
			policy: JWTPolicy{AllowedSubjects: []string{"svc"}, RequiredScope: "workspaces"},
			claims: jwtClaims{Subject: "u1", Scope: "openid"},
			expect: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.policy.permits(&test.claims); got != test.expect {
				t.Errorf("expected %v, got %v", test.expect, got)
			}
		})
	}
}
