// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	// IdentityProvider selects the credential validator: kratos, oidc or noop
	IdentityProvider string `envconfig:"identity_provider" default:"kratos"`
	KratosPublicURL  string `envconfig:"kratos_public_url"`
	KratosAdminURL   string `envconfig:"kratos_admin_url"`

	OIDCIssuer          string   `envconfig:"oidc_issuer"`
	OIDCJwksURL         string   `envconfig:"oidc_jwks_url"`
	OIDCAllowedSubjects []string `envconfig:"oidc_allowed_subjects"`
	OIDCRequiredScope   string   `envconfig:"oidc_required_scope"`

	SessionCookieName   string   `envconfig:"session_cookie_name" default:"ory_kratos_session"`
	WorkspaceCookieName string   `envconfig:"workspace_cookie_name" default:"workspace_id"`
	SignInURL           string   `envconfig:"signin_url" default:"/signin"`
	PublicPathPrefixes  []string `envconfig:"public_path_prefixes" default:"/signin,/signup,/recovery,/verification,/self-service,/.ory,/webhooks,/api/v0/status,/api/v0/ready,/api/v0/metrics"`
	APIPathPrefix       string   `envconfig:"api_path_prefix" default:"/api/"`

	// WebhookAPIKey is the shared secret the identity provider sends with every hook call
	WebhookAPIKey string `envconfig:"webhook_api_key"`

	InvitationLifetime time.Duration `envconfig:"invitation_lifetime" default:"168h"`
	InviteReapInterval time.Duration `envconfig:"invite_reap_interval" default:"0"`

	CORSAllowedOrigins []string `envconfig:"cors_allowed_origins" default:"*"`
}
