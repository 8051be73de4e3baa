// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

var otelHTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}

// JWTPolicy decides which verified tokens may act as a user.
// A token passes when its subject is allow-listed or it carries the scope,
// an empty policy lets nothing through.
type JWTPolicy struct {
	AllowedSubjects []string
	RequiredScope   string
}

func (p JWTPolicy) empty() bool {
	return len(p.AllowedSubjects) == 0 && p.RequiredScope == ""
}

func (p JWTPolicy) permits(c *jwtClaims) bool {
	if slices.Contains(p.AllowedSubjects, c.Subject) {
		return true
	}

	if p.RequiredScope == "" {
		return false
	}

	return slices.Contains(strings.Fields(c.Scope), p.RequiredScope) || slices.Contains(c.Scopes, p.RequiredScope)
}

type jwtClaims struct {
	Subject string   `json:"sub"`
	Scope   string   `json:"scope"`
	Scopes  []string `json:"scp"`
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Picture string   `json:"picture"`
}

func (c *jwtClaims) identity() *types.Identity {
	name := c.Name
	if name == "" {
		name = c.Email
	}

	return &types.Identity{
		ID:          c.Subject,
		Email:       c.Email,
		DisplayName: name,
		AvatarURL:   c.Picture,
	}
}

// JWTVerifier validates bearer tokens issued by an OIDC provider.
type JWTVerifier struct {
	verifier *oidc.IDTokenVerifier
	policy   JWTPolicy

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// ValidateCredential verifies a bearer JWT. Only header tokens are accepted.
func (v *JWTVerifier) ValidateCredential(ctx context.Context, cred types.Credential) (*types.Identity, error) {
	ctx, span := v.tracer.Start(ctx, "authentication.JWTVerifier.ValidateCredential")
	defer span.End()

	if cred.Source != types.CredentialToken {
		return nil, errors.New("jwt validation requires a bearer token")
	}

	token, err := v.verifier.Verify(ctx, cred.Value)
	if err != nil {
		return nil, err
	}

	claims := new(jwtClaims)
	if err := token.Claims(claims); err != nil {
		return nil, fmt.Errorf("failed to extract claims: %w", err)
	}

	if claims.Subject == "" {
		return nil, errors.New("token carries no subject")
	}

	if v.policy.empty() {
		v.logger.Security().AuthzFailure(claims.Subject, "jwt_api_access")
		return nil, errors.New("no jwt access policy configured")
	}

	if !v.policy.permits(claims) {
		v.logger.Security().AuthzFailure(claims.Subject, "jwt_api_access")
		return nil, errors.New("subject not allowed and required scope missing")
	}

	return claims.identity(), nil
}

func NewJWTVerifier(verifier *oidc.IDTokenVerifier, policy JWTPolicy, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *JWTVerifier {
	return &JWTVerifier{
		verifier: verifier,
		policy:   policy,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// NewOIDCVerifier builds a token verifier for issuer, keys come from jwksURL
// when set and from the issuer's discovery document otherwise.
func NewOIDCVerifier(ctx context.Context, issuer, jwksURL string) (*oidc.IDTokenVerifier, error) {
	if issuer == "" {
		return nil, errors.New("issuer is required for JWT authentication")
	}

	ctx = oidc.ClientContext(ctx, otelHTTPClient)
	config := &oidc.Config{SkipClientIDCheck: true}

	if jwksURL != "" {
		return oidc.NewVerifier(issuer, oidc.NewRemoteKeySet(ctx, jwksURL), config), nil
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	return provider.Verifier(config), nil
}

// NewJWTAuthenticator wires a JWTVerifier against a live issuer.
func NewJWTAuthenticator(
	ctx context.Context,
	issuer string,
	jwksURL string,
	policy JWTPolicy,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) (*JWTVerifier, error) {
	verifier, err := NewOIDCVerifier(ctx, issuer, jwksURL)
	if err != nil {
		return nil, err
	}

	if policy.empty() {
		logger.Warn("JWT authentication has no allowed subjects nor required scope, every token will be rejected")
	}

	logger.Infof("JWT authentication enabled for issuer %s", issuer)

	return NewJWTVerifier(verifier, policy, tracer, monitor, logger), nil
}
