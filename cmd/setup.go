// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/canonical/workspace-service/internal/config"
	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/kratos"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/pkg/authentication"
)

const serviceName = "workspace-service"

func loadSpecs() (*config.EnvSpec, error) {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		return nil, fmt.Errorf("issues with environment sourcing: %w", err)
	}

	return specs, nil
}

func newDBClient(specs *config.EnvSpec, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*db.DBClient, error) {
	dbConfig := db.Config{
		DSN:             specs.DSN,
		MaxConns:        specs.DBMaxConns,
		MinConns:        specs.DBMinConns,
		MaxConnLifetime: specs.DBMaxConnLifetime,
		MaxConnIdleTime: specs.DBMaxConnIdleTime,
		TracingEnabled:  specs.TracingEnabled,
	}

	dbClient, err := db.NewDBClient(dbConfig, tracer, monitor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database client: %w", err)
	}

	return dbClient, nil
}

// newDirectory returns the identity lookups used for invites and member
// listings. Without a Kratos admin API nobody can be looked up.
func newDirectory(specs *config.EnvSpec, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) kratos.ClientInterface {
	if specs.KratosAdminURL == "" {
		logger.Info("Kratos admin URL not set, identity directory disabled")
		return kratos.NewNoopClient()
	}

	return kratos.NewClient(specs.KratosPublicURL, specs.KratosAdminURL, specs.SessionCookieName, tracer, monitor, logger)
}

func newCredentialValidator(
	ctx context.Context,
	specs *config.EnvSpec,
	directory kratos.ClientInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) (authentication.CredentialValidatorInterface, error) {
	switch specs.IdentityProvider {
	case "kratos":
		if specs.KratosPublicURL == "" {
			return nil, fmt.Errorf("KRATOS_PUBLIC_URL is required for the kratos identity provider")
		}
		if _, ok := directory.(*kratos.Client); ok {
			return directory, nil
		}
		return kratos.NewClient(specs.KratosPublicURL, specs.KratosAdminURL, specs.SessionCookieName, tracer, monitor, logger), nil
	case "oidc":
		verifier, err := authentication.NewJWTAuthenticator(
			ctx,
			specs.OIDCIssuer,
			specs.OIDCJwksURL,
			authentication.JWTPolicy{
				AllowedSubjects: specs.OIDCAllowedSubjects,
				RequiredScope:   specs.OIDCRequiredScope,
			},
			tracer,
			monitor,
			logger,
		)
		if err != nil {
			return nil, err
		}
		return verifier, nil
	case "noop":
		logger.Warn("Using noop identity provider, every credential is trusted")
		return authentication.NewNoopVerifier(), nil
	}

	return nil, fmt.Errorf("unknown identity provider %q", specs.IdentityProvider)
}
