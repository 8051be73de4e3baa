// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

var _ ResolverInterface = (*Resolver)(nil)

// Resolver collapses every validation failure into types.ErrUnauthenticated
// so callers cannot learn why a credential was refused.
type Resolver struct {
	validator CredentialValidatorInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (r *Resolver) Resolve(ctx context.Context, cred types.Credential) (*types.Identity, error) {
	ctx, span := r.tracer.Start(ctx, "authentication.Resolver.Resolve")
	defer span.End()

	if cred.Empty() {
		return nil, types.ErrUnauthenticated
	}

	identity, err := r.validator.ValidateCredential(ctx, cred)
	if err != nil {
		r.logger.Debugf("credential validation failed: %v", err)
		r.logger.Security().AuthnFailure("credential rejected by identity provider")
		return nil, types.ErrUnauthenticated
	}

	if identity == nil || identity.ID == "" {
		r.logger.Security().AuthnFailure("identity provider returned no identity")
		return nil, types.ErrUnauthenticated
	}

	return identity, nil
}

func NewResolver(validator CredentialValidatorInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Resolver {
	r := new(Resolver)

	r.validator = validator

	r.tracer = tracer
	r.monitor = monitor
	r.logger = logger

	return r
}
