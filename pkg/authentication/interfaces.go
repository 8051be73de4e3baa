// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"

	"github.com/canonical/workspace-service/internal/types"
)

// CredentialValidatorInterface is the boundary to the identity subsystem.
// Implementations may return detailed errors, they never reach the client.
type CredentialValidatorInterface interface {
	ValidateCredential(ctx context.Context, cred types.Credential) (*types.Identity, error)
}

type ResolverInterface interface {
	// Resolve maps a credential to an identity or types.ErrUnauthenticated
	Resolve(ctx context.Context, cred types.Credential) (*types.Identity, error)
}
