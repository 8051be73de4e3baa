// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"

	"github.com/canonical/workspace-service/internal/types"
)

// Define a private custom type to avoid collisions
type contextKey struct{}

var identityContextKey = contextKey{}

// WithIdentity returns a new context carrying the resolved identity.
func WithIdentity(ctx context.Context, identity types.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// GetIdentity retrieves the identity attached by the middleware.
// Returns false if the request was not authenticated.
func GetIdentity(ctx context.Context) (types.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(types.Identity)
	return identity, ok && identity.ID != ""
}

// GetUserID is a shorthand for the identity id, empty when unauthenticated.
func GetUserID(ctx context.Context) (string, bool) {
	identity, ok := GetIdentity(ctx)
	return identity.ID, ok
}
