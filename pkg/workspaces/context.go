// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package workspaces

import (
	"context"

	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
)

type contextKey struct{}

var workspaceContextKey = contextKey{}

func WithWorkspaceID(ctx context.Context, workspaceID string) context.Context {
	return context.WithValue(ctx, workspaceContextKey, workspaceID)
}

// GetWorkspaceID returns the workspace bound for this request, if any.
func GetWorkspaceID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(workspaceContextKey).(string)
	return id, ok && id != ""
}

// PrincipalFromContext assembles the identity and bound workspace resolved at
// the edge. The workspace may be empty for users without memberships.
func PrincipalFromContext(ctx context.Context) (types.Principal, bool) {
	identity, ok := authentication.GetIdentity(ctx)
	if !ok {
		return types.Principal{}, false
	}

	workspaceID, _ := GetWorkspaceID(ctx)

	return types.Principal{Identity: identity, WorkspaceID: workspaceID}, true
}
