// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"

	"github.com/canonical/workspace-service/internal/types"
)

type AuthorizerInterface interface {
	CheckAccess(ctx context.Context, userID, workspaceID string) (types.Access, error)
	RequireRole(ctx context.Context, userID, workspaceID string, min types.Role) (types.Decision, error)
	Authorize(ctx context.Context, userID, workspaceID string, min types.Role) error
	FilterActiveMembers(ctx context.Context, workspaceID string, userIDs []string) ([]string, error)
}

// MembershipStoreInterface is the read side of the membership store the
// authorizer depends on.
type MembershipStoreInterface interface {
	FindMembership(ctx context.Context, userID, workspaceID string) (*types.Membership, error)
	ListMembersByWorkspaceID(ctx context.Context, workspaceID string) ([]*types.Membership, error)
}
