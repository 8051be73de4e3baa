// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package members

import (
	"context"
	"time"

	"github.com/canonical/workspace-service/internal/types"
)

type ServiceInterface interface {
	List(ctx context.Context, actorID, workspaceID string, includeRemoved bool) ([]*types.Member, error)
	Remove(ctx context.Context, actorID, workspaceID, userID string) error
	UpdateRole(ctx context.Context, actorID, workspaceID, userID string, role types.Role) error
	MentionRecipients(ctx context.Context, actorID, workspaceID string, userIDs []string) ([]string, error)
}

type StorageInterface interface {
	FindMembership(ctx context.Context, userID, workspaceID string) (*types.Membership, error)
	ListMembersByWorkspaceID(ctx context.Context, workspaceID string) ([]*types.Membership, error)
	SoftDeleteMembership(ctx context.Context, userID, workspaceID string, at time.Time) error
	UpdateMemberRole(ctx context.Context, userID, workspaceID string, role types.Role) error
	CountActiveOwners(ctx context.Context, workspaceID string) (int, error)
}

type AuthorizerInterface interface {
	RequireRole(ctx context.Context, userID, workspaceID string, min types.Role) (types.Decision, error)
	FilterActiveMembers(ctx context.Context, workspaceID string, userIDs []string) ([]string, error)
}

// DirectoryInterface resolves profile data for member listings.
type DirectoryInterface interface {
	GetIdentity(ctx context.Context, id string) (*types.Identity, error)
}

type TxRunnerInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}
