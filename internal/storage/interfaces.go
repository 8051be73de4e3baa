// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"time"

	"github.com/canonical/workspace-service/internal/types"
)

type StorageInterface interface {
	CreateWorkspace(ctx context.Context, name string) (*types.Workspace, error)
	GetWorkspaceByID(ctx context.Context, id string) (*types.Workspace, error)
	ListActiveWorkspacesByUserID(ctx context.Context, userID string) ([]*types.Workspace, error)

	FindMembership(ctx context.Context, userID, workspaceID string) (*types.Membership, error)
	ListMembershipsByUserID(ctx context.Context, userID string) ([]*types.Membership, error)
	ListMembersByWorkspaceID(ctx context.Context, workspaceID string) ([]*types.Membership, error)
	UpsertMembership(ctx context.Context, userID, workspaceID string, role types.Role) (*types.Membership, error)
	SoftDeleteMembership(ctx context.Context, userID, workspaceID string, at time.Time) error
	UpdateMemberRole(ctx context.Context, userID, workspaceID string, role types.Role) error
	CountActiveOwners(ctx context.Context, workspaceID string) (int, error)

	FindInvite(ctx context.Context, workspaceID, inviteID string) (*types.Invite, error)
	GetInviteByID(ctx context.Context, inviteID string) (*types.Invite, error)
	ListInvitesByWorkspaceID(ctx context.Context, workspaceID string) ([]*types.Invite, error)
	CreateInvite(ctx context.Context, invite *types.Invite) (*types.Invite, error)
	DeleteInvite(ctx context.Context, workspaceID, inviteID string) (bool, error)
	PurgeExpiredInvite(ctx context.Context, workspaceID, contact string, now time.Time) error
	DeleteExpiredInvites(ctx context.Context, now time.Time) (int64, error)
}
