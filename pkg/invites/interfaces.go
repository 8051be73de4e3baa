// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invites

import (
	"context"
	"time"

	"github.com/canonical/workspace-service/internal/types"
)

type ServiceInterface interface {
	Create(ctx context.Context, actorID, workspaceID, contact string, role types.Role) (*types.Invite, error)
	List(ctx context.Context, actorID, workspaceID string) ([]*types.Invite, error)
	Cancel(ctx context.Context, actorID, workspaceID, inviteID string) error
	Accept(ctx context.Context, invitee types.Identity, inviteID string) (*types.Membership, error)
	ReapExpired(ctx context.Context) (int64, error)
}

// StorageInterface is the subset of internal/storage used by this package.
type StorageInterface interface {
	FindMembership(ctx context.Context, userID, workspaceID string) (*types.Membership, error)
	UpsertMembership(ctx context.Context, userID, workspaceID string, role types.Role) (*types.Membership, error)
	GetInviteByID(ctx context.Context, inviteID string) (*types.Invite, error)
	ListInvitesByWorkspaceID(ctx context.Context, workspaceID string) ([]*types.Invite, error)
	CreateInvite(ctx context.Context, invite *types.Invite) (*types.Invite, error)
	DeleteInvite(ctx context.Context, workspaceID, inviteID string) (bool, error)
	PurgeExpiredInvite(ctx context.Context, workspaceID, contact string, now time.Time) error
	DeleteExpiredInvites(ctx context.Context, now time.Time) (int64, error)
}

type AuthorizerInterface interface {
	RequireRole(ctx context.Context, userID, workspaceID string, min types.Role) (types.Decision, error)
}

// DirectoryInterface looks up existing identities by email.
type DirectoryInterface interface {
	GetIdentityIDByEmail(ctx context.Context, email string) (string, error)
}

type TxRunnerInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}
