// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package workspaces

import (
	"context"

	"github.com/canonical/workspace-service/internal/types"
)

type BinderInterface interface {
	Bind(ctx context.Context, userID, explicitWorkspaceID string) (string, error)
}

type ServiceInterface interface {
	ListActiveWorkspaces(ctx context.Context, userID string) ([]*types.Workspace, error)
	CreateWorkspace(ctx context.Context, userID, name string) (*types.Workspace, error)
	SelectWorkspace(ctx context.Context, userID, workspaceID string) error
}

// StorageInterface is the subset of internal/storage used by this package.
type StorageInterface interface {
	CreateWorkspace(ctx context.Context, name string) (*types.Workspace, error)
	UpsertMembership(ctx context.Context, userID, workspaceID string, role types.Role) (*types.Membership, error)
	ListActiveWorkspacesByUserID(ctx context.Context, userID string) ([]*types.Workspace, error)
	ListMembershipsByUserID(ctx context.Context, userID string) ([]*types.Membership, error)
}

type AuthorizerInterface interface {
	CheckAccess(ctx context.Context, userID, workspaceID string) (types.Access, error)
}

type TxRunnerInterface interface {
	WithTx(ctx context.Context, fn func(context.Context) error) error
}
