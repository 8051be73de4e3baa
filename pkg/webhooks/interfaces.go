// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"

	"github.com/ory/hydra/v2/oauth2"

	"github.com/canonical/workspace-service/internal/types"
)

// StorageInterface defines the storage operations required by the webhooks package.
// It is a subset of the internal/storage interface.
type StorageInterface interface {
	ListActiveWorkspacesByUserID(ctx context.Context, userID string) ([]*types.Workspace, error)
}

// WorkspaceCreatorInterface provisions a workspace together with its owner
// membership, see pkg/workspaces.
type WorkspaceCreatorInterface interface {
	CreateWorkspace(ctx context.Context, userID, name string) (*types.Workspace, error)
}

// ServiceInterface defines the webhook service operations.
type ServiceInterface interface {
	HandleRegistration(ctx context.Context, identityID, email string) error
	HandleTokenHook(ctx context.Context, req *oauth2.TokenHookRequest) (*TokenHookResponse, error)
}
