// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package workspaces

import (
	"context"
	"fmt"

	"github.com/canonical/workspace-service/internal/authorization"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

var _ BinderInterface = (*Binder)(nil)

// Binder picks the single workspace a request operates in.
type Binder struct {
	storage StorageInterface
	authz   AuthorizerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Bind honors the explicit workspace only when the user is an active member,
// otherwise it falls back to the oldest active membership. A removed or
// foreign workspace is never returned.
func (b *Binder) Bind(ctx context.Context, userID, explicitWorkspaceID string) (string, error) {
	ctx, span := b.tracer.Start(ctx, "workspaces.Binder.Bind")
	defer span.End()

	if userID == "" {
		return "", types.ErrUnauthenticated
	}

	if explicitWorkspaceID != "" {
		access, err := b.authz.CheckAccess(ctx, userID, explicitWorkspaceID)
		if err != nil {
			return "", fmt.Errorf("failed to check requested workspace: %w", err)
		}

		if access.Active {
			return explicitWorkspaceID, nil
		}

		b.logger.Debugf("ignoring workspace override %s for user %s", explicitWorkspaceID, userID)
		b.logger.Security().AuthzFailure(userID, authorization.WorkspaceResource(explicitWorkspaceID))
	}

	memberships, err := b.storage.ListMembershipsByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to list memberships: %w", err)
	}

	for _, m := range memberships {
		if m.State.IsActive() {
			return m.WorkspaceID, nil
		}
	}

	return "", types.ErrNoWorkspace
}

func NewBinder(storage StorageInterface, authz AuthorizerInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Binder {
	b := new(Binder)

	b.storage = storage
	b.authz = authz

	b.tracer = tracer
	b.monitor = monitor
	b.logger = logger

	return b
}
