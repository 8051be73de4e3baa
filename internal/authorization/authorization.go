// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

var _ AuthorizerInterface = (*Authorizer)(nil)

// Authorizer answers membership and role questions straight from the store.
// Nothing is cached, a removal or role change applies to the next call.
type Authorizer struct {
	store MembershipStoreInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// CheckAccess distinguishes a missing membership from a removed one.
func (a *Authorizer) CheckAccess(ctx context.Context, userID, workspaceID string) (types.Access, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.CheckAccess")
	defer span.End()

	if userID == "" || workspaceID == "" {
		return types.Access{}, nil
	}

	m, err := a.store.FindMembership(ctx, userID, workspaceID)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Access{}, nil
	}
	if err != nil {
		return types.Access{}, fmt.Errorf("failed to look up membership: %w", err)
	}

	return types.Access{
		Exists: true,
		Active: m.State.IsActive(),
		Role:   m.Role,
	}, nil
}

// RequireRole returns Allowed only for an active membership whose role ranks
// at or above min. On a store error the decision is Forbidden.
func (a *Authorizer) RequireRole(ctx context.Context, userID, workspaceID string, min types.Role) (types.Decision, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.RequireRole")
	defer span.End()

	if userID == "" {
		a.record(min, types.Unauthenticated)
		return types.Unauthenticated, nil
	}

	access, err := a.CheckAccess(ctx, userID, workspaceID)
	if err != nil {
		return types.Forbidden, err
	}

	decision := types.Forbidden
	if access.Active && access.Role.AtLeast(min) {
		decision = types.Allowed
	}

	if decision == types.Forbidden {
		a.logger.Security().AuthzFailure(userID, WorkspaceResource(workspaceID))
	}

	a.record(min, decision)

	return decision, nil
}

// Authorize is RequireRole folded into a single error.
func (a *Authorizer) Authorize(ctx context.Context, userID, workspaceID string, min types.Role) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.Authorize")
	defer span.End()

	decision, err := a.RequireRole(ctx, userID, workspaceID, min)
	if err != nil {
		return err
	}

	return decision.Err()
}

// FilterActiveMembers keeps the ids holding an active membership, in input order.
func (a *Authorizer) FilterActiveMembers(ctx context.Context, workspaceID string, userIDs []string) ([]string, error) {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.FilterActiveMembers")
	defer span.End()

	if len(userIDs) == 0 {
		return []string{}, nil
	}

	memberships, err := a.store.ListMembersByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	active := make(map[string]struct{}, len(memberships))
	for _, m := range memberships {
		if m.State.IsActive() {
			active[m.UserID] = struct{}{}
		}
	}

	ret := make([]string, 0, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, ok := active[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ret = append(ret, id)
	}

	return ret, nil
}

func (a *Authorizer) record(min types.Role, d types.Decision) {
	if err := a.monitor.IncAuthorizationDecision(decisionLabels(min.String(), d.String())); err != nil {
		a.logger.Debugf("failed to record authorization decision: %v", err)
	}
}

func NewAuthorizer(store MembershipStoreInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Authorizer {
	a := new(Authorizer)

	a.store = store

	a.tracer = tracer
	a.monitor = monitor
	a.logger = logger

	return a
}
