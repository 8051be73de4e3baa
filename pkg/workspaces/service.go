// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package workspaces

import (
	"context"
	"fmt"
	"strings"

	"github.com/canonical/workspace-service/internal/authorization"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface
	authz   AuthorizerInterface
	tx      TxRunnerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *Service) ListActiveWorkspaces(ctx context.Context, userID string) ([]*types.Workspace, error) {
	ctx, span := s.tracer.Start(ctx, "workspaces.Service.ListActiveWorkspaces")
	defer span.End()

	if userID == "" {
		return nil, types.ErrUnauthenticated
	}

	ws, err := s.storage.ListActiveWorkspacesByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	if ws == nil {
		ws = []*types.Workspace{}
	}

	return ws, nil
}

// CreateWorkspace inserts the workspace and the creator's owner membership
// in one transaction.
func (s *Service) CreateWorkspace(ctx context.Context, userID, name string) (*types.Workspace, error) {
	ctx, span := s.tracer.Start(ctx, "workspaces.Service.CreateWorkspace")
	defer span.End()

	if userID == "" {
		return nil, types.ErrUnauthenticated
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("workspace name is required: %w", types.ErrInvalidArgument)
	}

	var created *types.Workspace
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		w, err := s.storage.CreateWorkspace(ctx, name)
		if err != nil {
			return err
		}

		if _, err := s.storage.UpsertMembership(ctx, userID, w.ID, types.RoleOwner); err != nil {
			return err
		}

		created = w
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	s.logger.Security().AdminAction(userID, "create_workspace", authorization.WorkspaceResource(created.ID))

	return created, nil
}

// SelectWorkspace only verifies the choice, persisting it is the caller's job.
func (s *Service) SelectWorkspace(ctx context.Context, userID, workspaceID string) error {
	ctx, span := s.tracer.Start(ctx, "workspaces.Service.SelectWorkspace")
	defer span.End()

	if userID == "" {
		return types.ErrUnauthenticated
	}

	if workspaceID == "" {
		return fmt.Errorf("workspace_id is required: %w", types.ErrInvalidArgument)
	}

	access, err := s.authz.CheckAccess(ctx, userID, workspaceID)
	if err != nil {
		return err
	}

	if !access.Active {
		s.logger.Security().AuthzFailure(userID, authorization.WorkspaceResource(workspaceID))
		return types.ErrForbidden
	}

	return nil
}

func NewService(
	storage StorageInterface,
	authz AuthorizerInterface,
	tx TxRunnerInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		authz:   authz,
		tx:      tx,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
