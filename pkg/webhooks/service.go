// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"fmt"

	"github.com/ory/hydra/v2/oauth2"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage    StorageInterface
	workspaces WorkspaceCreatorInterface
	tracer     tracing.TracingInterface
	monitor    monitoring.MonitorInterface
	logger     logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	workspaces WorkspaceCreatorInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:    storage,
		workspaces: workspaces,
		tracer:     tracer,
		monitor:    monitor,
		logger:     logger,
	}
}

// HandleRegistration gives a freshly registered identity its first
// workspace. Kratos may retry the hook, so an identity that already belongs to
// a workspace is left alone.
func (s *Service) HandleRegistration(ctx context.Context, identityID, email string) error {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleRegistration")
	defer span.End()

	s.logger.Debugf("Handling registration for identity %s", identityID)

	if identityID == "" || email == "" {
		return fmt.Errorf("identity ID or email is empty: %w", types.ErrInvalidArgument)
	}

	existing, err := s.storage.ListActiveWorkspacesByUserID(ctx, identityID)
	if err != nil {
		return fmt.Errorf("failed to list workspaces: %w", err)
	}

	if len(existing) > 0 {
		s.logger.Debugf("identity %s already has %d workspaces", identityID, len(existing))
		return nil
	}

	ws, err := s.workspaces.CreateWorkspace(ctx, identityID, fmt.Sprintf("%s's Workspace", email))
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	s.logger.Infof("Successfully provisioned workspace %s for user %s", ws.ID, identityID)
	return nil
}

// HandleTokenHook adds the ids of the subject's active workspaces to both
// tokens. Nothing is added for subjects without memberships.
func (s *Service) HandleTokenHook(ctx context.Context, req *oauth2.TokenHookRequest) (*TokenHookResponse, error) {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleTokenHook")
	defer span.End()

	userID := subject(req)
	s.logger.Debugf("Handling token hook for subject %q", userID)

	if userID == "" {
		return nil, fmt.Errorf("token hook request has no subject: %w", types.ErrInvalidArgument)
	}

	workspaces, err := s.storage.ListActiveWorkspacesByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	resp := new(TokenHookResponse)
	if len(workspaces) == 0 {
		return resp, nil
	}

	ids := make([]string, 0, len(workspaces))
	for _, ws := range workspaces {
		ids = append(ids, ws.ID)
	}

	s.logger.Debugf("Adding %d workspaces to tokens of %s", len(ids), userID)

	resp.Session.IDToken = map[string]interface{}{WorkspacesClaim: ids}
	resp.Session.AccessToken = map[string]interface{}{WorkspacesClaim: ids}

	return resp, nil
}

func subject(req *oauth2.TokenHookRequest) string {
	if req == nil || req.Session == nil || req.Session.DefaultSession == nil {
		return ""
	}

	return req.Session.DefaultSession.Subject
}
