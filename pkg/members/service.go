// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canonical/workspace-service/internal/authorization"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

var (
	_ ServiceInterface = (*Service)(nil)

	ErrLastOwner = fmt.Errorf("workspace must keep at least one owner: %w", types.ErrConflict)
)

type Service struct {
	storage   StorageInterface
	authz     AuthorizerInterface
	directory DirectoryInterface
	tx        TxRunnerInterface

	now func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// List returns the members of a workspace in join order. Removed members are
// only visible to admins.
func (s *Service) List(ctx context.Context, actorID, workspaceID string, includeRemoved bool) ([]*types.Member, error) {
	ctx, span := s.tracer.Start(ctx, "members.Service.List")
	defer span.End()

	min := types.RoleMember
	if includeRemoved {
		min = types.RoleAdmin
	}

	if err := s.require(ctx, actorID, workspaceID, min); err != nil {
		return nil, err
	}

	memberships, err := s.storage.ListMembersByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	members := make([]*types.Member, 0, len(memberships))
	for _, m := range memberships {
		if !m.State.IsActive() && !includeRemoved {
			continue
		}

		member := &types.Member{
			UserID:   m.UserID,
			Role:     m.Role,
			JoinedAt: m.CreatedAt,
		}

		if at, removed := m.State.RemovedAt(); removed {
			member.RemovedAt = &at
		}

		// profile data is best effort
		if identity, err := s.directory.GetIdentity(ctx, m.UserID); err != nil {
			s.logger.Debugf("failed to resolve identity %s: %v", m.UserID, err)
		} else {
			member.Email = identity.Email
		}

		members = append(members, member)
	}

	return members, nil
}

// Remove soft deletes a membership. Members may remove themselves, otherwise
// the actor must be admin and hold at least the target's role.
func (s *Service) Remove(ctx context.Context, actorID, workspaceID, userID string) error {
	ctx, span := s.tracer.Start(ctx, "members.Service.Remove")
	defer span.End()

	self := actorID == userID

	min := types.RoleAdmin
	if self {
		min = types.RoleMember
	}

	if err := s.require(ctx, actorID, workspaceID, min); err != nil {
		return err
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		target, err := s.activeMembership(ctx, userID, workspaceID)
		if err != nil {
			return err
		}

		if !self {
			if err := s.outranks(ctx, actorID, workspaceID, target.Role); err != nil {
				return err
			}
		}

		if target.Role == types.RoleOwner {
			if err := s.keepOwner(ctx, workspaceID); err != nil {
				return err
			}
		}

		if err := s.storage.SoftDeleteMembership(ctx, userID, workspaceID, s.now()); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return types.ErrNotFound
			}
			return err
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Security().AdminAction(actorID, "remove_member:"+userID, authorization.WorkspaceResource(workspaceID))

	return nil
}

// UpdateRole changes the role of an active member. The actor can neither
// grant a role above its own nor touch a member that outranks it.
func (s *Service) UpdateRole(ctx context.Context, actorID, workspaceID, userID string, role types.Role) error {
	ctx, span := s.tracer.Start(ctx, "members.Service.UpdateRole")
	defer span.End()

	if !role.Valid() {
		return fmt.Errorf("unknown role: %w", types.ErrInvalidArgument)
	}

	min := types.RoleAdmin
	if role.Compare(min) > 0 {
		min = role
	}

	if err := s.require(ctx, actorID, workspaceID, min); err != nil {
		return err
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		target, err := s.activeMembership(ctx, userID, workspaceID)
		if err != nil {
			return err
		}

		if target.Role == role {
			return nil
		}

		if err := s.outranks(ctx, actorID, workspaceID, target.Role); err != nil {
			return err
		}

		if target.Role == types.RoleOwner {
			if err := s.keepOwner(ctx, workspaceID); err != nil {
				return err
			}
		}

		if err := s.storage.UpdateMemberRole(ctx, userID, workspaceID, role); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return types.ErrNotFound
			}
			return err
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Security().AdminAction(actorID, "set_role:"+userID+":"+role.String(), authorization.WorkspaceResource(workspaceID))

	return nil
}

// MentionRecipients narrows a list of user ids to the active members of the
// workspace, so notifications never reach removed or foreign users.
func (s *Service) MentionRecipients(ctx context.Context, actorID, workspaceID string, userIDs []string) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "members.Service.MentionRecipients")
	defer span.End()

	if err := s.require(ctx, actorID, workspaceID, types.RoleMember); err != nil {
		return nil, err
	}

	return s.authz.FilterActiveMembers(ctx, workspaceID, userIDs)
}

func (s *Service) require(ctx context.Context, actorID, workspaceID string, min types.Role) error {
	decision, err := s.authz.RequireRole(ctx, actorID, workspaceID, min)
	if err != nil {
		return err
	}

	return decision.Err()
}

func (s *Service) activeMembership(ctx context.Context, userID, workspaceID string) (*types.Membership, error) {
	m, err := s.storage.FindMembership(ctx, userID, workspaceID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if !m.State.IsActive() {
		return nil, types.ErrNotFound
	}

	return m, nil
}

func (s *Service) outranks(ctx context.Context, actorID, workspaceID string, target types.Role) error {
	actor, err := s.activeMembership(ctx, actorID, workspaceID)
	if errors.Is(err, types.ErrNotFound) {
		return types.ErrForbidden
	}
	if err != nil {
		return err
	}

	if !actor.Role.AtLeast(target) {
		s.logger.Security().AuthzFailure(actorID, authorization.WorkspaceResource(workspaceID))
		return types.ErrForbidden
	}

	return nil
}

// keepOwner locks the owner rows, so two concurrent demotions cannot both
// observe a second owner.
func (s *Service) keepOwner(ctx context.Context, workspaceID string) error {
	n, err := s.storage.CountActiveOwners(ctx, workspaceID)
	if err != nil {
		return err
	}

	if n <= 1 {
		return ErrLastOwner
	}

	return nil
}

func NewService(
	storage StorageInterface,
	authz AuthorizerInterface,
	directory DirectoryInterface,
	tx TxRunnerInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:   storage,
		authz:     authz,
		directory: directory,
		tx:        tx,
		now:       time.Now,
		tracer:    tracer,
		monitor:   monitor,
		logger:    logger,
	}
}
