// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invites

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/canonical/workspace-service/internal/authorization"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage   StorageInterface
	authz     AuthorizerInterface
	directory DirectoryInterface
	tx        TxRunnerInterface

	lifetime  time.Duration
	validator *validator.Validate
	now       func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Create issues a pending invite. The actor must be at least admin and can
// never hand out a role above its own.
func (s *Service) Create(ctx context.Context, actorID, workspaceID, contact string, role types.Role) (*types.Invite, error) {
	ctx, span := s.tracer.Start(ctx, "invites.Service.Create")
	defer span.End()

	if !role.Valid() {
		return nil, fmt.Errorf("unknown role: %w", types.ErrInvalidArgument)
	}

	min := types.RoleAdmin
	if role.Compare(min) > 0 {
		min = role
	}

	if err := s.require(ctx, actorID, workspaceID, min); err != nil {
		return nil, err
	}

	contact = types.NormalizeContact(contact)
	if err := s.validator.Var(contact, "required,email"); err != nil {
		return nil, fmt.Errorf("contact must be an email address: %w", types.ErrInvalidArgument)
	}

	// directory lookups stay outside the transaction
	inviteeID, err := s.directory.GetIdentityIDByEmail(ctx, contact)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invitee: %w", err)
	}

	now := s.now()
	invite := &types.Invite{
		WorkspaceID: workspaceID,
		Contact:     contact,
		Role:        role,
		CreatedBy:   actorID,
	}

	if s.lifetime > 0 {
		exp := now.Add(s.lifetime).UTC()
		invite.ExpiresAt = &exp
	}

	var created *types.Invite
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if inviteeID != "" {
			m, err := s.storage.FindMembership(ctx, inviteeID, workspaceID)
			switch {
			case err == nil && m.State.IsActive():
				return fmt.Errorf("%s is already a member: %w", contact, types.ErrConflict)
			case err != nil && !errors.Is(err, storage.ErrNotFound):
				return err
			}
		}

		if err := s.storage.PurgeExpiredInvite(ctx, workspaceID, contact, now); err != nil {
			return err
		}

		i, err := s.storage.CreateInvite(ctx, invite)
		if errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("pending invite for %s exists: %w", contact, types.ErrConflict)
		}
		if err != nil {
			return err
		}

		created = i
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Security().AdminAction(actorID, "create_invite", authorization.WorkspaceResource(workspaceID))

	return created, nil
}

// List returns the pending invites of a workspace, expired rows are hidden.
func (s *Service) List(ctx context.Context, actorID, workspaceID string) ([]*types.Invite, error) {
	ctx, span := s.tracer.Start(ctx, "invites.Service.List")
	defer span.End()

	if err := s.require(ctx, actorID, workspaceID, types.RoleMember); err != nil {
		return nil, err
	}

	all, err := s.storage.ListInvitesByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}

	now := s.now()
	pending := make([]*types.Invite, 0, len(all))
	for _, i := range all {
		if !i.IsExpired(now) {
			pending = append(pending, i)
		}
	}

	return pending, nil
}

// Cancel deletes by (workspace, invite). A missing invite and one owned by
// another workspace are indistinguishable to the caller.
func (s *Service) Cancel(ctx context.Context, actorID, workspaceID, inviteID string) error {
	ctx, span := s.tracer.Start(ctx, "invites.Service.Cancel")
	defer span.End()

	if err := s.require(ctx, actorID, workspaceID, types.RoleAdmin); err != nil {
		return err
	}

	deleted, err := s.storage.DeleteInvite(ctx, workspaceID, inviteID)
	if err != nil {
		return fmt.Errorf("failed to cancel invite: %w", err)
	}

	if !deleted {
		return types.ErrNotFound
	}

	s.logger.Security().AdminAction(actorID, "cancel_invite", authorization.WorkspaceResource(workspaceID))

	return nil
}

// Accept turns the invite into a membership and deletes it in one
// transaction. An expired invite is deleted and types.ErrExpired returned.
// Only the invited contact can accept, anyone else gets types.ErrNotFound.
func (s *Service) Accept(ctx context.Context, invitee types.Identity, inviteID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "invites.Service.Accept")
	defer span.End()

	if invitee.ID == "" {
		return nil, types.ErrUnauthenticated
	}

	var (
		membership *types.Membership
		expired    bool
	)

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		invite, err := s.storage.GetInviteByID(ctx, inviteID)
		if errors.Is(err, storage.ErrNotFound) {
			return types.ErrNotFound
		}
		if err != nil {
			return err
		}

		if invite.Contact != types.NormalizeContact(invitee.Email) {
			s.logger.Security().AuthzFailure(invitee.ID, "invite:"+inviteID)
			return types.ErrNotFound
		}

		if invite.IsExpired(s.now()) {
			if _, err := s.storage.DeleteInvite(ctx, invite.WorkspaceID, invite.ID); err != nil {
				return err
			}
			// the deletion has to commit, the error is reported after
			expired = true
			return nil
		}

		role := invite.Role
		existing, err := s.storage.FindMembership(ctx, invitee.ID, invite.WorkspaceID)
		switch {
		case err == nil && existing.State.IsActive() && existing.Role.Compare(role) > 0:
			role = existing.Role
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return err
		}

		m, err := s.storage.UpsertMembership(ctx, invitee.ID, invite.WorkspaceID, role)
		if err != nil {
			return err
		}

		if _, err := s.storage.DeleteInvite(ctx, invite.WorkspaceID, invite.ID); err != nil {
			return err
		}

		membership = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	if expired {
		return nil, types.ErrExpired
	}

	return membership, nil
}

// ReapExpired deletes every invite past its expiry. Accept re-checks expiry on
// its own so the reaper is only housekeeping.
func (s *Service) ReapExpired(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "invites.Service.ReapExpired")
	defer span.End()

	n, err := s.storage.DeleteExpiredInvites(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to reap invites: %w", err)
	}

	if n > 0 {
		s.logger.Infof("reaped %d expired invites", n)
	}

	return n, nil
}

func (s *Service) require(ctx context.Context, actorID, workspaceID string, min types.Role) error {
	decision, err := s.authz.RequireRole(ctx, actorID, workspaceID, min)
	if err != nil {
		return err
	}

	return decision.Err()
}

func NewService(
	storage StorageInterface,
	authz AuthorizerInterface,
	directory DirectoryInterface,
	tx TxRunnerInterface,
	lifetime time.Duration,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:   storage,
		authz:     authz,
		directory: directory,
		tx:        tx,
		lifetime:  lifetime,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		now:       time.Now,
		tracer:    tracer,
		monitor:   monitor,
		logger:    logger,
	}
}
