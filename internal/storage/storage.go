// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

var _ StorageInterface = (*Storage)(nil)

var (
	membershipColumns = []string{"id", "user_id", "workspace_id", "role", "created_at", "removed_at"}
	inviteColumns     = []string{"id", "workspace_id", "contact", "role", "created_by", "created_at", "expires_at"}
)

type rowScanner interface {
	Scan(...any) error
}

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func (s *Storage) CreateWorkspace(ctx context.Context, name string) (*types.Workspace, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateWorkspace")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate workspace ID: %w", err)
	}

	var w types.Workspace
	err = s.db.Statement(ctx).
		Insert("workspaces").
		Columns("id", "name").
		Values(id.String(), name).
		Suffix("RETURNING id, name, created_at").
		QueryRowContext(ctx).
		Scan(&w.ID, &w.Name, &w.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to insert workspace: %w", err)
	}

	return &w, nil
}

func (s *Storage) GetWorkspaceByID(ctx context.Context, id string) (*types.Workspace, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetWorkspaceByID")
	defer span.End()

	var w types.Workspace
	err := s.db.Statement(ctx).
		Select("id", "name", "created_at").
		From("workspaces").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&w.ID, &w.Name, &w.CreatedAt)

	if err != nil {
		return nil, classify(err, "get workspace")
	}

	return &w, nil
}

// ListActiveWorkspacesByUserID returns the workspaces the user can currently
// operate in, in membership creation order.
func (s *Storage) ListActiveWorkspacesByUserID(ctx context.Context, userID string) ([]*types.Workspace, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListActiveWorkspacesByUserID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("w.id", "w.name", "w.created_at").
		From("workspaces w").
		Join("memberships m ON w.id = m.workspace_id").
		Where(sq.Eq{"m.user_id": userID, "m.removed_at": nil}).
		OrderBy("m.created_at", "m.id").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []*types.Workspace
	for rows.Next() {
		var w types.Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		workspaces = append(workspaces, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return workspaces, nil
}

// FindMembership returns the membership row whether active or removed.
func (s *Storage) FindMembership(ctx context.Context, userID, workspaceID string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.FindMembership")
	defer span.End()

	row := s.db.Statement(ctx).
		Select(membershipColumns...).
		From("memberships").
		Where(sq.Eq{"user_id": userID, "workspace_id": workspaceID}).
		QueryRowContext(ctx)

	m, err := scanMembership(row)
	if err != nil {
		return nil, classify(err, "find membership")
	}

	return m, nil
}

// ListMembershipsByUserID returns every membership of the user, removed ones
// included, ordered by creation time.
func (s *Storage) ListMembershipsByUserID(ctx context.Context, userID string) ([]*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListMembershipsByUserID")
	defer span.End()

	return s.listMemberships(ctx, sq.Eq{"user_id": userID})
}

func (s *Storage) ListMembersByWorkspaceID(ctx context.Context, workspaceID string) ([]*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListMembersByWorkspaceID")
	defer span.End()

	return s.listMemberships(ctx, sq.Eq{"workspace_id": workspaceID})
}

func (s *Storage) listMemberships(ctx context.Context, where sq.Eq) ([]*types.Membership, error) {
	rows, err := s.db.Statement(ctx).
		Select(membershipColumns...).
		From("memberships").
		Where(where).
		OrderBy("created_at", "id").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*types.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return memberships, nil
}

// UpsertMembership creates the membership or reactivates the existing row,
// there is never more than one row per (user, workspace).
func (s *Storage) UpsertMembership(ctx context.Context, userID, workspaceID string, role types.Role) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpsertMembership")
	defer span.End()

	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %d: %w", role, types.ErrInvalidArgument)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate membership ID: %w", err)
	}

	row := s.db.Statement(ctx).
		Insert("memberships").
		Columns("id", "user_id", "workspace_id", "role").
		Values(id.String(), userID, workspaceID, role.String()).
		Suffix("ON CONFLICT (user_id, workspace_id) DO UPDATE SET role = EXCLUDED.role, removed_at = NULL").
		Suffix("RETURNING id, user_id, workspace_id, role, created_at, removed_at").
		QueryRowContext(ctx)

	m, err := scanMembership(row)
	if err != nil {
		return nil, classify(err, "upsert membership")
	}

	return m, nil
}

// SoftDeleteMembership marks an active membership as removed.
func (s *Storage) SoftDeleteMembership(ctx context.Context, userID, workspaceID string, at time.Time) error {
	ctx, span := s.tracer.Start(ctx, "storage.SoftDeleteMembership")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Update("memberships").
		Set("removed_at", at.UTC()).
		Where(sq.Eq{"user_id": userID, "workspace_id": workspaceID, "removed_at": nil}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}

	return requireAffected(res)
}

func (s *Storage) UpdateMemberRole(ctx context.Context, userID, workspaceID string, role types.Role) error {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateMemberRole")
	defer span.End()

	if !role.Valid() {
		return fmt.Errorf("invalid role %d: %w", role, types.ErrInvalidArgument)
	}

	res, err := s.db.Statement(ctx).
		Update("memberships").
		Set("role", role.String()).
		Where(sq.Eq{"user_id": userID, "workspace_id": workspaceID, "removed_at": nil}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}

	return requireAffected(res)
}

// CountActiveOwners locks the owner rows so concurrent demotions serialize.
func (s *Storage) CountActiveOwners(ctx context.Context, workspaceID string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountActiveOwners")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select("id").
		From("memberships").
		Where(sq.Eq{"workspace_id": workspaceID, "role": types.RoleOwner.String(), "removed_at": nil}).
		Suffix("FOR UPDATE").
		QueryContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count owners: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}

	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return n, nil
}

func (s *Storage) FindInvite(ctx context.Context, workspaceID, inviteID string) (*types.Invite, error) {
	ctx, span := s.tracer.Start(ctx, "storage.FindInvite")
	defer span.End()

	return s.getInvite(ctx, sq.Eq{"id": inviteID, "workspace_id": workspaceID}, false)
}

// GetInviteByID locks the invite row for the rest of the transaction.
func (s *Storage) GetInviteByID(ctx context.Context, inviteID string) (*types.Invite, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetInviteByID")
	defer span.End()

	return s.getInvite(ctx, sq.Eq{"id": inviteID}, true)
}

func (s *Storage) getInvite(ctx context.Context, where sq.Eq, lock bool) (*types.Invite, error) {
	q := s.db.Statement(ctx).
		Select(inviteColumns...).
		From("invites").
		Where(where)

	if lock {
		q = q.Suffix("FOR UPDATE")
	}

	i, err := scanInvite(q.QueryRowContext(ctx))
	if err != nil {
		return nil, classify(err, "get invite")
	}

	return i, nil
}

func (s *Storage) ListInvitesByWorkspaceID(ctx context.Context, workspaceID string) ([]*types.Invite, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListInvitesByWorkspaceID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select(inviteColumns...).
		From("invites").
		Where(sq.Eq{"workspace_id": workspaceID}).
		OrderBy("created_at", "id").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	defer rows.Close()

	var invites []*types.Invite
	for rows.Next() {
		i, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, i)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return invites, nil
}

// CreateInvite relies on the (workspace_id, contact) unique index. A conflict
// yields ErrDuplicateKey without aborting the surrounding transaction.
func (s *Storage) CreateInvite(ctx context.Context, invite *types.Invite) (*types.Invite, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateInvite")
	defer span.End()

	if !invite.Role.Valid() {
		return nil, fmt.Errorf("invalid role %d: %w", invite.Role, types.ErrInvalidArgument)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite ID: %w", err)
	}

	row := s.db.Statement(ctx).
		Insert("invites").
		Columns("id", "workspace_id", "contact", "role", "created_by", "expires_at").
		Values(id.String(), invite.WorkspaceID, invite.Contact, invite.Role.String(), invite.CreatedBy, invite.ExpiresAt).
		Suffix("ON CONFLICT (workspace_id, contact) DO NOTHING").
		Suffix("RETURNING id, workspace_id, contact, role, created_by, created_at, expires_at").
		QueryRowContext(ctx)

	i, err := scanInvite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pending invite for %s: %w", invite.Contact, ErrDuplicateKey)
		}
		return nil, classify(err, "insert invite")
	}

	return i, nil
}

// DeleteInvite deletes by the compound key and reports whether a row was removed.
func (s *Storage) DeleteInvite(ctx context.Context, workspaceID, inviteID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteInvite")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("invites").
		Where(sq.Eq{"id": inviteID, "workspace_id": workspaceID}).
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete invite: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return n > 0, nil
}

// PurgeExpiredInvite removes an expired invite still occupying the
// (workspace, contact) slot.
func (s *Storage) PurgeExpiredInvite(ctx context.Context, workspaceID, contact string, now time.Time) error {
	ctx, span := s.tracer.Start(ctx, "storage.PurgeExpiredInvite")
	defer span.End()

	_, err := s.db.Statement(ctx).
		Delete("invites").
		Where(sq.Eq{"workspace_id": workspaceID, "contact": contact}).
		Where(sq.LtOrEq{"expires_at": now.UTC()}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge expired invite: %w", err)
	}

	return nil
}

func (s *Storage) DeleteExpiredInvites(ctx context.Context, now time.Time) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.DeleteExpiredInvites")
	defer span.End()

	res, err := s.db.Statement(ctx).
		Delete("invites").
		Where(sq.LtOrEq{"expires_at": now.UTC()}).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invites: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return n, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMembership(row rowScanner) (*types.Membership, error) {
	var (
		m         types.Membership
		role      string
		removedAt sql.NullTime
	)

	if err := row.Scan(&m.ID, &m.UserID, &m.WorkspaceID, &role, &m.CreatedAt, &removedAt); err != nil {
		return nil, err
	}

	r, err := types.ParseRole(role)
	if err != nil {
		return nil, err
	}
	m.Role = r

	if removedAt.Valid {
		m.State = types.RemovedState(removedAt.Time)
	} else {
		m.State = types.ActiveState()
	}

	return &m, nil
}

func scanInvite(row rowScanner) (*types.Invite, error) {
	var (
		i         types.Invite
		role      string
		expiresAt sql.NullTime
	)

	if err := row.Scan(&i.ID, &i.WorkspaceID, &i.Contact, &role, &i.CreatedBy, &i.CreatedAt, &expiresAt); err != nil {
		return nil, err
	}

	r, err := types.ParseRole(role)
	if err != nil {
		return nil, err
	}
	i.Role = r

	if expiresAt.Valid {
		t := expiresAt.Time
		i.ExpiresAt = &t
	}

	return &i, nil
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}
