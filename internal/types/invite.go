// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"strings"
	"time"
)

// Invite is a pending offer of membership. Every stored row is pending,
// resolution deletes it.
type Invite struct {
	ID          string     `db:"id" json:"id"`
	WorkspaceID string     `db:"workspace_id" json:"workspace_id"`
	Contact     string     `db:"contact" json:"contact"`
	Role        Role       `db:"role" json:"role"`
	CreatedBy   string     `db:"created_by" json:"created_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expires_at,omitempty"`
}

// IsExpired is evaluated lazily, invites without an expiry never expire.
func (i *Invite) IsExpired(now time.Time) bool {
	if i.ExpiresAt == nil {
		return false
	}
	return !now.Before(*i.ExpiresAt)
}

// NormalizeContact lower-cases and trims an invitee email so that the
// (workspace, contact) uniqueness holds regardless of input casing.
func NormalizeContact(contact string) string {
	return strings.ToLower(strings.TrimSpace(contact))
}
