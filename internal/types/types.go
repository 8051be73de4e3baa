// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

// Identity is the authenticated user as reported by the identity subsystem.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type CredentialSource int

const (
	CredentialCookie CredentialSource = iota + 1
	CredentialToken
)

// Credential is an opaque bearer value together with where it was read from.
type Credential struct {
	Value  string
	Source CredentialSource
}

func (c Credential) Empty() bool {
	return c.Value == ""
}

// Principal is the request scoped pair resolved once at the edge and passed
// by value to everything downstream.
type Principal struct {
	Identity    Identity
	WorkspaceID string
}

type Workspace struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Membership struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	WorkspaceID string          `db:"workspace_id"`
	Role        Role            `db:"role"`
	State       MembershipState `db:"-"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Member is a membership enriched with directory data for listings.
type Member struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	JoinedAt  time.Time  `json:"joined_at"`
	RemovedAt *time.Time `json:"removed_at,omitempty"`
}
