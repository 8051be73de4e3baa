// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

// Access is the membership status of a user in a workspace.
// Exists=true, Active=false means the membership was revoked.
type Access struct {
	Exists bool
	Active bool
	Role   Role
}

type Decision int

const (
	Unauthenticated Decision = iota
	Forbidden
	Allowed
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Forbidden:
		return "forbidden"
	}
	return "unauthenticated"
}

// Err converts a decision into the matching sentinel, nil when allowed.
func (d Decision) Err() error {
	switch d {
	case Allowed:
		return nil
	case Forbidden:
		return ErrForbidden
	}
	return ErrUnauthenticated
}
