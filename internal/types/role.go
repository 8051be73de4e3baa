// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"cmp"
	"fmt"
	"strings"
)

// Role is the authorization level of a membership.
// The zero value is not a valid role and never satisfies AtLeast.
type Role int

const (
	RoleUnknown Role = iota
	RoleMember
	RoleAdmin
	RoleOwner
)

var roleNames = map[Role]string{
	RoleMember: "member",
	RoleAdmin:  "admin",
	RoleOwner:  "owner",
}

// ParseRole maps the stored representation back to a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "member":
		return RoleMember, nil
	case "admin":
		return RoleAdmin, nil
	case "owner":
		return RoleOwner, nil
	}

	return RoleUnknown, fmt.Errorf("unknown role %q: %w", s, ErrInvalidArgument)
}

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "unknown"
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Compare returns -1, 0 or +1 following member < admin < owner.
func (r Role) Compare(o Role) int {
	return cmp.Compare(r, o)
}

// AtLeast reports whether r is a valid role ranking at or above min.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && min.Valid() && r.Compare(min) >= 0
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal role %d: %w", int(r), ErrInvalidArgument)
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}

	*r = parsed
	return nil
}
