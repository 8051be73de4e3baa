// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"time"
)

type MembershipStatus int

const (
	MembershipActive MembershipStatus = iota + 1
	MembershipRemoved
)

func (s MembershipStatus) String() string {
	switch s {
	case MembershipActive:
		return "active"
	case MembershipRemoved:
		return "removed"
	}
	return "unknown"
}

// MembershipState is the tagged form of the nullable removed_at column.
type MembershipState struct {
	status    MembershipStatus
	removedAt time.Time
}

func ActiveState() MembershipState {
	return MembershipState{status: MembershipActive}
}

func RemovedState(at time.Time) MembershipState {
	return MembershipState{status: MembershipRemoved, removedAt: at.UTC()}
}

// StateFromRemovedAt converts the storage column into the tagged state.
func StateFromRemovedAt(removedAt *time.Time) MembershipState {
	if removedAt == nil {
		return ActiveState()
	}
	return RemovedState(*removedAt)
}

func (s MembershipState) Status() MembershipStatus {
	return s.status
}

func (s MembershipState) IsActive() bool {
	return s.status == MembershipActive
}

// RemovedAt returns the removal time and true only for removed memberships.
func (s MembershipState) RemovedAt() (time.Time, bool) {
	if s.status != MembershipRemoved {
		return time.Time{}, false
	}
	return s.removedAt, true
}
