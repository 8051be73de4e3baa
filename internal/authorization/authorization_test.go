// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_monitor.go -source=../monitoring/interfaces.go

func membership(userID string, role types.Role, state types.MembershipState) *types.Membership {
	return &types.Membership{
		ID:          "m-" + userID,
		UserID:      userID,
		WorkspaceID: "w1",
		Role:        role,
		State:       state,
	}
}

func TestAuthorizer_CheckAccess(t *testing.T) {
	removedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		userID    string
		setup     func(*MockMembershipStoreInterface)
		expected  types.Access
		expectErr bool
	}{
		{
			name:   "active membership",
			userID: "u1",
			setup: func(s *MockMembershipStoreInterface) {
				s.EXPECT().FindMembership(gomock.Any(), "u1", "w1").Return(membership("u1", types.RoleAdmin, types.ActiveState()), nil)
			},
			expected: types.Access{Exists: true, Active: true, Role: types.RoleAdmin},
		},
		{
			name:   "removed membership",
			userID: "u1",
			setup: func(s *MockMembershipStoreInterface) {
				s.EXPECT().FindMembership(gomock.Any(), "u1", "w1").Return(membership("u1", types.RoleOwner, types.RemovedState(removedAt)), nil)
			},
			expected: types.Access{Exists: true, Active: false, Role: types.RoleOwner},
		},
		{
			name:   "never a member",
			userID: "u1",
			setup: func(s *MockMembershipStoreInterface) {
				s.EXPECT().FindMembership(gomock.Any(), "u1", "w1").Return(nil, storage.ErrNotFound)
			},
			expected: types.Access{},
		},
		{
			name:     "no user",
			userID:   "",
			setup:    func(s *MockMembershipStoreInterface) {},
			expected: types.Access{},
		},
		{
			name:   "store failure",
			userID: "u1",
			setup: func(s *MockMembershipStoreInterface) {
				s.EXPECT().FindMembership(gomock.Any(), "u1", "w1").Return(nil, errors.New("connection refused"))
			},
			expectErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := NewMockMembershipStoreInterface(ctrl)
			monitor := NewMockMonitorInterface(ctrl)
			test.setup(store)

			a := NewAuthorizer(store, tracing.NewNoopTracer(), monitor, logging.NewNoopLogger())

			access, err := a.CheckAccess(context.Background(), test.userID, "w1")

			if test.expectErr != (err != nil) {
				t.Fatalf("expected error %v, got %v", test.expectErr, err)
			}
			if access != test.expected {
				t.Errorf("expected %+v, got %+v", test.expected, access)
			}
		})
	}
}

func TestAuthorizer_RequireRole(t *testing.T) {
	removedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		userID   string
		min      types.Role
		found    *types.Membership
		findErr  error
		expected types.Decision
	}{
		{name: "member meets member", userID: "u1", min: types.RoleMember, found: membership("u1", types.RoleMember, types.ActiveState()), expected: types.Allowed},
		{name: "member below admin", userID: "u1", min: types.RoleAdmin, found: membership("u1", types.RoleMember, types.ActiveState()), expected: types.Forbidden},
		{name: "owner meets admin", userID: "u1", min: types.RoleAdmin, found: membership("u1", types.RoleOwner, types.ActiveState()), expected: types.Allowed},
		{name: "removed owner", userID: "u1", min: types.RoleMember, found: membership("u1", types.RoleOwner, types.RemovedState(removedAt)), expected: types.Forbidden},
		{name: "not a member", userID: "u1", min: types.RoleMember, findErr: storage.ErrNotFound, expected: types.Forbidden},
		{name: "anonymous", userID: "", min: types.RoleMember, expected: types.Unauthenticated},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := NewMockMembershipStoreInterface(ctrl)
			monitor := NewMockMonitorInterface(ctrl)

			if test.userID != "" {
				store.EXPECT().FindMembership(gomock.Any(), test.userID, "w1").Return(test.found, test.findErr)
			}
			monitor.EXPECT().IncAuthorizationDecision(map[string]string{
				"role":     test.min.String(),
				"decision": test.expected.String(),
			}).Return(nil)

			a := NewAuthorizer(store, tracing.NewNoopTracer(), monitor, logging.NewNoopLogger())

			decision, err := a.RequireRole(context.Background(), test.userID, "w1", test.min)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if decision != test.expected {
				t.Errorf("expected %v, got %v", test.expected, decision)
			}
		})
	}
}

func TestAuthorizer_RequireRoleIsMonotonic(t *testing.T) {
	roles := []types.Role{types.RoleMember, types.RoleAdmin, types.RoleOwner}

	for _, held := range roles {
		ctrl := gomock.NewController(t)

		store := NewMockMembershipStoreInterface(ctrl)
		monitor := NewMockMonitorInterface(ctrl)
		store.EXPECT().FindMembership(gomock.Any(), "u1", "w1").Return(membership("u1", held, types.ActiveState()), nil).AnyTimes()
		monitor.EXPECT().IncAuthorizationDecision(gomock.Any()).Return(nil).AnyTimes()

		a := NewAuthorizer(store, tracing.NewNoopTracer(), monitor, logging.NewNoopLogger())

		allowedAbove := false
		for i := len(roles) - 1; i >= 0; i-- {
			d, err := a.RequireRole(context.Background(), "u1", "w1", roles[i])
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if allowedAbove && d != types.Allowed {
				t.Errorf("%v allowed for a higher minimum but not for %v", held, roles[i])
			}
			allowedAbove = allowedAbove || d == types.Allowed
		}

		ctrl.Finish()
	}
}

func TestAuthorizer_AuthorizeStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := NewMockMembershipStoreInterface(ctrl)
	monitor := NewMockMonitorInterface(ctrl)
	store.EXPECT().FindMembership(gomock.Any(), "u1", "w1").Return(nil, errors.New("timeout"))

	a := NewAuthorizer(store, tracing.NewNoopTracer(), monitor, logging.NewNoopLogger())

	err := a.Authorize(context.Background(), "u1", "w1", types.RoleMember)
	if err == nil || errors.Is(err, types.ErrForbidden) {
		t.Fatalf("expected a store error, got %v", err)
	}
}

func TestAuthorizer_AuthorizeMapsDecision(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := NewMockMembershipStoreInterface(ctrl)
	monitor := NewMockMonitorInterface(ctrl)
	store.EXPECT().FindMembership(gomock.Any(), "u1", "w1").Return(membership("u1", types.RoleMember, types.ActiveState()), nil)
	monitor.EXPECT().IncAuthorizationDecision(gomock.Any()).Return(nil)

	a := NewAuthorizer(store, tracing.NewNoopTracer(), monitor, logging.NewNoopLogger())

	if err := a.Authorize(context.Background(), "u1", "w1", types.RoleAdmin); !errors.Is(err, types.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthorizer_FilterActiveMembers(t *testing.T) {
	removedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := NewMockMembershipStoreInterface(ctrl)
	monitor := NewMockMonitorInterface(ctrl)
	store.EXPECT().ListMembersByWorkspaceID(gomock.Any(), "w1").Return([]*types.Membership{
		membership("alice", types.RoleOwner, types.ActiveState()),
		membership("bob", types.RoleMember, types.RemovedState(removedAt)),
		membership("carol", types.RoleMember, types.ActiveState()),
	}, nil)

	a := NewAuthorizer(store, tracing.NewNoopTracer(), monitor, logging.NewNoopLogger())

	got, err := a.FilterActiveMembers(context.Background(), "w1", []string{"carol", "bob", "mallory", "alice", "carol"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"carol", "alice"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestAuthorizer_FilterActiveMembersEmptyInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	a := NewAuthorizer(NewMockMembershipStoreInterface(ctrl), tracing.NewNoopTracer(), NewMockMonitorInterface(ctrl), logging.NewNoopLogger())

	got, err := a.FilterActiveMembers(context.Background(), "w1", nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v, %v", got, err)
	}
}
