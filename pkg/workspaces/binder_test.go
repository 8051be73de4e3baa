// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package workspaces

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package workspaces -destination ./mock_interfaces.go -source=./interfaces.go

func newBinder(s StorageInterface, a AuthorizerInterface) *Binder {
	logger := logging.NewNoopLogger()
	return NewBinder(s, a, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
}

func membershipIn(workspaceID string, state types.MembershipState) *types.Membership {
	return &types.Membership{UserID: "u1", WorkspaceID: workspaceID, Role: types.RoleMember, State: state}
}

func TestBinder_Bind(t *testing.T) {
	removed := types.RemovedState(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name      string
		explicit  string
		setup     func(*MockStorageInterface, *MockAuthorizerInterface)
		expected  string
		expectErr error
	}{
		{
			name:     "explicit active workspace is honored",
			explicit: "w2",
			setup: func(s *MockStorageInterface, a *MockAuthorizerInterface) {
				a.EXPECT().CheckAccess(gomock.Any(), "u1", "w2").Return(types.Access{Exists: true, Active: true, Role: types.RoleMember}, nil)
			},
			expected: "w2",
		},
		{
			name:     "explicit removed workspace falls back to default",
			explicit: "w2",
			setup: func(s *MockStorageInterface, a *MockAuthorizerInterface) {
				a.EXPECT().CheckAccess(gomock.Any(), "u1", "w2").Return(types.Access{Exists: true, Active: false, Role: types.RoleOwner}, nil)
				s.EXPECT().ListMembershipsByUserID(gomock.Any(), "u1").Return([]*types.Membership{
					membershipIn("w2", removed),
					membershipIn("w1", types.ActiveState()),
				}, nil)
			},
			expected: "w1",
		},
		{
			name:     "explicit foreign workspace falls back to default",
			explicit: "w9",
			setup: func(s *MockStorageInterface, a *MockAuthorizerInterface) {
				a.EXPECT().CheckAccess(gomock.Any(), "u1", "w9").Return(types.Access{}, nil)
				s.EXPECT().ListMembershipsByUserID(gomock.Any(), "u1").Return([]*types.Membership{
					membershipIn("w1", types.ActiveState()),
				}, nil)
			},
			expected: "w1",
		},
		{
			name: "default is the earliest active membership",
			setup: func(s *MockStorageInterface, a *MockAuthorizerInterface) {
				s.EXPECT().ListMembershipsByUserID(gomock.Any(), "u1").Return([]*types.Membership{
					membershipIn("w0", removed),
					membershipIn("w3", types.ActiveState()),
					membershipIn("w1", types.ActiveState()),
				}, nil)
			},
			expected: "w3",
		},
		{
			name:     "only removed memberships",
			explicit: "w2",
			setup: func(s *MockStorageInterface, a *MockAuthorizerInterface) {
				a.EXPECT().CheckAccess(gomock.Any(), "u1", "w2").Return(types.Access{Exists: true}, nil)
				s.EXPECT().ListMembershipsByUserID(gomock.Any(), "u1").Return([]*types.Membership{
					membershipIn("w2", removed),
				}, nil)
			},
			expectErr: types.ErrNoWorkspace,
		},
		{
			name: "no memberships",
			setup: func(s *MockStorageInterface, a *MockAuthorizerInterface) {
				s.EXPECT().ListMembershipsByUserID(gomock.Any(), "u1").Return(nil, nil)
			},
			expectErr: types.ErrNoWorkspace,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s := NewMockStorageInterface(ctrl)
			a := NewMockAuthorizerInterface(ctrl)
			test.setup(s, a)

			got, err := newBinder(s, a).Bind(context.Background(), "u1", test.explicit)

			if test.expectErr != nil {
				if !errors.Is(err, test.expectErr) {
					t.Fatalf("expected %v, got %v", test.expectErr, err)
				}
				if got != "" {
					t.Errorf("expected no workspace, got %q", got)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != test.expected {
				t.Errorf("expected %q, got %q", test.expected, got)
			}
		})
	}
}

func TestBinder_BindStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := NewMockStorageInterface(ctrl)
	a := NewMockAuthorizerInterface(ctrl)
	a.EXPECT().CheckAccess(gomock.Any(), "u1", "w2").Return(types.Access{}, errors.New("connection reset"))

	got, err := newBinder(s, a).Bind(context.Background(), "u1", "w2")
	if err == nil || errors.Is(err, types.ErrNoWorkspace) {
		t.Fatalf("expected store error, got %v", err)
	}
	if got != "" {
		t.Errorf("a failed check must not bind a workspace, got %q", got)
	}
}

func TestBinder_BindAnonymous(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := newBinder(NewMockStorageInterface(ctrl), NewMockAuthorizerInterface(ctrl)).Bind(context.Background(), "", "w1")
	if !errors.Is(err, types.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
