// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package workspaces

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

func newService(s StorageInterface, a AuthorizerInterface, tx TxRunnerInterface) *Service {
	logger := logging.NewNoopLogger()
	return NewService(s, a, tx, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
}

func passthroughTx(tx *MockTxRunnerInterface) {
	tx.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
}

func TestService_CreateWorkspace(t *testing.T) {
	tests := []struct {
		name      string
		wsName    string
		setup     func(*MockStorageInterface, *MockTxRunnerInterface)
		expectErr error
	}{
		{
			name:   "creates workspace with owner membership",
			wsName: "  Acme  ",
			setup: func(s *MockStorageInterface, tx *MockTxRunnerInterface) {
				passthroughTx(tx)
				s.EXPECT().CreateWorkspace(gomock.Any(), "Acme").Return(&types.Workspace{ID: "w1", Name: "Acme"}, nil)
				s.EXPECT().UpsertMembership(gomock.Any(), "u1", "w1", types.RoleOwner).Return(&types.Membership{}, nil)
			},
		},
		{
			name:      "blank name",
			wsName:    "   ",
			setup:     func(s *MockStorageInterface, tx *MockTxRunnerInterface) {},
			expectErr: types.ErrInvalidArgument,
		},
		{
			name:   "membership failure fails the whole transaction",
			wsName: "Acme",
			setup: func(s *MockStorageInterface, tx *MockTxRunnerInterface) {
				passthroughTx(tx)
				s.EXPECT().CreateWorkspace(gomock.Any(), "Acme").Return(&types.Workspace{ID: "w1", Name: "Acme"}, nil)
				s.EXPECT().UpsertMembership(gomock.Any(), "u1", "w1", types.RoleOwner).Return(nil, errors.New("boom"))
			},
			expectErr: errors.New("any"),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s := NewMockStorageInterface(ctrl)
			tx := NewMockTxRunnerInterface(ctrl)
			test.setup(s, tx)

			ws, err := newService(s, NewMockAuthorizerInterface(ctrl), tx).CreateWorkspace(context.Background(), "u1", test.wsName)

			if test.expectErr != nil {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if errors.Is(test.expectErr, types.ErrInvalidArgument) && !errors.Is(err, types.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ws.ID != "w1" {
				t.Errorf("expected workspace w1, got %+v", ws)
			}
		})
	}
}

func TestService_SelectWorkspace(t *testing.T) {
	tests := []struct {
		name      string
		access    types.Access
		expectErr error
	}{
		{name: "active member", access: types.Access{Exists: true, Active: true, Role: types.RoleMember}},
		{name: "removed member", access: types.Access{Exists: true, Active: false, Role: types.RoleAdmin}, expectErr: types.ErrForbidden},
		{name: "stranger", access: types.Access{}, expectErr: types.ErrForbidden},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			a := NewMockAuthorizerInterface(ctrl)
			a.EXPECT().CheckAccess(gomock.Any(), "u1", "w1").Return(test.access, nil)

			err := newService(NewMockStorageInterface(ctrl), a, NewMockTxRunnerInterface(ctrl)).SelectWorkspace(context.Background(), "u1", "w1")

			if !errors.Is(err, test.expectErr) {
				t.Errorf("expected %v, got %v", test.expectErr, err)
			}
		})
	}
}

func TestService_ListActiveWorkspacesNeverNil(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := NewMockStorageInterface(ctrl)
	s.EXPECT().ListActiveWorkspacesByUserID(gomock.Any(), "u1").Return(nil, nil)

	ws, err := newService(s, NewMockAuthorizerInterface(ctrl), NewMockTxRunnerInterface(ctrl)).ListActiveWorkspaces(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ws == nil || len(ws) != 0 {
		t.Errorf("expected empty slice, got %v", ws)
	}
}
