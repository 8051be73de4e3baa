// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

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

//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_interfaces.go -source=./interfaces.go

func newResolver(v CredentialValidatorInterface) *Resolver {
	logger := logging.NewNoopLogger()
	return NewResolver(v, tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
}

func TestResolver_Resolve(t *testing.T) {
	cookie := types.Credential{Value: "session-abc", Source: types.CredentialCookie}

	tests := []struct {
		name      string
		cred      types.Credential
		setup     func(*MockCredentialValidatorInterface)
		expected  *types.Identity
		expectErr bool
	}{
		{
			name: "valid session",
			cred: cookie,
			setup: func(v *MockCredentialValidatorInterface) {
				v.EXPECT().ValidateCredential(gomock.Any(), cookie).Return(&types.Identity{ID: "u1", Email: "a@x.com"}, nil)
			},
			expected: &types.Identity{ID: "u1", Email: "a@x.com"},
		},
		{
			name:      "missing credential",
			cred:      types.Credential{},
			setup:     func(v *MockCredentialValidatorInterface) {},
			expectErr: true,
		},
		{
			name: "expired session",
			cred: cookie,
			setup: func(v *MockCredentialValidatorInterface) {
				v.EXPECT().ValidateCredential(gomock.Any(), cookie).Return(nil, errors.New("session expired at 10:00"))
			},
			expectErr: true,
		},
		{
			name: "identity without id",
			cred: cookie,
			setup: func(v *MockCredentialValidatorInterface) {
				v.EXPECT().ValidateCredential(gomock.Any(), cookie).Return(&types.Identity{}, nil)
			},
			expectErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			validator := NewMockCredentialValidatorInterface(ctrl)
			test.setup(validator)

			identity, err := newResolver(validator).Resolve(context.Background(), test.cred)

			if test.expectErr {
				// the failure reason never leaks past the resolver
				if err != types.ErrUnauthenticated {
					t.Fatalf("expected bare ErrUnauthenticated, got %v", err)
				}
				if identity != nil {
					t.Errorf("expected no identity, got %+v", identity)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *identity != *test.expected {
				t.Errorf("expected %+v, got %+v", test.expected, identity)
			}
		})
	}
}

func TestNoopVerifier(t *testing.T) {
	v := NewNoopVerifier()

	identity, err := v.ValidateCredential(context.Background(), types.Credential{Value: "dev-user", Source: types.CredentialToken})
	if err != nil || identity.ID != "dev-user" {
		t.Fatalf("unexpected result %+v, %v", identity, err)
	}

	if _, err := v.ValidateCredential(context.Background(), types.Credential{}); err == nil {
		t.Error("expected error for empty credential")
	}
}
