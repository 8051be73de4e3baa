// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invites

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
)

func setupRouter(service ServiceInterface) *chi.Mux {
	mux := chi.NewMux()
	NewAPI(service, tracing.NewNoopTracer(), logging.NewNoopLogger()).RegisterEndpoints(mux)
	return mux
}

func TestAPI_Endpoints(t *testing.T) {
	bob := types.Identity{ID: "u2", Email: "bob@example.com"}

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		identity       *types.Identity
		setup          func(*MockServiceInterface)
		expectedStatus int
	}{
		{
			name:           "create requires identity",
			method:         http.MethodPost,
			path:           "/api/v0/workspaces/w1/invites",
			body:           `{"contact":"bob@example.com","role":"member"}`,
			setup:          func(s *MockServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:     "create",
			method:   http.MethodPost,
			path:     "/api/v0/workspaces/w1/invites",
			body:     `{"contact":"bob@example.com","role":"admin"}`,
			identity: &types.Identity{ID: "u1"},
			setup: func(s *MockServiceInterface) {
				s.EXPECT().Create(gomock.Any(), "u1", "w1", "bob@example.com", types.RoleAdmin).Return(&types.Invite{ID: "i1"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "create rejects unknown role",
			method:         http.MethodPost,
			path:           "/api/v0/workspaces/w1/invites",
			body:           `{"contact":"bob@example.com","role":"root"}`,
			identity:       &types.Identity{ID: "u1"},
			setup:          func(s *MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "create rejects malformed body",
			method:         http.MethodPost,
			path:           "/api/v0/workspaces/w1/invites",
			body:           `{`,
			identity:       &types.Identity{ID: "u1"},
			setup:          func(s *MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:     "create conflict",
			method:   http.MethodPost,
			path:     "/api/v0/workspaces/w1/invites",
			body:     `{"contact":"bob@example.com","role":"member"}`,
			identity: &types.Identity{ID: "u1"},
			setup: func(s *MockServiceInterface) {
				s.EXPECT().Create(gomock.Any(), "u1", "w1", "bob@example.com", types.RoleMember).Return(nil, types.ErrConflict)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:     "list",
			method:   http.MethodGet,
			path:     "/api/v0/workspaces/w1/invites",
			identity: &types.Identity{ID: "u1"},
			setup: func(s *MockServiceInterface) {
				s.EXPECT().List(gomock.Any(), "u1", "w1").Return([]*types.Invite{{ID: "i1"}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:     "cancel",
			method:   http.MethodDelete,
			path:     "/api/v0/workspaces/w1/invites/i1",
			identity: &types.Identity{ID: "u1"},
			setup: func(s *MockServiceInterface) {
				s.EXPECT().Cancel(gomock.Any(), "u1", "w1", "i1").Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:     "cancel forbidden",
			method:   http.MethodDelete,
			path:     "/api/v0/workspaces/w1/invites/i1",
			identity: &types.Identity{ID: "u1"},
			setup: func(s *MockServiceInterface) {
				s.EXPECT().Cancel(gomock.Any(), "u1", "w1", "i1").Return(types.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:     "accept",
			method:   http.MethodPost,
			path:     "/api/v0/invites/i1/accept",
			identity: &bob,
			setup: func(s *MockServiceInterface) {
				s.EXPECT().Accept(gomock.Any(), bob, "i1").Return(&types.Membership{WorkspaceID: "w1", Role: types.RoleMember}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:     "accept expired",
			method:   http.MethodPost,
			path:     "/api/v0/invites/i1/accept",
			identity: &bob,
			setup: func(s *MockServiceInterface) {
				s.EXPECT().Accept(gomock.Any(), bob, "i1").Return(nil, types.ErrExpired)
			},
			expectedStatus: http.StatusGone,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s := NewMockServiceInterface(ctrl)
			test.setup(s)

			req := httptest.NewRequest(test.method, test.path, strings.NewReader(test.body))
			if test.identity != nil {
				req = req.WithContext(authentication.WithIdentity(req.Context(), *test.identity))
			}

			rr := httptest.NewRecorder()
			setupRouter(s).ServeHTTP(rr, req)

			if rr.Code != test.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", test.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestAPI_AcceptResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := NewMockServiceInterface(ctrl)
	s.EXPECT().Accept(gomock.Any(), gomock.Any(), "i1").Return(&types.Membership{WorkspaceID: "w1", Role: types.RoleAdmin}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v0/invites/i1/accept", nil)
	req = req.WithContext(authentication.WithIdentity(req.Context(), types.Identity{ID: "u2"}))

	rr := httptest.NewRecorder()
	setupRouter(s).ServeHTTP(rr, req)

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["workspace_id"] != "w1" || body["role"] != "admin" {
		t.Errorf("unexpected body %v", body)
	}
}
