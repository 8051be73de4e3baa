// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package workspaces

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
)

func setupRouter(service ServiceInterface) *chi.Mux {
	mux := chi.NewMux()
	NewAPI(service, "workspace_id", tracing.NewNoopTracer(), logging.NewNoopLogger()).RegisterEndpoints(mux)
	return mux
}

func TestAPI_Session(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mux := setupRouter(NewMockServiceInterface(ctrl))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v0/session", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous session, got %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "null" {
		t.Errorf("expected null body, got %q", rr.Body.String())
	}

	req := authenticated(httptest.NewRequest(http.MethodGet, "/api/v0/session", nil), "u1")
	req = req.WithContext(WithWorkspaceID(req.Context(), "w1"))
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	var body SessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Identity.ID != "u1" || body.WorkspaceID != "w1" {
		t.Errorf("unexpected session %+v", body)
	}
}

func TestAPI_ListWorkspaces(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		setup          func(*MockServiceInterface)
		expectedStatus int
	}{
		{
			name:           "unauthenticated",
			setup:          func(s *MockServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "lists active workspaces",
			userID: "u1",
			setup: func(s *MockServiceInterface) {
				s.EXPECT().ListActiveWorkspaces(gomock.Any(), "u1").Return([]*types.Workspace{{ID: "w1", Name: "Acme"}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s := NewMockServiceInterface(ctrl)
			test.setup(s)

			req := httptest.NewRequest(http.MethodGet, "/api/v0/workspaces", nil)
			if test.userID != "" {
				req = authenticated(req, test.userID)
				req = req.WithContext(WithWorkspaceID(req.Context(), "w1"))
			}

			rr := httptest.NewRecorder()
			setupRouter(s).ServeHTTP(rr, req)

			if rr.Code != test.expectedStatus {
				t.Fatalf("expected status %d, got %d", test.expectedStatus, rr.Code)
			}

			if test.expectedStatus == http.StatusOK {
				var body WorkspacesResponse
				if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
					t.Fatalf("invalid body: %v", err)
				}
				if len(body.Workspaces) != 1 || body.CurrentWorkspaceID != "w1" {
					t.Errorf("unexpected body %+v", body)
				}
			}
		})
	}
}

func TestAPI_CreateWorkspace(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setup          func(*MockServiceInterface)
		expectedStatus int
	}{
		{
			name: "created",
			body: `{"name":"Acme"}`,
			setup: func(s *MockServiceInterface) {
				s.EXPECT().CreateWorkspace(gomock.Any(), "u1", "Acme").Return(&types.Workspace{ID: "w1", Name: "Acme"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing name",
			body:           `{}`,
			setup:          func(s *MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			body:           `{`,
			setup:          func(s *MockServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s := NewMockServiceInterface(ctrl)
			test.setup(s)

			req := authenticated(httptest.NewRequest(http.MethodPost, "/api/v0/workspaces", strings.NewReader(test.body)), "u1")
			rr := httptest.NewRecorder()
			setupRouter(s).ServeHTTP(rr, req)

			if rr.Code != test.expectedStatus {
				t.Errorf("expected status %d, got %d", test.expectedStatus, rr.Code)
			}
		})
	}
}

func TestAPI_SelectWorkspace(t *testing.T) {
	tests := []struct {
		name           string
		setup          func(*MockServiceInterface)
		expectedStatus int
		expectCookie   bool
	}{
		{
			name: "selects an active workspace",
			setup: func(s *MockServiceInterface) {
				s.EXPECT().SelectWorkspace(gomock.Any(), "u1", "w2").Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectCookie:   true,
		},
		{
			name: "refuses a workspace the user cannot access",
			setup: func(s *MockServiceInterface) {
				s.EXPECT().SelectWorkspace(gomock.Any(), "u1", "w2").Return(types.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s := NewMockServiceInterface(ctrl)
			test.setup(s)

			req := authenticated(httptest.NewRequest(http.MethodPut, "/api/v0/workspaces/current", strings.NewReader(`{"workspace_id":"w2"}`)), "u1")
			rr := httptest.NewRecorder()
			setupRouter(s).ServeHTTP(rr, req)

			if rr.Code != test.expectedStatus {
				t.Fatalf("expected status %d, got %d", test.expectedStatus, rr.Code)
			}

			found := false
			for _, c := range rr.Result().Cookies() {
				if c.Name == "workspace_id" && c.Value == "w2" {
					found = true
				}
			}
			if found != test.expectCookie {
				t.Errorf("expected cookie %v, got %v", test.expectCookie, found)
			}
		})
	}
}
