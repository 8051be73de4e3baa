// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package workspaces

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/identity"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
)

func newBindMiddleware(b BinderInterface) *Middleware {
	logger := logging.NewNoopLogger()
	return NewMiddleware(b, "workspace_id", tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
}

func authenticated(r *http.Request, userID string) *http.Request {
	return r.WithContext(authentication.WithIdentity(r.Context(), types.Identity{ID: userID}))
}

func TestMiddleware_Bind(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		header         string
		cookie         string
		setup          func(*MockBinderInterface)
		expectedWS     string
		expectedStatus int
		expectCookie   string
	}{
		{
			name:           "anonymous request is not bound",
			setup:          func(b *MockBinderInterface) {},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "header override",
			userID: "u1",
			header: "w2",
			setup: func(b *MockBinderInterface) {
				b.EXPECT().Bind(gomock.Any(), "u1", "w2").Return("w2", nil)
			},
			expectedWS:     "w2",
			expectedStatus: http.StatusOK,
		},
		{
			name:   "stale cookie is replaced",
			userID: "u1",
			cookie: "w-removed",
			setup: func(b *MockBinderInterface) {
				b.EXPECT().Bind(gomock.Any(), "u1", "w-removed").Return("w1", nil)
			},
			expectedWS:     "w1",
			expectedStatus: http.StatusOK,
			expectCookie:   "w1",
		},
		{
			name:   "no workspace passes through unbound",
			userID: "u1",
			setup: func(b *MockBinderInterface) {
				b.EXPECT().Bind(gomock.Any(), "u1", "").Return("", types.ErrNoWorkspace)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "store failure",
			userID: "u1",
			setup: func(b *MockBinderInterface) {
				b.EXPECT().Bind(gomock.Any(), "u1", "").Return("", errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			b := NewMockBinderInterface(ctrl)
			test.setup(b)

			var bound, forwarded string
			handler := newBindMiddleware(b).Bind()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				bound, _ = GetWorkspaceID(r.Context())
				forwarded = r.Header.Get(identity.WorkspaceHeaderName)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v0/workspaces", nil)
			if test.userID != "" {
				req = authenticated(req, test.userID)
			}
			if test.header != "" {
				req.Header.Set(WorkspaceHeader, test.header)
			}
			if test.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "workspace_id", Value: test.cookie})
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != test.expectedStatus {
				t.Fatalf("expected status %d, got %d", test.expectedStatus, rr.Code)
			}
			if bound != test.expectedWS {
				t.Errorf("expected workspace %q, got %q", test.expectedWS, bound)
			}
			if forwarded != test.expectedWS {
				t.Errorf("expected forwarded workspace header %q, got %q", test.expectedWS, forwarded)
			}
			for _, h := range []string{identity.HeaderName, identity.WorkspaceHeaderName} {
				if v := rr.Header().Get(h); v != "" {
					t.Errorf("response must not carry %s, got %q", h, v)
				}
			}

			var setCookie string
			for _, c := range rr.Result().Cookies() {
				if c.Name == "workspace_id" {
					setCookie = c.Value
				}
			}
			if setCookie != test.expectCookie {
				t.Errorf("expected cookie %q, got %q", test.expectCookie, setCookie)
			}
		})
	}
}
