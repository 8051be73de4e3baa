// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

func newMiddleware(r ResolverInterface) *Middleware {
	logger := logging.NewNoopLogger()
	return NewMiddleware(r, "ory_kratos_session", tracing.NewNoopTracer(), monitoring.NewNoopMonitor("test", logger), logger)
}

func TestMiddleware_Authenticate(t *testing.T) {
	tests := []struct {
		name       string
		prepare    func(*http.Request)
		setupMocks func(*MockResolverInterface)
		expectedID string
	}{
		{
			name:       "no credential passes through anonymous",
			prepare:    func(r *http.Request) {},
			setupMocks: func(m *MockResolverInterface) {},
		},
		{
			name: "session cookie resolves",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "ory_kratos_session", Value: "abc"})
			},
			setupMocks: func(m *MockResolverInterface) {
				m.EXPECT().Resolve(gomock.Any(), types.Credential{Value: "abc", Source: types.CredentialCookie}).
					Return(&types.Identity{ID: "user-123"}, nil)
			},
			expectedID: "user-123",
		},
		{
			name: "bearer token resolves",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer valid-token")
			},
			setupMocks: func(m *MockResolverInterface) {
				m.EXPECT().Resolve(gomock.Any(), types.Credential{Value: "valid-token", Source: types.CredentialToken}).
					Return(&types.Identity{ID: "user-456"}, nil)
			},
			expectedID: "user-456",
		},
		{
			name: "rejected credential stays anonymous",
			prepare: func(r *http.Request) {
				r.Header.Set("X-Session-Token", "stale")
			},
			setupMocks: func(m *MockResolverInterface) {
				m.EXPECT().Resolve(gomock.Any(), types.Credential{Value: "stale", Source: types.CredentialToken}).
					Return(nil, types.ErrUnauthenticated)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			resolver := NewMockResolverInterface(ctrl)
			tt.setupMocks(resolver)

			var gotID string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v0/workspaces", nil)
			tt.prepare(req)
			rr := httptest.NewRecorder()

			newMiddleware(resolver).Authenticate()(handler).ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
			}
			if gotID != tt.expectedID {
				t.Errorf("expected user %q, got %q", tt.expectedID, gotID)
			}
		})
	}
}

func TestMiddleware_RequireIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := newMiddleware(NewMockResolverInterface(ctrl))
	handler := m.RequireIdentity()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["message"] != "unauthenticated" {
		t.Errorf("unexpected message %v", body["message"])
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), types.Identity{ID: "u1"}))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestCredentialFromRequest(t *testing.T) {
	tests := []struct {
		name          string
		authHeader    string
		tokenHeader   string
		cookie        string
		expected      types.Credential
		expectedFound bool
	}{
		{
			name:          "nothing",
			expectedFound: false,
		},
		{
			name:          "bearer token",
			authHeader:    "Bearer my-token-123",
			expected:      types.Credential{Value: "my-token-123", Source: types.CredentialToken},
			expectedFound: true,
		},
		{
			name:          "raw authorization without Bearer prefix is ignored",
			authHeader:    "my-token-123",
			expectedFound: false,
		},
		{
			name:          "session token header",
			tokenHeader:   "tok",
			expected:      types.Credential{Value: "tok", Source: types.CredentialToken},
			expectedFound: true,
		},
		{
			name:          "cookie",
			cookie:        "abc",
			expected:      types.Credential{Value: "abc", Source: types.CredentialCookie},
			expectedFound: true,
		},
		{
			name:          "bearer wins over cookie",
			authHeader:    "Bearer t1",
			cookie:        "abc",
			expected:      types.Credential{Value: "t1", Source: types.CredentialToken},
			expectedFound: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if test.authHeader != "" {
				req.Header.Set("Authorization", test.authHeader)
			}
			if test.tokenHeader != "" {
				req.Header.Set(SessionTokenHeader, test.tokenHeader)
			}
			if test.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "ory_kratos_session", Value: test.cookie})
			}

			cred, found := CredentialFromRequest(req, "ory_kratos_session")

			if found != test.expectedFound {
				t.Errorf("expected found %v, got %v", test.expectedFound, found)
			}
			if cred != test.expected {
				t.Errorf("expected %+v, got %+v", test.expected, cred)
			}
		})
	}
}
