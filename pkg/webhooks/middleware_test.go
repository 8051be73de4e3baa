// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"
)

func TestMiddleware_Authorize(t *testing.T) {
	tests := []struct {
		name     string
		apiKey   string
		header   string
		expected int
	}{
		{name: "raw api key", apiKey: "s3cret", header: "s3cret", expected: http.StatusOK},
		{name: "bearer api key", apiKey: "s3cret", header: "Bearer s3cret", expected: http.StatusOK},
		{name: "missing header", apiKey: "s3cret", expected: http.StatusUnauthorized},
		{name: "wrong key", apiKey: "s3cret", header: "Bearer guess", expected: http.StatusUnauthorized},
		{name: "key prefix is not enough", apiKey: "s3cret", header: "s3c", expected: http.StatusUnauthorized},
		{name: "unset key rejects everything", apiKey: "", header: "", expected: http.StatusUnauthorized},
		{name: "unset key rejects empty bearer", apiKey: "", header: "Bearer ", expected: http.StatusUnauthorized},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			logger := NewMockLoggerInterface(ctrl)
			security := NewMockSecurityLoggerInterface(ctrl)

			if test.apiKey == "" {
				logger.EXPECT().Warn(gomock.Any()).Times(1)
			}
			if test.expected == http.StatusUnauthorized {
				logger.EXPECT().Security().Return(security).Times(1)
				security.EXPECT().AuthnFailure("webhook_api_key_invalid").Times(1)
			}

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/webhooks/token", nil)
			if test.header != "" {
				req.Header.Set("Authorization", test.header)
			}

			rr := httptest.NewRecorder()
			NewMiddleware(test.apiKey, logger).Authorize()(next).ServeHTTP(rr, req)

			if rr.Code != test.expected {
				t.Fatalf("expected %d, got %d", test.expected, rr.Code)
			}
			if called != (test.expected == http.StatusOK) {
				t.Errorf("unexpected downstream call: %v", called)
			}
		})
	}
}
