// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/canonical/workspace-service/internal/logging"
)

// TransactionMiddleware runs each unsafe request in one transaction, rolled
// back when the handler answers with a client or server error.
func TransactionMiddleware(db DBClientInterface, logger logging.LoggerInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			err := db.WithTx(r.Context(), func(ctx context.Context) error {
				ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

				next.ServeHTTP(ww, r.WithContext(ctx))

				if status := ww.Status(); status >= http.StatusBadRequest {
					return fmt.Errorf("%s %s answered %d", r.Method, r.URL.Path, status)
				}

				return nil
			})

			// the response is already written, a failed commit can only be logged
			if err != nil {
				logger.Debugf("transaction not committed: %v", err)
			}
		})
	}
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}

	return false
}
