// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/types"
)

// ErrorResponse is the json body of every non 2xx answer.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// StatusFor maps an error to the HTTP status and the message the client sees.
// Messages are fixed strings, internal detail never crosses this boundary,
// the only exception being input validation errors.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden, "insufficient permission"
	case errors.Is(err, types.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, types.ErrNoWorkspace):
		return http.StatusNotFound, "no workspace"
	case errors.Is(err, types.ErrConflict), errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict, "conflict"
	case errors.Is(err, types.ErrExpired):
		return http.StatusGone, "invite expired"
	case errors.Is(err, types.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	}

	return http.StatusInternalServerError, "internal server error"
}

// WriteError writes the mapped error, logging anything that ends up as a 500.
func WriteError(w http.ResponseWriter, err error, logger logging.LoggerInterface) {
	status, message := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("request failed: %v", err)
	}

	WriteJSON(w, status, ErrorResponse{Status: status, Message: message}, logger)
}

func WriteJSON(w http.ResponseWriter, status int, body any, logger logging.LoggerInterface) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("failed to encode response: %v", err)
	}
}
