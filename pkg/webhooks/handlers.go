// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ory/hydra/v2/oauth2"

	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/types"
)

type API struct {
	service ServiceInterface
	logger  logging.LoggerInterface
}

func NewAPI(service ServiceInterface, logger logging.LoggerInterface) *API {
	return &API{
		service: service,
		logger:  logger,
	}
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Post("/webhooks/registration", a.registration)
	mux.Post("/webhooks/token", a.tokenHook)
}

func (a *API) registration(w http.ResponseWriter, r *http.Request) {
	var identity KratosIdentity
	if !a.decode(w, r, &identity) {
		return
	}

	if err := a.service.HandleRegistration(r.Context(), identity.ID, identity.Traits.Email); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (a *API) tokenHook(w http.ResponseWriter, r *http.Request) {
	req := new(oauth2.TokenHookRequest)
	if !a.decode(w, r, req) {
		return
	}

	resp, err := a.service.HandleTokenHook(r.Context(), req)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, resp, a.logger)
}

// decode answers 400 itself when the hook body is unusable.
func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.logger.Errorf("malformed %s payload: %v", r.URL.Path, err)
		httptypes.WriteError(w, types.ErrInvalidArgument, a.logger)
		return false
	}

	return true
}
