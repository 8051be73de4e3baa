// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invites

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
)

type CreateInviteRequest struct {
	Contact string `json:"contact" validate:"required,email"`
	Role    string `json:"role" validate:"required,oneof=member admin owner"`
}

type InvitesResponse struct {
	Invites []*types.Invite `json:"invites"`
}

type AcceptResponse struct {
	WorkspaceID string     `json:"workspace_id"`
	Role        types.Role `json:"role"`
}

type API struct {
	service   ServiceInterface
	validator *validator.Validate

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Post("/api/v0/workspaces/{workspaceID}/invites", a.createInvite)
	mux.Get("/api/v0/workspaces/{workspaceID}/invites", a.listInvites)
	mux.Delete("/api/v0/workspaces/{workspaceID}/invites/{inviteID}", a.cancelInvite)
	mux.Post("/api/v0/invites/{inviteID}/accept", a.acceptInvite)
}

func (a *API) createInvite(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invites.API.createInvite")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		httptypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	var req CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httptypes.WriteError(w, fmt.Errorf("invalid request body: %w", types.ErrInvalidArgument), a.logger)
		return
	}

	if err := a.validator.Struct(req); err != nil {
		httptypes.WriteError(w, fmt.Errorf("%v: %w", err, types.ErrInvalidArgument), a.logger)
		return
	}

	role, err := types.ParseRole(req.Role)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	invite, err := a.service.Create(ctx, userID, chi.URLParam(r, "workspaceID"), req.Contact, role)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusCreated, invite, a.logger)
}

func (a *API) listInvites(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invites.API.listInvites")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		httptypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	invites, err := a.service.List(ctx, userID, chi.URLParam(r, "workspaceID"))
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, InvitesResponse{Invites: invites}, a.logger)
}

func (a *API) cancelInvite(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invites.API.cancelInvite")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		httptypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	err := a.service.Cancel(ctx, userID, chi.URLParam(r, "workspaceID"), chi.URLParam(r, "inviteID"))
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) acceptInvite(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "invites.API.acceptInvite")
	defer span.End()

	identity, ok := authentication.GetIdentity(ctx)
	if !ok {
		httptypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	m, err := a.service.Accept(ctx, identity, chi.URLParam(r, "inviteID"))
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, AcceptResponse{WorkspaceID: m.WorkspaceID, Role: m.Role}, a.logger)
}

func NewAPI(service ServiceInterface, tracer tracing.TracingInterface, logger logging.LoggerInterface) *API {
	return &API{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		tracer:    tracer,
		logger:    logger,
	}
}
