// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package members

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
)

type MembersResponse struct {
	Members []*types.Member `json:"members"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=member admin owner"`
}

type RecipientsRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,max=500,dive,required"`
}

type RecipientsResponse struct {
	UserIDs []string `json:"user_ids"`
}

type API struct {
	service   ServiceInterface
	validator *validator.Validate

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/workspaces/{workspaceID}/members", a.listMembers)
	mux.Delete("/api/v0/workspaces/{workspaceID}/members/{userID}", a.removeMember)
	mux.Patch("/api/v0/workspaces/{workspaceID}/members/{userID}", a.updateRole)
	mux.Post("/api/v0/workspaces/{workspaceID}/mentions/recipients", a.mentionRecipients)
}

func (a *API) listMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "members.API.listMembers")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		httptypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	includeRemoved, _ := strconv.ParseBool(r.URL.Query().Get("include_removed"))

	members, err := a.service.List(ctx, userID, chi.URLParam(r, "workspaceID"), includeRemoved)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, MembersResponse{Members: members}, a.logger)
}

func (a *API) removeMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "members.API.removeMember")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		httptypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	if err := a.service.Remove(ctx, userID, chi.URLParam(r, "workspaceID"), chi.URLParam(r, "userID")); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) updateRole(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "members.API.updateRole")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		httptypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	var req UpdateRoleRequest
	if err := a.decode(r, &req); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	role, err := types.ParseRole(req.Role)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	if err := a.service.UpdateRole(ctx, userID, chi.URLParam(r, "workspaceID"), chi.URLParam(r, "userID"), role); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) mentionRecipients(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "members.API.mentionRecipients")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		httptypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	var req RecipientsRequest
	if err := a.decode(r, &req); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	ids, err := a.service.MentionRecipients(ctx, userID, chi.URLParam(r, "workspaceID"), req.UserIDs)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, RecipientsResponse{UserIDs: ids}, a.logger)
}

func (a *API) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", types.ErrInvalidArgument)
	}

	if err := a.validator.Struct(v); err != nil {
		return fmt.Errorf("%v: %w", err, types.ErrInvalidArgument)
	}

	return nil
}

func NewAPI(service ServiceInterface, tracer tracing.TracingInterface, logger logging.LoggerInterface) *API {
	return &API{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		tracer:    tracer,
		logger:    logger,
	}
}
