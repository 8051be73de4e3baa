// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package workspaces

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

type SessionResponse struct {
	Identity    types.Identity `json:"identity"`
	WorkspaceID string         `json:"workspace_id,omitempty"`
}

type WorkspacesResponse struct {
	Workspaces         []*types.Workspace `json:"workspaces"`
	CurrentWorkspaceID string             `json:"current_workspace_id,omitempty"`
}

type CreateWorkspaceRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type SelectWorkspaceRequest struct {
	WorkspaceID string `json:"workspace_id" validate:"required"`
}

type API struct {
	service    ServiceInterface
	cookieName string
	validator  *validator.Validate

	tracer tracing.TracingInterface
	logger logging.LoggerInterface
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v0/session", a.session)
	mux.Get("/api/v0/workspaces", a.listWorkspaces)
	mux.Post("/api/v0/workspaces", a.createWorkspace)
	mux.Put("/api/v0/workspaces/current", a.selectWorkspace)
}

// session never fails for anonymous callers, it answers null.
func (a *API) session(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		httptypes.WriteJSON(w, http.StatusOK, nil, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, SessionResponse{Identity: p.Identity, WorkspaceID: p.WorkspaceID}, a.logger)
}

func (a *API) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "workspaces.API.listWorkspaces")
	defer span.End()

	p, ok := PrincipalFromContext(ctx)
	if !ok {
		httptypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	ws, err := a.service.ListActiveWorkspaces(ctx, p.Identity.ID)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusOK, WorkspacesResponse{Workspaces: ws, CurrentWorkspaceID: p.WorkspaceID}, a.logger)
}

func (a *API) createWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "workspaces.API.createWorkspace")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		httptypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	var req CreateWorkspaceRequest
	if err := a.decode(r, &req); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	ws, err := a.service.CreateWorkspace(ctx, userID, req.Name)
	if err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	httptypes.WriteJSON(w, http.StatusCreated, ws, a.logger)
}

func (a *API) selectWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx, span := a.tracer.Start(r.Context(), "workspaces.API.selectWorkspace")
	defer span.End()

	userID, ok := authentication.GetUserID(ctx)
	if !ok {
		httptypes.WriteError(w, types.ErrUnauthenticated, a.logger)
		return
	}

	var req SelectWorkspaceRequest
	if err := a.decode(r, &req); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	if err := a.service.SelectWorkspace(ctx, userID, req.WorkspaceID); err != nil {
		httptypes.WriteError(w, err, a.logger)
		return
	}

	setWorkspaceCookie(w, r, a.cookieName, req.WorkspaceID)
	httptypes.WriteJSON(w, http.StatusOK, req, a.logger)
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

func NewAPI(service ServiceInterface, cookieName string, tracer tracing.TracingInterface, logger logging.LoggerInterface) *API {
	return &API{
		service:    service,
		cookieName: cookieName,
		validator:  validator.New(validator.WithRequiredStructEnabled()),
		tracer:     tracer,
		logger:     logger,
	}
}
