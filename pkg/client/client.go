// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

// Package client talks to the workspace-service HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
	"github.com/canonical/workspace-service/pkg/invites"
	"github.com/canonical/workspace-service/pkg/members"
	"github.com/canonical/workspace-service/pkg/workspaces"
)

// APIError carries the JSON error body returned by the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

type Option func(*Client)

// WithSessionToken authenticates every request with the given session token.
func WithSessionToken(token string) Option {
	return func(c *Client) {
		c.sessionToken = token
	}
}

// WithWorkspace asks the service to bind requests to the given workspace.
func WithWorkspace(workspaceID string) Option {
	return func(c *Client) {
		c.workspaceID = workspaceID
	}
}

// WithTokenSource sends a bearer token from ts with every request, as needed
// by services validating OIDC access tokens.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

type Client struct {
	endpoint     string
	sessionToken string
	workspaceID  string
	tokens       oauth2.TokenSource

	http *http.Client
}

func (c *Client) Session(ctx context.Context) (*workspaces.SessionResponse, error) {
	var out *workspaces.SessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/v0/session", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListWorkspaces(ctx context.Context) (*workspaces.WorkspacesResponse, error) {
	out := new(workspaces.WorkspacesResponse)
	if err := c.do(ctx, http.MethodGet, "/api/v0/workspaces", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateWorkspace(ctx context.Context, name string) (*types.Workspace, error) {
	out := new(types.Workspace)
	in := workspaces.CreateWorkspaceRequest{Name: name}
	if err := c.do(ctx, http.MethodPost, "/api/v0/workspaces", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SelectWorkspace(ctx context.Context, workspaceID string) error {
	in := workspaces.SelectWorkspaceRequest{WorkspaceID: workspaceID}
	return c.do(ctx, http.MethodPut, "/api/v0/workspaces/current", in, nil)
}

func (c *Client) CreateInvite(ctx context.Context, workspaceID, contact, role string) (*types.Invite, error) {
	out := new(types.Invite)
	in := invites.CreateInviteRequest{Contact: contact, Role: role}
	if err := c.do(ctx, http.MethodPost, workspacePath(workspaceID, "invites"), in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListInvites(ctx context.Context, workspaceID string) ([]*types.Invite, error) {
	out := new(invites.InvitesResponse)
	if err := c.do(ctx, http.MethodGet, workspacePath(workspaceID, "invites"), nil, out); err != nil {
		return nil, err
	}
	return out.Invites, nil
}

func (c *Client) CancelInvite(ctx context.Context, workspaceID, inviteID string) error {
	return c.do(ctx, http.MethodDelete, workspacePath(workspaceID, "invites", inviteID), nil, nil)
}

func (c *Client) AcceptInvite(ctx context.Context, inviteID string) (*invites.AcceptResponse, error) {
	out := new(invites.AcceptResponse)
	if err := c.do(ctx, http.MethodPost, "/api/v0/invites/"+url.PathEscape(inviteID)+"/accept", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListMembers(ctx context.Context, workspaceID string, includeRemoved bool) ([]*types.Member, error) {
	path := workspacePath(workspaceID, "members")
	if includeRemoved {
		path += "?include_removed=true"
	}

	out := new(members.MembersResponse)
	if err := c.do(ctx, http.MethodGet, path, nil, out); err != nil {
		return nil, err
	}
	return out.Members, nil
}

func (c *Client) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	return c.do(ctx, http.MethodDelete, workspacePath(workspaceID, "members", userID), nil, nil)
}

func (c *Client) UpdateMemberRole(ctx context.Context, workspaceID, userID, role string) error {
	in := members.UpdateRoleRequest{Role: role}
	return c.do(ctx, http.MethodPatch, workspacePath(workspaceID, "members", userID), in, nil)
}

func (c *Client) MentionRecipients(ctx context.Context, workspaceID string, userIDs []string) ([]string, error) {
	out := new(members.RecipientsResponse)
	in := members.RecipientsRequest{UserIDs: userIDs}
	if err := c.do(ctx, http.MethodPost, workspacePath(workspaceID, "mentions", "recipients"), in, out); err != nil {
		return nil, err
	}
	return out.UserIDs, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessionToken != "" {
		req.Header.Set(authentication.SessionTokenHeader, c.sessionToken)
	}
	if c.workspaceID != "" {
		req.Header.Set(workspaces.WorkspaceHeader, c.workspaceID)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("failed to get access token: %w", err)
		}
		token.SetAuthHeader(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

		var e httptypes.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Message != "" {
			apiErr.Message = e.Message
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func workspacePath(workspaceID string, parts ...string) string {
	segments := []string{"/api/v0/workspaces", url.PathEscape(workspaceID)}
	for _, p := range parts {
		segments = append(segments, url.PathEscape(p))
	}
	return strings.Join(segments, "/")
}

func NewClient(endpoint string, opts ...Option) *Client {
	if !strings.HasPrefix(endpoint, "http") {
		endpoint = "http://" + endpoint
	}

	c := &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}
