// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package kratos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	ory "github.com/ory/client-go"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
)

var (
	ErrInactiveSession = errors.New("session is not active")
	ErrNoIdentity      = errors.New("session carries no identity")
)

var _ ClientInterface = (*Client)(nil)

// Client talks to the public API for sessions and to the admin API for the
// identity directory.
type Client struct {
	public     *ory.APIClient
	admin      *ory.APIClient
	cookieName string

	now func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// ValidateCredential asks Kratos whether the credential maps to a live session.
func (c *Client) ValidateCredential(ctx context.Context, cred types.Credential) (*types.Identity, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.Client.ValidateCredential")
	defer span.End()

	req := c.public.FrontendAPI.ToSession(ctx)

	switch cred.Source {
	case types.CredentialCookie:
		req = req.Cookie(c.cookieName + "=" + cred.Value)
	case types.CredentialToken:
		req = req.XSessionToken(cred.Value)
	default:
		return nil, fmt.Errorf("unsupported credential source %d", cred.Source)
	}

	session, r, err := req.Execute()
	c.reportAvailability(r, err)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	if !session.GetActive() {
		return nil, ErrInactiveSession
	}

	if exp, ok := session.GetExpiresAtOk(); ok && exp != nil && !c.now().Before(*exp) {
		return nil, ErrInactiveSession
	}

	identity, ok := session.GetIdentityOk()
	if !ok || identity == nil || identity.Id == "" {
		return nil, ErrNoIdentity
	}

	return toIdentity(identity), nil
}

func (c *Client) GetIdentityIDByEmail(ctx context.Context, email string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.Client.GetIdentityIDByEmail")
	defer span.End()

	// NOTE: we are setting an empty page token because of https://github.com/ory/sdk/issues/461
	ids, r, err := c.admin.IdentityAPI.ListIdentities(ctx).CredentialsIdentifier(email).PageToken("").Execute()
	if err != nil {
		if r != nil && r.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to list identities: %w", err)
	}

	if len(ids) == 0 {
		return "", nil
	}

	// credential identifiers are unique in Kratos
	return ids[0].Id, nil
}

func (c *Client) GetIdentity(ctx context.Context, id string) (*types.Identity, error) {
	ctx, span := c.tracer.Start(ctx, "kratos.Client.GetIdentity")
	defer span.End()

	identity, _, err := c.admin.IdentityAPI.GetIdentity(ctx, id).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	return toIdentity(identity), nil
}

func (c *Client) reportAvailability(r *http.Response, err error) {
	available := 1.0
	if err != nil && (r == nil || r.StatusCode >= http.StatusInternalServerError) {
		available = 0
	}

	if mErr := c.monitor.SetDependencyAvailability(map[string]string{"component": "kratos"}, available); mErr != nil {
		c.logger.Debugf("failed to record kratos availability: %v", mErr)
	}
}

// toIdentity reads the conventional email/name/picture traits, a missing
// trait leaves the field empty.
func toIdentity(i *ory.Identity) *types.Identity {
	ret := &types.Identity{ID: i.Id}

	traits, ok := i.GetTraits().(map[string]interface{})
	if !ok {
		return ret
	}

	ret.Email, _ = traits["email"].(string)
	ret.AvatarURL, _ = traits["picture"].(string)

	switch name := traits["name"].(type) {
	case string:
		ret.DisplayName = name
	case map[string]interface{}:
		first, _ := name["first"].(string)
		last, _ := name["last"].(string)
		ret.DisplayName = joinName(first, last)
	}

	if ret.DisplayName == "" {
		ret.DisplayName = ret.Email
	}

	return ret
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}

func newAPIClient(url string) *ory.APIClient {
	conf := ory.NewConfiguration()
	conf.Servers = ory.ServerConfigurations{{URL: url}}
	return ory.NewAPIClient(conf)
}

func NewClient(publicURL, adminURL, cookieName string, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Client {
	return &Client{
		public:     newAPIClient(publicURL),
		admin:      newAPIClient(adminURL),
		cookieName: cookieName,
		now:        time.Now,
		tracer:     tracer,
		monitor:    monitor,
		logger:     logger,
	}
}
