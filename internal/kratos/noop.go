// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package kratos

import (
	"context"
	"errors"

	"github.com/canonical/workspace-service/internal/types"
)

var _ ClientInterface = (*NoopClient)(nil)

// NoopClient stands in when no Kratos deployment is configured. It knows no
// identities and validates no sessions.
type NoopClient struct{}

func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

func (c *NoopClient) ValidateCredential(context.Context, types.Credential) (*types.Identity, error) {
	return nil, errors.New("kratos is not configured")
}

func (c *NoopClient) GetIdentityIDByEmail(context.Context, string) (string, error) {
	return "", nil
}

func (c *NoopClient) GetIdentity(_ context.Context, id string) (*types.Identity, error) {
	return &types.Identity{ID: id}, nil
}
