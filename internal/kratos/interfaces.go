// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package kratos

import (
	"context"

	"github.com/canonical/workspace-service/internal/types"
)

type ClientInterface interface {
	ValidateCredential(ctx context.Context, cred types.Credential) (*types.Identity, error)
	GetIdentityIDByEmail(ctx context.Context, email string) (string, error)
	GetIdentity(ctx context.Context, id string) (*types.Identity, error)
}
