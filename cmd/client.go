// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"os"
	"text/tabwriter"

	"github.com/canonical/workspace-service/pkg/client"
)

// getClient builds an API client from the persistent flags.
func getClient() *client.Client {
	opts := []client.Option{}

	if sessionToken != "" {
		opts = append(opts, client.WithSessionToken(sessionToken))
	}

	if clientID != "" {
		opts = append(opts, client.WithTokenSource(newTokenSource(context.Background())))
	}

	if workspaceID != "" {
		opts = append(opts, client.WithWorkspace(workspaceID))
	}

	return client.NewClient(endpoint, opts...)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
}

func requireWorkspace() (string, error) {
	if workspaceID == "" {
		return "", errors.New("--workspace is required")
	}

	return workspaceID, nil
}
