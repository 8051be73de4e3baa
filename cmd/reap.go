// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonical/workspace-service/internal/authorization"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/pkg/invites"
)

var reapInvitesCmd = &cobra.Command{
	Use:   "reap-invites",
	Short: "Delete expired invites",
	Long:  `Delete every invite past its expiry, reads the same environment as serve`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		specs, err := loadSpecs()
		if err != nil {
			return err
		}

		logger := logging.NewLogger(specs.LogLevel)
		defer logger.Sync()

		tracer := tracing.NewNoopTracer()
		monitor := monitoring.NewNoopMonitor(serviceName, logger)

		dbClient, err := newDBClient(specs, tracer, monitor, logger)
		if err != nil {
			return err
		}
		defer dbClient.Close()

		s := storage.NewStorage(dbClient, tracer, monitor, logger)
		service := invites.NewService(
			s,
			authorization.NewAuthorizer(s, tracer, monitor, logger),
			newDirectory(specs, tracer, monitor, logger),
			dbClient,
			specs.InvitationLifetime,
			tracer,
			monitor,
			logger,
		)

		n, err := service.ReapExpired(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired invites\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reapInvitesCmd)
}
