// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	endpoint     string
	sessionToken string
	workspaceID  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "workspace-service",
	Short: "Workspace Service",
	Long:  `Workspace Service CLI for managing workspaces, invites and members.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "http://localhost:8080", "HTTP server endpoint")
	rootCmd.PersistentFlags().StringVar(&sessionToken, "session-token", os.Getenv("WORKSPACE_SESSION_TOKEN"), "Session token sent as X-Session-Token")
	rootCmd.PersistentFlags().StringVar(&workspaceID, "workspace", "", "Workspace to bind requests to")
}
