// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var workspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "Manage workspaces",
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity and workspace bound to the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := getClient().Session(context.Background())
		if err != nil {
			return fmt.Errorf("failed to fetch session: %w", err)
		}

		fmt.Printf("User: %s (%s)\n", resp.Identity.ID, resp.Identity.Email)
		if resp.WorkspaceID != "" {
			fmt.Printf("Workspace: %s\n", resp.WorkspaceID)
		}
		return nil
	},
}

var listWorkspacesCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces of the authenticated user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := getClient().ListWorkspaces(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list workspaces: %w", err)
		}

		w := newTable()
		fmt.Fprintln(w, "ID\tNAME\tCURRENT\tCREATED_AT")
		for _, ws := range resp.Workspaces {
			fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", ws.ID, ws.Name, ws.ID == resp.CurrentWorkspaceID, ws.CreatedAt.Format(time.RFC3339))
		}
		w.Flush()
		return nil
	},
}

var createWorkspaceCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a workspace owned by the authenticated user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := getClient().CreateWorkspace(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to create workspace: %w", err)
		}

		fmt.Printf("Workspace created: %s (ID: %s)\n", ws.Name, ws.ID)
		return nil
	},
}

var selectWorkspaceCmd = &cobra.Command{
	Use:   "select [id]",
	Short: "Check that the authenticated user can switch to a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getClient().SelectWorkspace(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to select workspace: %w", err)
		}

		fmt.Printf("Workspace selected: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(workspacesCmd)
	workspacesCmd.AddCommand(listWorkspacesCmd)
	workspacesCmd.AddCommand(createWorkspaceCmd)
	workspacesCmd.AddCommand(selectWorkspaceCmd)
}
