// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var invitesCmd = &cobra.Command{
	Use:   "invites",
	Short: "Manage workspace invites",
}

var createInviteCmd = &cobra.Command{
	Use:   "create [email]",
	Short: "Invite someone to the workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := requireWorkspace()
		if err != nil {
			return err
		}

		role, _ := cmd.Flags().GetString("role")

		invite, err := getClient().CreateInvite(context.Background(), ws, args[0], role)
		if err != nil {
			return fmt.Errorf("failed to create invite: %w", err)
		}

		fmt.Printf("Invite created: %s (ID: %s, role: %s)\n", invite.Contact, invite.ID, invite.Role)
		return nil
	},
}

var listInvitesCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending invites of the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := requireWorkspace()
		if err != nil {
			return err
		}

		invites, err := getClient().ListInvites(context.Background(), ws)
		if err != nil {
			return fmt.Errorf("failed to list invites: %w", err)
		}

		w := newTable()
		fmt.Fprintln(w, "ID\tCONTACT\tROLE\tEXPIRES_AT")
		for _, i := range invites {
			expires := "never"
			if i.ExpiresAt != nil {
				expires = i.ExpiresAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", i.ID, i.Contact, i.Role, expires)
		}
		w.Flush()
		return nil
	},
}

var cancelInviteCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a pending invite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := requireWorkspace()
		if err != nil {
			return err
		}

		if err := getClient().CancelInvite(context.Background(), ws, args[0]); err != nil {
			return fmt.Errorf("failed to cancel invite: %w", err)
		}

		fmt.Printf("Invite cancelled: %s\n", args[0])
		return nil
	},
}

var acceptInviteCmd = &cobra.Command{
	Use:   "accept [id]",
	Short: "Accept an invite addressed to the authenticated user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := getClient().AcceptInvite(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("failed to accept invite: %w", err)
		}

		fmt.Printf("Joined workspace %s as %s\n", resp.WorkspaceID, resp.Role)
		return nil
	},
}

func init() {
	createInviteCmd.Flags().String("role", "member", "Role granted on acceptance (member, admin or owner)")

	rootCmd.AddCommand(invitesCmd)
	invitesCmd.AddCommand(createInviteCmd)
	invitesCmd.AddCommand(listInvitesCmd)
	invitesCmd.AddCommand(cancelInviteCmd)
	invitesCmd.AddCommand(acceptInviteCmd)
}
