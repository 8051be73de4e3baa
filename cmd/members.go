// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Manage workspace members",
}

var listMembersCmd = &cobra.Command{
	Use:   "list",
	Short: "List members of the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := requireWorkspace()
		if err != nil {
			return err
		}

		includeRemoved, _ := cmd.Flags().GetBool("include-removed")

		members, err := getClient().ListMembers(context.Background(), ws, includeRemoved)
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}

		w := newTable()
		fmt.Fprintln(w, "USER_ID\tEMAIL\tROLE\tJOINED_AT\tREMOVED_AT")
		for _, m := range members {
			removed := ""
			if m.RemovedAt != nil {
				removed = m.RemovedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.UserID, m.Email, m.Role, m.JoinedAt.Format(time.RFC3339), removed)
		}
		w.Flush()
		return nil
	},
}

var removeMemberCmd = &cobra.Command{
	Use:   "remove [user-id]",
	Short: "Remove a member from the workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := requireWorkspace()
		if err != nil {
			return err
		}

		if err := getClient().RemoveMember(context.Background(), ws, args[0]); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}

		fmt.Printf("Member removed: %s\n", args[0])
		return nil
	},
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role [user-id] [role]",
	Short: "Change the role of a member",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := requireWorkspace()
		if err != nil {
			return err
		}

		if err := getClient().UpdateMemberRole(context.Background(), ws, args[0], args[1]); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}

		fmt.Printf("Member %s is now %s\n", args[0], args[1])
		return nil
	},
}

var mentionRecipientsCmd = &cobra.Command{
	Use:   "mentions [user-id...]",
	Short: "Filter user IDs down to active members of the workspace",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := requireWorkspace()
		if err != nil {
			return err
		}

		recipients, err := getClient().MentionRecipients(context.Background(), ws, args)
		if err != nil {
			return fmt.Errorf("failed to resolve recipients: %w", err)
		}

		for _, id := range recipients {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	listMembersCmd.Flags().Bool("include-removed", false, "Include removed members, requires admin")

	rootCmd.AddCommand(membersCmd)
	membersCmd.AddCommand(listMembersCmd)
	membersCmd.AddCommand(removeMemberCmd)
	membersCmd.AddCommand(setRoleCmd)
	membersCmd.AddCommand(mentionRecipientsCmd)
}
