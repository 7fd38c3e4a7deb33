/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/cellhub/admin/internal/dashboard"
	"github.com/cellhub/admin/internal/services"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List and moderate members",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List members",
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		status, _ := cmd.Flags().GetString("status")
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Users.FetchAll(ctx); err != nil {
				return err
			}
			users := d.Users.Items()
			counts := services.CountStatuses(users)
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tSTATUS\tLEVEL\tSPECIALTY")
			for _, u := range services.FilterUsers(users, search, status) {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.FullName(), u.Email, u.Status, u.Level, u.Specialty)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			printf(cmd, "\n%d members: %d allowed, %d pending, %d denied\n", counts.All, counts.Allowed, counts.Pending, counts.Denied)
			return nil
		})
	},
}

var usersShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "user")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			u, err := d.Users.Get(ctx, id)
			if err != nil {
				return err
			}
			printf(cmd, "%s <%s>\n", u.FullName(), u.Email)
			printf(cmd, "Status:    %s\n", u.Status)
			printf(cmd, "Phone:     %s\n", u.PhoneNumber)
			printf(cmd, "Level:     %s\n", u.Level)
			printf(cmd, "Specialty: %s\n", u.Specialty)
			if u.RejectionReason != "" {
				printf(cmd, "Rejected:  %s\n", u.RejectionReason)
			}
			return nil
		})
	},
}

var usersAcceptCmd = &cobra.Command{
	Use:   "accept ID",
	Short: "Accept a pending member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "user")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Moderation.Accept(ctx, id); err != nil {
				return err
			}
			printf(cmd, "User %d accepted\n", id)
			return nil
		})
	},
}

var usersRejectCmd = &cobra.Command{
	Use:   "reject ID --reason TEXT",
	Short: "Reject a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "user")
		if err != nil {
			return err
		}
		reason, _ := cmd.Flags().GetString("reason")
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Moderation.Reject(ctx, id, reason); err != nil {
				return err
			}
			printf(cmd, "User %d rejected\n", id)
			return nil
		})
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "user")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Moderation.Delete(ctx, id); err != nil {
				return err
			}
			printf(cmd, "User %d deleted\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersShowCmd, usersAcceptCmd, usersRejectCmd, usersDeleteCmd)

	usersListCmd.Flags().String("search", "", "filter by name, email or specialty")
	usersListCmd.Flags().String("status", services.FilterAll, "all, allowed, pending or denied")
	usersRejectCmd.Flags().String("reason", "", "rejection reason (required)")
}
