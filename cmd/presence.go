/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/cellhub/admin/internal/dashboard"
	"github.com/cellhub/admin/internal/services"
	"github.com/cellhub/admin/types"
	"github.com/spf13/cobra"
)

var presenceCmd = &cobra.Command{
	Use:   "presence",
	Short: "Event presence: lists, marking, closing",
}

var presenceShowCmd = &cobra.Command{
	Use:   "show EVENT_ID",
	Short: "Show the present, absent and pending lists of an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, err := parseIDArg(args, 0, "event")
		if err != nil {
			return err
		}
		search, _ := cmd.Flags().GetString("search")
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			board, err := d.Presence.Load(ctx, eventID)
			if err != nil {
				return err
			}
			return printBoard(cmd.OutOrStdout(), board, search)
		})
	},
}

var presenceMarkCmd = &cobra.Command{
	Use:   "mark EVENT_ID USER_ID",
	Short: "Mark a registered user present",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, err := parseIDArg(args, 0, "event")
		if err != nil {
			return err
		}
		userID, err := parseIDArg(args, 1, "user")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if _, err := d.Presence.Load(ctx, eventID); err != nil {
				return err
			}
			board, err := d.Presence.MarkPresent(ctx, eventID, userID)
			if err != nil {
				return err
			}
			return printBoard(cmd.OutOrStdout(), board, "")
		})
	},
}

var presenceScanCmd = &cobra.Command{
	Use:   "scan EVENT_ID QR_DATA",
	Short: "Record attendance from a member QR code",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, err := parseIDArg(args, 0, "event")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			record, err := d.Attendance.MarkByQR(ctx, eventID, args[1])
			if err != nil {
				return err
			}
			printf(cmd, "User %d marked %s at %s\n", record.UserID, record.Status, record.Timestamp.Local().Format("15:04:05"))
			return nil
		})
	},
}

var presenceCloseCmd = &cobra.Command{
	Use:   "close EVENT_ID",
	Short: "Close an event; unmarked registrants become absent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, err := parseIDArg(args, 0, "event")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			msg, err := d.Attendance.CloseEvent(ctx, eventID)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", msg)
			return nil
		})
	},
}

var presenceAttendanceCmd = &cobra.Command{
	Use:   "attendance EVENT_ID",
	Short: "Show the attendance records and rate of an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, err := parseIDArg(args, 0, "event")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			summary, err := d.Overview.EventAttendance(ctx, eventID)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "USER\tSTATUS\tTIME")
			for _, r := range d.Attendance.Records() {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", r.UserID, r.Status, r.Timestamp.Local().Format("2006-01-02 15:04"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			printf(cmd, "\n%d/%d present (%d%%)\n", summary.Present, summary.Total, summary.Rate)
			return nil
		})
	},
}

func printBoard(w io.Writer, board services.PresenceBoard, search string) error {
	stats := board.Stats()
	view := board.Search(search)

	fmt.Fprintf(w, "Registrations: %d  present %d (%.0f%%)  absent %d (%.0f%%)  pending %d (%.0f%%)\n\n",
		stats.Registrations, stats.Present, stats.PresentPercent, stats.Absent, stats.AbsentPercent,
		stats.Pending, stats.PendingPercent)

	tw := newTable(w)
	fmt.Fprintln(tw, "LIST\tUSER\tNAME\tEMAIL\tTIME")
	printAttendees(tw, "present", view.Present)
	printAttendees(tw, "absent", view.Absent)
	for _, r := range view.Pending() {
		var user types.User
		if r.User != nil {
			user = *r.User
		}
		fmt.Fprintf(tw, "pending\t%d\t%s\t%s\t\n", r.UserID(), user.FullName(), user.Email)
	}
	return tw.Flush()
}

func printAttendees(w io.Writer, list string, rows []types.Attendee) {
	for _, a := range rows {
		ts := ""
		if !a.Timestamp.IsZero() {
			ts = a.Timestamp.Local().Format("15:04")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", list, a.UserID, a.FullName(), a.Email, ts)
	}
}

func init() {
	rootCmd.AddCommand(presenceCmd)
	presenceCmd.AddCommand(presenceShowCmd, presenceMarkCmd, presenceScanCmd, presenceCloseCmd, presenceAttendanceCmd)

	presenceShowCmd.Flags().String("search", "", "filter by name, email or specialty")
}
