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

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, _ := cmd.Flags().GetInt("event")
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Overview.Refresh(ctx); err != nil {
				d.Log.Warn("some collections failed to load", err)
			}
			s := d.Overview.Stats()
			w := cmd.OutOrStdout()

			tw := newTable(w)
			fmt.Fprintf(tw, "Members\t%d\t(%d active)\n", s.TotalUsers, s.ActiveUsers)
			fmt.Fprintf(tw, "Events\t%d\t(%d upcoming)\n", s.TotalEvents, s.UpcomingEvents)
			fmt.Fprintf(tw, "Cellules\t%d\t\n", s.TotalCellules)
			fmt.Fprintf(tw, "Documents\t%d\t\n", s.TotalDocuments)
			fmt.Fprintf(tw, "Announcements\t%d\t\n", s.TotalAnnouncements)
			if err := tw.Flush(); err != nil {
				return err
			}

			printCounts(w, "Event types", s.EventTypes)
			printCounts(w, "Genders", s.Genders)
			printCounts(w, "Levels", s.Levels)
			printCounts(w, "Events per month", s.Monthly)

			if len(s.NextEvents) > 0 {
				fmt.Fprintln(w, "\nNext events")
				for _, e := range s.NextEvents {
					fmt.Fprintf(w, "  %s  %s\n", shortDate(e.Date), e.Title)
				}
			}
			if len(s.RecentDocuments) > 0 {
				fmt.Fprintln(w, "\nRecent documents")
				for _, doc := range s.RecentDocuments {
					fmt.Fprintf(w, "  %s  %s\n", doc.UploadDate.Local().Format(types.DateLayout), doc.Title)
				}
			}

			if eventID > 0 {
				summary, err := d.Overview.EventAttendance(ctx, eventID)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "\nAttendance of event %d: %d/%d present (%d%%)\n", eventID, summary.Present, summary.Total, summary.Rate)
			}
			return nil
		})
	},
}

func printCounts(w io.Writer, title string, counts []services.Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	tw := newTable(w)
	for _, c := range counts {
		fmt.Fprintf(tw, "  %s\t%d\n", c.Label, c.Value)
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Int("event", 0, "also show the attendance rate of this event")
}
