/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"

	"github.com/cellhub/admin/internal/dashboard"
	"github.com/cellhub/admin/internal/forms"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var announcementsCmd = &cobra.Command{
	Use:   "announcements",
	Short: "Manage announcements",
}

var announcementsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List announcements",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Announcements.FetchAll(ctx); err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tTITLE\tSUBTITLE\tURL\tACTIVE")
			for _, a := range d.Announcements.Items() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", a.ID, a.Title, a.Subtitle, a.URL, a.IsActive)
			}
			return tw.Flush()
		})
	},
}

var announcementsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish an announcement",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			form, err := announcementFromFlags(cmd, forms.AnnouncementForm{})
			if err != nil {
				return err
			}
			a, err := d.Announcements.Create(ctx, form.Payload())
			if err != nil {
				return err
			}
			printf(cmd, "Announcement %d added\n", a.ID)
			return nil
		})
	},
}

var announcementsEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit an announcement; only the given flags change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "announcement")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Announcements.FetchAll(ctx); err != nil {
				return err
			}
			current, ok := d.Announcements.Find(id)
			if !ok {
				return errors.Errorf("announcement %d not found", id)
			}
			d.Announcements.Select(&current)
			form, err := announcementFromFlags(cmd, forms.AnnouncementForm{Title: current.Title, Subtitle: current.Subtitle, URL: current.URL})
			if err != nil {
				return err
			}
			if _, err := d.Announcements.Update(ctx, id, form.Payload()); err != nil {
				return err
			}
			printf(cmd, "Announcement %d updated\n", id)
			return nil
		})
	},
}

var announcementsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an announcement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "announcement")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Announcements.Delete(ctx, id); err != nil {
				return err
			}
			printf(cmd, "Announcement %d deleted\n", id)
			return nil
		})
	},
}

func announcementFromFlags(cmd *cobra.Command, form forms.AnnouncementForm) (forms.AnnouncementForm, error) {
	if cmd.Flags().Changed("title") {
		form.Title, _ = cmd.Flags().GetString("title")
	}
	if cmd.Flags().Changed("subtitle") {
		form.Subtitle, _ = cmd.Flags().GetString("subtitle")
	}
	if cmd.Flags().Changed("url") {
		form.URL, _ = cmd.Flags().GetString("url")
	}
	if err := form.Validate(); err != nil {
		return form, printFieldErrors(cmd.ErrOrStderr(), err)
	}
	return form, nil
}

func init() {
	rootCmd.AddCommand(announcementsCmd)
	announcementsCmd.AddCommand(announcementsListCmd, announcementsCreateCmd, announcementsEditCmd, announcementsDeleteCmd)

	for _, c := range []*cobra.Command{announcementsCreateCmd, announcementsEditCmd} {
		c.Flags().String("title", "", "title")
		c.Flags().String("subtitle", "", "subtitle")
		c.Flags().String("url", "", "link")
	}
}
