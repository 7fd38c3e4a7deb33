/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cellhub/admin/internal/dashboard"
	"github.com/cellhub/admin/internal/forms"
	"github.com/cellhub/admin/internal/services"
	"github.com/cellhub/admin/types"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// eventFlags maps command flags to event form fields.
var eventFlags = map[string]string{
	"title":       "title",
	"description": "description",
	"type":        "type",
	"date":        "date",
	"start":       "time_start",
	"end":         "time_end",
	"location":    "location",
	"responsable": "responsable",
	"cellule":     "cellule_name",
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Manage events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events",
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Events.FetchAll(ctx); err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tDATE\tTIME\tLOCATION\tCELLULE")
			for _, e := range services.FilterEvents(d.Events.Items(), search) {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s-%s\t%s\t%s\n", e.ID, e.Title, e.Type,
					shortDate(e.Date), types.ShortTime(e.TimeStart), types.ShortTime(e.TimeEnd), e.Location, e.CelluleName)
			}
			return tw.Flush()
		})
	},
}

var eventsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "event")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			e, err := findEvent(ctx, d, id)
			if err != nil {
				return err
			}
			printf(cmd, "%s (%s)\n%s\n\n", e.Title, e.Type, e.Description)
			printf(cmd, "Date:        %s %s-%s\n", shortDate(e.Date), types.ShortTime(e.TimeStart), types.ShortTime(e.TimeEnd))
			printf(cmd, "Location:    %s\n", e.Location)
			printf(cmd, "Responsable: %s\n", e.Responsable)
			printf(cmd, "Cellule:     %s\n", e.CelluleName)
			if e.ImageURL != "" {
				printf(cmd, "Image:       %s\n", e.ImageURL)
			}
			return nil
		})
	},
}

var eventsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an event",
	Long: `Create an event. Every field is validated before anything is sent.

	cellhub events create --title Kickoff --description "Opening session" \
		--date 2026-06-01 --start 10:00 --end 12:00 --location Hall \
		--responsable Jo --cellule Robotics --image cover.png
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			modal := d.EventModal()
			modal.OpenCreate()
			return submitEvent(ctx, cmd, modal)
		})
	},
}

var eventsEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit an event; only the given flags change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "event")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			e, err := findEvent(ctx, d, id)
			if err != nil {
				return err
			}
			modal := d.EventModal()
			modal.OpenEdit(e)
			return submitEvent(ctx, cmd, modal)
		})
	},
}

var eventsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "event")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Events.Delete(ctx, id); err != nil {
				return err
			}
			printf(cmd, "Event %d deleted\n", id)
			return nil
		})
	},
}

var eventsRegistrationsCmd = &cobra.Command{
	Use:   "registrations ID",
	Short: "List the registrations of an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "event")
		if err != nil {
			return err
		}
		search, _ := cmd.Flags().GetString("search")
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			regs, err := d.Events.Registrations(ctx, id)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "USER\tNAME\tEMAIL\tSTATUS\tREGISTERED")
			for _, r := range services.FilterRegistrations(regs, search) {
				var user types.User
				if r.User != nil {
					user = *r.User
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.UserID(), user.FullName(), user.Email, r.Status,
					r.RegisteredAt.Local().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		})
	},
}

func findEvent(ctx context.Context, d *dashboard.Dashboard, id int) (types.Event, error) {
	if err := d.Events.FetchAll(ctx); err != nil {
		return types.Event{}, err
	}
	e, ok := d.Events.Find(id)
	if !ok {
		return types.Event{}, errors.Errorf("event %d not found", id)
	}
	return e, nil
}

// submitEvent copies the changed flags into the modal and submits it.
func submitEvent(ctx context.Context, cmd *cobra.Command, modal *forms.EventModal) error {
	for flag, field := range eventFlags {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		value, _ := cmd.Flags().GetString(flag)
		if err := modal.Set(field, value); err != nil {
			return err
		}
	}
	if image, _ := cmd.Flags().GetString("image"); image != "" {
		f, err := os.Open(image)
		if err != nil {
			return errors.Wrap(err, "open image")
		}
		err = modal.SelectImage(filepath.Base(image), f)
		_ = f.Close()
		if err != nil {
			return errors.Errorf("image: %s", err)
		}
	}

	saved, err := modal.Submit(ctx)
	if err != nil {
		if msg := modal.SubmitError(); msg != "" {
			return errors.New(msg)
		}
		return printFieldErrors(cmd.ErrOrStderr(), err)
	}
	printf(cmd, "Event %d saved: %s\n", saved.ID, saved.Title)
	return nil
}

func shortDate(value string) string {
	if len(value) > len(types.DateLayout) {
		return value[:len(types.DateLayout)]
	}
	return value
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListCmd, eventsShowCmd, eventsCreateCmd, eventsEditCmd, eventsDeleteCmd, eventsRegistrationsCmd)

	eventsListCmd.Flags().String("search", "", "filter by title or description")
	eventsRegistrationsCmd.Flags().String("search", "", "filter by name, email or specialty")
	for _, c := range []*cobra.Command{eventsCreateCmd, eventsEditCmd} {
		c.Flags().String("title", "", "title")
		c.Flags().String("description", "", "description")
		c.Flags().String("type", "", "conference, workshop, ...")
		c.Flags().String("date", "", "day, YYYY-MM-DD")
		c.Flags().String("start", "", "start time, HH:MM")
		c.Flags().String("end", "", "end time, HH:MM")
		c.Flags().String("location", "", "location")
		c.Flags().String("responsable", "", "person in charge")
		c.Flags().String("cellule", "", "organizing cellule name")
		c.Flags().String("image", "", "image file")
	}
}
