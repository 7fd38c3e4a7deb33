/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cellhub/admin/internal/dashboard"
	"github.com/cellhub/admin/internal/forms"
	"github.com/cellhub/admin/internal/services"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var cellulesCmd = &cobra.Command{
	Use:   "cellules",
	Short: "Manage cellules and their members",
}

var cellulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cellules",
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		domain, _ := cmd.Flags().GetString("domain")
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Cellules.FetchAll(ctx); err != nil {
				return err
			}
			cells := d.Cellules.Items()
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tABBR\tDOMAIN")
			for _, c := range services.FilterCellules(cells, search, domain) {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Abbreviation, c.Domain)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if domains := services.Domains(cells); len(domains) > 0 {
				printf(cmd, "\nDomains: %s\n", strings.Join(domains, ", "))
			}
			return nil
		})
	},
}

var cellulesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a cellule",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			form := &forms.CelluleForm{}
			if err := celluleFormFromFlags(cmd, d, form); err != nil {
				return err
			}
			cell, err := d.Cellules.Create(ctx, form.Multipart(forms.ModeCreate))
			if err != nil {
				return err
			}
			printf(cmd, "Cellule %d created: %s\n", cell.ID, cell.Name)
			return nil
		})
	},
}

var cellulesEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Edit a cellule; only the given flags change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "cellule")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Cellules.FetchAll(ctx); err != nil {
				return err
			}
			current, ok := d.Cellules.Find(id)
			if !ok {
				return errors.Errorf("cellule %d not found", id)
			}
			form := &forms.CelluleForm{Name: current.Name, Abbreviation: current.Abbreviation, Domain: current.Domain}
			if err := celluleFormFromFlags(cmd, d, form); err != nil {
				return err
			}
			cell, err := d.Cellules.Update(ctx, id, form.Multipart(forms.ModeEdit))
			if err != nil {
				return err
			}
			printf(cmd, "Cellule %d updated: %s\n", cell.ID, cell.Name)
			return nil
		})
	},
}

var cellulesDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a cellule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "cellule")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Cellules.Delete(ctx, id); err != nil {
				return err
			}
			printf(cmd, "Cellule %d deleted\n", id)
			return nil
		})
	},
}

var cellulesMembersCmd = &cobra.Command{
	Use:   "members ID",
	Short: "List the members of a cellule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "cellule")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			users, err := d.Cellules.Members(ctx, id)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tSTATUS")
			for _, u := range users {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.FullName(), u.Email, u.Status)
			}
			return tw.Flush()
		})
	},
}

var cellulesRemoveMemberCmd = &cobra.Command{
	Use:   "remove-member ID USER_ID",
	Short: "Remove a member from a cellule",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args, 0, "cellule")
		if err != nil {
			return err
		}
		userID, err := parseIDArg(args, 1, "user")
		if err != nil {
			return err
		}
		return withDashboard(cmd, func(ctx context.Context, d *dashboard.Dashboard) error {
			if err := d.Cellules.RemoveMember(ctx, id, userID); err != nil {
				return err
			}
			printf(cmd, "User %d removed from cellule %d\n", userID, id)
			return nil
		})
	},
}

func celluleFormFromFlags(cmd *cobra.Command, d *dashboard.Dashboard, form *forms.CelluleForm) error {
	if cmd.Flags().Changed("name") {
		form.Name, _ = cmd.Flags().GetString("name")
	}
	if cmd.Flags().Changed("abbreviation") {
		form.Abbreviation, _ = cmd.Flags().GetString("abbreviation")
	}
	if cmd.Flags().Changed("domain") {
		form.Domain, _ = cmd.Flags().GetString("domain")
	}
	if image, _ := cmd.Flags().GetString("image"); image != "" {
		f, err := os.Open(image)
		if err != nil {
			return errors.Wrap(err, "open image")
		}
		err = form.SelectImage(filepath.Base(image), f, d.Limits.CelluleImageMax)
		_ = f.Close()
		if err != nil {
			return printFieldErrors(cmd.ErrOrStderr(), err)
		}
	}
	if err := form.Validate(); err != nil {
		return printFieldErrors(cmd.ErrOrStderr(), err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(cellulesCmd)
	cellulesCmd.AddCommand(cellulesListCmd, cellulesCreateCmd, cellulesEditCmd, cellulesDeleteCmd, cellulesMembersCmd, cellulesRemoveMemberCmd)

	cellulesListCmd.Flags().String("search", "", "filter by name or abbreviation")
	cellulesListCmd.Flags().String("domain", services.FilterAll, "filter by domain")
	for _, c := range []*cobra.Command{cellulesCreateCmd, cellulesEditCmd} {
		c.Flags().String("name", "", "full name")
		c.Flags().String("abbreviation", "", "short label")
		c.Flags().String("domain", "", "area of activity")
		c.Flags().String("image", "", "image file")
	}
}
