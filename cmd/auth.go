/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"context"
	"strings"
	"time"

	"github.com/cellhub/admin/internal/apiclient"
	"github.com/cellhub/admin/internal/dashboard"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as an administrator",
	Long: `Log in as an administrator. The password is read from standard input
when --password is not given.

	cellhub login --email admin@cellhub.local
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if strings.TrimSpace(email) == "" {
			return errors.New("--email is required")
		}
		if password == "" {
			printf(cmd, "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.Wrap(err, "read password")
			}
			password = strings.TrimRight(line, "\r\n")
		}

		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		user, err := d.Auth.Login(cmd.Context(), email, password)
		if err != nil {
			if msg := d.Auth.Err(); msg != "" {
				return errors.New(msg)
			}
			return err
		}
		printf(cmd, "Logged in as %s <%s>\n", user.FullName(), user.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()
		if err := d.Auth.Logout(); err != nil {
			return err
		}
		printf(cmd, "Logged out\n")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in administrator",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDashboard(cmd, func(_ context.Context, d *dashboard.Dashboard) error {
			user := d.Auth.User()
			printf(cmd, "%s <%s> (role %d)\n", user.FullName(), user.Email, user.RoleID)
			printf(cmd, "API: %s\n", d.Client.BaseURL())
			if info, ok := apiclient.InspectToken(d.Auth.AccessToken()); ok && !info.ExpiresAt.IsZero() {
				state := "expires"
				if info.Expired(time.Now()) {
					state = "expired"
				}
				printf(cmd, "Token %s %s\n", state, info.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		})
	},
}

var themeCmd = &cobra.Command{
	Use:   "theme [toggle]",
	Short: "Show or toggle the color theme",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()
		if len(args) == 0 {
			printf(cmd, "%s\n", d.Theme.Theme())
			return nil
		}
		if args[0] != "toggle" {
			return errors.Errorf("unknown theme action %q", args[0])
		}
		theme, err := d.Theme.Toggle()
		if err != nil {
			return err
		}
		printf(cmd, "%s\n", theme)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, themeCmd)

	loginCmd.Flags().String("email", "", "administrator email")
	loginCmd.Flags().String("password", "", "password (read from stdin if empty)")
}
