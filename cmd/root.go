/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/cellhub/admin/config"
	"github.com/cellhub/admin/internal/dashboard"
	"github.com/cellhub/admin/internal/forms"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cellhub",
	Short: "Administration console for cellhub",
	Long: `Administration console for cellhub: members, events, cellules,
documents, announcements and event presence.

	cellhub login --email admin@cellhub.local
	cellhub events list
	cellhub presence show 3
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (env API_URL)")
	rootCmd.PersistentFlags().String("session-file", "", "session file (env SESSION_FILE)")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error (env LOG_LEVEL)")

	bind("API_URL", "api-url")
	bind("SESSION_FILE", "session-file")
	bind("LOG_LEVEL", "log-level")
}

func bind(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// openDashboard builds the dashboard from the configuration. The caller
// closes it.
func openDashboard(cmd *cobra.Command) (*dashboard.Dashboard, error) {
	cfg := config.LoadConfig()
	return dashboard.New(cmd.Context(), cfg, dashboard.WithLogOutput(cmd.ErrOrStderr()))
}

// withDashboard runs fn with a dashboard that has an administrator
// session.
func withDashboard(cmd *cobra.Command, fn func(ctx context.Context, d *dashboard.Dashboard) error) error {
	d, err := openDashboard(cmd)
	if err != nil {
		return err
	}
	defer d.Close()
	if !d.LoggedIn() {
		return errors.New("not logged in, run cellhub login first")
	}
	return fn(cmd.Context(), d)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func parseIDArg(args []string, i int, what string) (int, error) {
	id, err := strconv.Atoi(args[i])
	if err != nil || id < 1 {
		return 0, errors.Errorf("invalid %s id %q", what, args[i])
	}
	return id, nil
}

// printFieldErrors lists validation errors one per line.
func printFieldErrors(w io.Writer, err error) error {
	var fieldErrs forms.FieldErrors
	if errors.As(err, &fieldErrs) {
		for _, field := range fieldErrs.Fields() {
			fmt.Fprintf(w, "  %s: %s\n", field, fieldErrs[field])
		}
		return errors.New("invalid input")
	}
	return err
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
