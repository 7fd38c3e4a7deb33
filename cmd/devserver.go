/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cellhub/admin/config"
	"github.com/cellhub/admin/internal/logger"
	"github.com/cellhub/admin/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// devserverCmd represents the devserver command
var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Starts a local API server with sample data",
	Long: `Starts a local API server with sample data, backed by memory. Usage:

	cellhub devserver --port 3500
	API_URL=http://127.0.0.1:3500 cellhub login --email admin@cellhub.local
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logger.NewStdLogger(cmd.ErrOrStderr(), logger.ParseLevel(cfg.LogLevel))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(ctx, cfg.DevServer, server.Options{Logger: log})
		if err != nil {
			return err
		}

		errs := make(chan error, 1)
		go func() {
			log.Info("devserver listening", srv.Addr(), "admin="+cfg.DevServer.AdminEmail)
			errs <- srv.Start()
		}()

		select {
		case err := <-errs:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(devserverCmd)

	devserverCmd.Flags().Int("port", 0, "listen port (env DEVSERVER_PORT)")
	if err := viper.BindPFlag("DEVSERVER_PORT", devserverCmd.Flags().Lookup("port")); err != nil {
		panic(err)
	}
}
