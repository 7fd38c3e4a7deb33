/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cellhub/admin/internal/mq"
	"github.com/cellhub/admin/internal/notify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Dashboard notifications",
}

var notificationsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print notifications published on the broker",
	Long: `Print notifications published on the broker until interrupted.
Requires NOTIFY_BACKEND=rabbitmq or pubsub.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDashboard(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		bus := d.Bus()
		if bus == nil {
			return errors.New("notifications are only logged; set NOTIFY_BACKEND to rabbitmq or pubsub")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		channel := d.Config.Notify.Channel
		printf(cmd, "Watching %s on %s\n", channel, bus.Name())
		err = bus.Subscribe(ctx, channel, func(_ context.Context, msg mq.Message) error {
			n, err := notify.Decode(msg)
			if err != nil {
				d.Log.Warn("skipping message", err)
				return nil
			}
			printf(cmd, "%s  %-7s  %-18s  %s\n", n.At.Local().Format("15:04:05"), n.Level, n.Action, n.Message)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.AddCommand(notificationsWatchCmd)
}
