package dirwatchctlcmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var eventsOpt = struct {
	follow bool
}{}

var eventsCmd = cobra.Command{
	Use:   "events name",
	Short: "Print the recorded file events for a watch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/watches/" + args[0] + "/events"
		if !eventsOpt.follow {
			return control.client.stream(context.Background(), path, os.Stdout)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return control.client.stream(ctx, path+"?follow=true", os.Stdout)
	},
}

func init() {
	eventsCmd.Flags().BoolVarP(&eventsOpt.follow, "follow", "f", false, "keep streaming new events until interrupted")
}
