package dirwatchctlcmd

import (
	"github.com/spf13/cobra"
)

var shutdownCmd = cobra.Command{
	Use:   "shutdown",
	Short: "Stop all watches and shut the daemon down",
	RunE: func(cmd *cobra.Command, args []string) error {
		return control.client.postJSON("/api/shutdown", nil)
	},
}
