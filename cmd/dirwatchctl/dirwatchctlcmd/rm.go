package dirwatchctlcmd

import (
	"github.com/spf13/cobra"
)

var rmCmd = cobra.Command{
	Use:   "rm name",
	Short: "Remove a watch and close its watcher",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return control.client.delete("/api/watches/" + args[0])
	},
}
