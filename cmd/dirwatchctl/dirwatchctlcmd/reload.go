package dirwatchctlcmd

import (
	"github.com/spf13/cobra"
)

var reloadCmd = cobra.Command{
	Use:   "reload",
	Short: "Reload the configuration for the dirwatch daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return control.client.postJSON("/api/reload", nil)
	},
}
