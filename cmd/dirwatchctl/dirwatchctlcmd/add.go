package dirwatchctlcmd

import (
	"github.com/spf13/cobra"

	"github.com/dirwatch/dirwatch/httpapi"
)

var addOpt = struct {
	recursive bool
}{}

var addCmd = cobra.Command{
	Use:   "add name path",
	Short: "Register a new watch without editing the configuration",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return control.client.postJSON("/api/watches", httpapi.AddWatchRequest{
			Name:      args[0],
			Path:      args[1],
			Recursive: addOpt.recursive,
		})
	},
}

func init() {
	addCmd.Flags().BoolVarP(&addOpt.recursive, "recursive", "r", false, "watch subdirectories too")
}
