package dirwatchctlcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dirwatch/dirwatch/httpapi"
)

var statusCmd = cobra.Command{
	Use:   "status",
	Short: "Get the dirwatch server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		var st httpapi.Status
		if err := control.client.getJSON("/api/status", &st); err != nil {
			return err
		}
		fmt.Printf("version: %s\n", st.Version)
		fmt.Printf("active watches: %d\n", st.ActiveWatches)
		return nil
	},
}
