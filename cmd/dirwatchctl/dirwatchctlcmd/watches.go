package dirwatchctlcmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dirwatch/dirwatch/httpapi"
)

var watchesCmd = cobra.Command{
	Use:   "watches",
	Short: "List the configured watches and their states",
	RunE: func(cmd *cobra.Command, args []string) error {
		var statuses []httpapi.WatchStatus
		if err := control.client.getJSON("/api/watches", &statuses); err != nil {
			return err
		}
		printWatchStatuses(statuses)
		return nil
	},
}

func printWatchStatuses(statuses []httpapi.WatchStatus) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	_, _ = fmt.Fprintln(tw, "NAME\tSTATE\tPATH\tLISTENERS\tDETAIL")
	for _, st := range statuses {
		detail := st.Document
		if st.Error != "" {
			detail = st.Error
		}
		path := st.Path
		if st.Recursive {
			path += " (recursive)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%v\t%s\t%d\t%s\n",
			st.Name, control.state(st.State), path, st.Listeners, detail)
	}
}
