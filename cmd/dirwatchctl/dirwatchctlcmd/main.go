package dirwatchctlcmd

import (
	"fmt"
	"os"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/rogpeppe/retry"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Control holds the client state shared by all subcommands.
type Control struct {
	Address string

	client *apiClient
	colors aurora.Aurora
}

var (
	control = &Control{}

	rootCmd = cobra.Command{
		Use: "dirwatchctl",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return control.initializeClient()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&control.Address, "addr", "localhost:9125", "dirwatch server address")
	rootCmd.AddCommand(&statusCmd)
	rootCmd.AddCommand(&watchesCmd)
	rootCmd.AddCommand(&addCmd)
	rootCmd.AddCommand(&rmCmd)
	rootCmd.AddCommand(&eventsCmd)
	rootCmd.AddCommand(&reloadCmd)
	rootCmd.AddCommand(&shutdownCmd)
}

func Main() int {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// connectStrategy retries the initial connection so that commands
// issued right after daemon startup do not fail.
var connectStrategy = retry.Strategy{
	Delay:       100 * time.Millisecond,
	MaxDelay:    time.Second,
	Factor:      2,
	MaxDuration: 5 * time.Second,
}

func (ctl *Control) initializeClient() error {
	ctl.colors = aurora.NewAurora(term.IsTerminal(int(os.Stdout.Fd())))
	ctl.client = newAPIClient(ctl.Address)

	var err error
	for i := connectStrategy.Start(); ; {
		if err = ctl.client.ping(); err == nil {
			return nil
		}
		if !i.Next(nil) {
			return fmt.Errorf("cannot reach dirwatch at %s: %w", ctl.Address, err)
		}
	}
}

func (ctl *Control) state(s string) aurora.Value {
	switch s {
	case "RUNNING":
		return ctl.colors.Green(s)

	case "FAILED":
		return ctl.colors.Red(s)

	default:
		return ctl.colors.Yellow(s)
	}
}
