package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dirwatch/dirwatch"
)

func init() {
	cfg := zap.NewDevelopmentConfig()
	if os.Getenv("NO_COLOR") == "" {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.CallerKey = ""
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(log)
}

func runServer() error {
	d := dirwatch.NewDaemon(rootOpt.Configuration)
	defer d.Stop()
	if err := d.Reload(); err != nil {
		// Ignore config loading errors, because the Daemon logs those.
		if errors.As(err, &dirwatch.DaemonConfigError{}) {
			return nil
		}
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

FOR:
	for {
		select {
		case sig := <-sigs:
			zap.L().Info("Received signal to stop all watches and exit", zap.Stringer("signal", sig))
			if rootOpt.QuitDelay == 0 {
				break FOR
			}

			zap.L().Info("Press CTRL-C again to quit", zap.Stringer("signal", sig))
			select {
			case <-sigs:
				break FOR
			case <-d.ShutdownRequested():
				break FOR
			case <-time.After(rootOpt.QuitDelay):
				zap.L().Info("Not quitting", zap.Stringer("signal", sig))
			}
		case <-d.ShutdownRequested():
			zap.L().Info("Shutdown requested via control plane")
			break FOR
		}
	}

	return nil
}

var (
	rootOpt = struct {
		Configuration string
		QuitDelay     time.Duration
	}{}

	rootCmd = cobra.Command{
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
)

// Main runs the daemon command and returns its exit code.
func Main() int {
	rootCmd.PersistentFlags().StringVarP(&rootOpt.Configuration, "config", "c", "", "Configuration file")
	flags := rootCmd.Flags()
	flags.DurationVar(&rootOpt.QuitDelay, "quit-delay", time.Second, "Time to wait for second CTRL-C before quitting. 0 to quit immediately.")
	_ = rootCmd.MarkFlagRequired("config")

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Failed to execute command", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(Main())
}
