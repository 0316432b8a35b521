package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"emojiharvest/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	noColor       bool
	notifications bool
	quiet         bool
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "emojiharvest",
	Short: "Harvest the emoji catalogue of a picker into name to URL JSON",
	Long: `emojiharvest scrolls through an emoji picker, once per skin tone, and
writes every emoji it saw as a name to image URL mapping.

Sources:
  - browser  a Chrome tab showing the picker (launched or attached)
  - api      a paginated JSON listing
  - replay   a recorded fixture, for testing selectors and outputs

Running without a subcommand is the same as 'emojiharvest scrape'.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetColor(!noColor && ui.IsTerminal(os.Stderr))
	},
	RunE: runScrape,
}

// Execute runs the root command with a context cancelled by SIGINT or
// SIGTERM. A cancelled harvest still emits what it collected; a second
// signal aborts image downloads still in flight.
func Execute() {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	ctx, stop := withInterrupts(context.Background(), sigs)

	err := rootCmd.ExecuteContext(ctx)
	signal.Stop(sigs)
	stop()
	if err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

type abortKey struct{}

// withInterrupts cancels the returned context on the first signal and the
// abort context (see abortContext) on the second.
func withInterrupts(parent context.Context, sigs <-chan os.Signal) (context.Context, context.CancelFunc) {
	abort, cancelAbort := context.WithCancel(parent)
	run, cancelRun := context.WithCancel(context.WithValue(parent, abortKey{}, abort))

	go func() {
		select {
		case <-sigs:
		case <-abort.Done():
			return
		}
		cancelRun()
		ui.PrintWarning("Interrupted, writing the partial result (interrupt again to skip image downloads)")

		select {
		case <-sigs:
			cancelAbort()
		case <-abort.Done():
		}
	}()

	return run, func() {
		cancelRun()
		cancelAbort()
	}
}

// abortContext returns the context ended by a second interrupt
func abortContext(ctx context.Context) (context.Context, bool) {
	abort, ok := ctx.Value(abortKey{}).(context.Context)
	return abort, ok
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default searches ./emojiharvest.yaml and ~/.config/emojiharvest/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "send a desktop notification when the run ends")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every collection cycle")

	addScrapeFlags(rootCmd)

	rootCmd.SetVersionTemplate(`emojiharvest {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// effectiveLogLevel folds --quiet and --verbose into the log level unless
// --log-level was given explicitly
func effectiveLogLevel(cmd *cobra.Command) (string, bool) {
	if cmd.Flags().Changed("log-level") {
		return logLevel, true
	}
	switch {
	case verbose:
		return "debug", true
	case quiet:
		return "error", true
	}
	return "", false
}
