package main

import (
	"fmt"
	"io"
	"time"

	"emojiharvest/pkg/config"
	"emojiharvest/pkg/manifest"
	"emojiharvest/pkg/ui"

	"github.com/spf13/cobra"
)

var manifestCheck bool

var manifestCmd = &cobra.Command{
	Use:   "manifest [path]",
	Short: "Summarise the manifest of the last run",
	Long: `Print the run manifest written next to the output file.

Without a path the manifest of the configured output is read, so
'emojiharvest manifest' after 'emojiharvest scrape -o emoji.json' reads
emoji.manifest.json. With --check the command fails unless the run was
complete, which makes it usable in scripts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runManifest,
}

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.Flags().BoolVar(&manifestCheck, "check", false, "exit with an error unless the run was complete")
}

func runManifest(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := config.Load(configFile, nil)
		if err != nil {
			return err
		}
		path = manifest.PathFor(cfg.Output.Path)
	}

	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	printManifest(cmd.OutOrStdout(), m)

	if manifestCheck && m.Status() != "complete" {
		return fmt.Errorf("run %s is %s: %s", m.RunID, m.Status(), m.Error)
	}
	return nil
}

func printManifest(w io.Writer, m *manifest.Manifest) {
	fmt.Fprintf(w, "Run:      %s\n", m.RunID)
	fmt.Fprintf(w, "Source:   %s\n", m.Source)
	fmt.Fprintf(w, "Status:   %s\n", m.Status())
	fmt.Fprintf(w, "Started:  %s\n", m.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Duration: %s\n", (time.Duration(m.DurationMS) * time.Millisecond).String())
	fmt.Fprintf(w, "Emoji:    %d\n", m.Total)
	fmt.Fprintf(w, "Cycles:   %d\n", m.Cycles())

	for _, e := range m.PerMode {
		fmt.Fprintf(w, "  mode %-10s cycles=%d advances=%d added=%d\n", e.Mode, e.Cycles, e.Advances, e.Added)
	}
	for _, out := range m.Outputs {
		fmt.Fprintf(w, "Output:   %s\n", out)
	}
	if m.Images != nil {
		fmt.Fprintf(w, "Images:   %d downloaded, %d skipped, %d failed (%s)\n",
			m.Images.Downloaded, m.Images.Skipped, m.Images.Failed, ui.FormatBytes(m.Images.Bytes))
	}
	if m.Error != "" {
		fmt.Fprintf(w, "Error:    [%s] %s\n", m.ErrorType, m.Error)
	}
}
