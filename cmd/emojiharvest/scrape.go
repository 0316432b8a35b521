package main

import (
	"fmt"
	"os"
	"time"

	"emojiharvest/pkg/auth"
	"emojiharvest/pkg/collector"
	"emojiharvest/pkg/config"
	errs "emojiharvest/pkg/errors"
	"emojiharvest/pkg/logger"
	"emojiharvest/pkg/scraper"
	"emojiharvest/pkg/ui"

	"github.com/spf13/cobra"
)

type scrapeOptions struct {
	source      string
	url         string
	remote      string
	headless    bool
	scrollStep  int
	apiURL      string
	account     string
	fixture     string
	modes       string
	delay       time.Duration
	maxAdvances int
	output      string
	format      string
	stdout      bool
	post        string
	images      string
	concurrent  int
}

var scrapeOpts scrapeOptions

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Collect every emoji of the picker and write the mapping",
	Long: `Collect every emoji of the picker, once per mode, and emit a single
name to URL mapping.

Each mode (skin tone) is selected in turn, the list is reset to the top and
scrolled until its end while visible emoji are merged into the result. When
an emoji appears in several modes the last mode wins.

If the run fails after the list was found, for example on Ctrl-C or when
scrolling stops making progress, whatever was collected is still written
and the exit status is 1.`,
	Example: `  # Attach to a Chrome started with --remote-debugging-port=9222 that shows the picker
  emojiharvest scrape --remote http://localhost:9222

  # Launch Chrome, open the workspace and wait for the picker
  emojiharvest scrape --url https://app.slack.com/client/T000/C000

  # Harvest a JSON listing instead of a browser
  emojiharvest scrape --source api --api-url https://emoji.example.com/v1/emoji --modes none

  # Replay a recorded fixture to stdout as YAML
  emojiharvest scrape --source replay --fixture picker.yaml --stdout --output "" --format yaml

  # Also download every image
  emojiharvest scrape --remote http://localhost:9222 --images ./emoji`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	addScrapeFlags(scrapeCmd)
}

func addScrapeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&scrapeOpts.source, "source", config.SourceBrowser, "view source: browser, api or replay")
	f.StringVar(&scrapeOpts.url, "url", "", "page to open before collecting (browser)")
	f.StringVar(&scrapeOpts.remote, "remote", "", "DevTools URL of a running Chrome to attach to (browser)")
	f.BoolVar(&scrapeOpts.headless, "headless", false, "run the launched Chrome headless (browser)")
	f.IntVar(&scrapeOpts.scrollStep, "scroll-step", 60, "pixels scrolled per advance (browser)")
	f.StringVar(&scrapeOpts.apiURL, "api-url", "", "emoji listing endpoint (api)")
	f.StringVar(&scrapeOpts.account, "account", "", "stored token account (api)")
	f.StringVar(&scrapeOpts.fixture, "fixture", "", "recorded fixture file (replay)")
	f.StringVar(&scrapeOpts.modes, "modes", "1,2,3,4", `comma separated modes, or "none" for a single pass`)
	f.DurationVar(&scrapeOpts.delay, "delay", collector.DefaultDelay, "pause after every advance")
	f.IntVar(&scrapeOpts.maxAdvances, "max-advances", 2000, "advances allowed per mode before the run stalls (0 = unbounded)")
	f.StringVarP(&scrapeOpts.output, "output", "o", "emoji.json", "output file (empty to disable)")
	f.StringVar(&scrapeOpts.format, "format", "json", "output format: json or yaml")
	f.BoolVar(&scrapeOpts.stdout, "stdout", false, "also write the result to stdout")
	f.StringVar(&scrapeOpts.post, "post", "", "also POST the result as JSON to this URL")
	f.StringVar(&scrapeOpts.images, "images", "", "download every image into this directory")
	f.IntVar(&scrapeOpts.concurrent, "concurrent", 4, "concurrent image downloads")
}

// changedFlags returns only the flags given on the command line, so that
// defaults do not override the config file or environment
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	fs := cmd.Flags()
	o := scrapeOpts
	flags := make(map[string]interface{})
	set := func(name string, v interface{}) {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			flags[name] = v
		}
	}

	set("source", o.source)
	set("url", o.url)
	set("remote", o.remote)
	set("headless", o.headless)
	set("scroll-step", o.scrollStep)
	set("api-url", o.apiURL)
	set("account", o.account)
	set("fixture", o.fixture)
	set("modes", config.SplitModes(o.modes))
	set("delay", o.delay)
	set("max-advances", o.maxAdvances)
	set("output", o.output)
	set("format", o.format)
	set("stdout", o.stdout)
	set("post", o.post)
	set("images", o.images)
	set("concurrent", o.concurrent)
	set("no-color", noColor)
	set("notifications", notifications)

	if level, ok := effectiveLogLevel(cmd); ok {
		flags["log-level"] = level
	}
	return flags
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	if !quiet {
		ui.PrintLogo()
		ui.PrintInfo("Source", cfg.Source.Kind)
	}

	opts := []scraper.Option{
		scraper.WithObserver(ui.NewProgressDisplay(os.Stderr, quiet)),
		scraper.WithLogger(log),
	}
	if abort, ok := abortContext(cmd.Context()); ok {
		opts = append(opts, scraper.WithAbort(abort))
	}
	if cfg.Source.Kind == config.SourceAPI {
		tokens, err := auth.NewManager()
		if err != nil {
			log.WithError(err).Warn("Token storage unavailable, calling the API without a token")
		} else {
			opts = append(opts, scraper.WithTokens(tokens))
		}
	}

	s, err := scraper.New(cfg, opts...)
	if err != nil {
		return err
	}

	report, err := s.Run(cmd.Context())
	if !quiet {
		printReport(s, report, err)
	}
	return err
}

func printReport(s *scraper.Scraper, report *collector.Report, runErr error) {
	ui.PrintInfo("Run", report.RunID)
	ui.PrintInfo("Emoji", fmt.Sprintf("%d", report.Total()))
	ui.PrintInfo("Duration", report.Duration().Round(time.Millisecond).String())

	switch {
	case runErr == nil:
		for _, out := range s.Outputs() {
			ui.PrintInfo("Written", out)
		}
		ui.PrintSuccess("Harvest complete")
	case report.Emitted:
		ui.PrintWarning(fmt.Sprintf("Partial result written (%s)", errs.TypeOf(runErr)))
	}
}
