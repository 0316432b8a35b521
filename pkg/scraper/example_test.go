package scraper_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"emojiharvest/pkg/config"
	"emojiharvest/pkg/logger"
	"emojiharvest/pkg/scraper"
	"emojiharvest/pkg/ui"
)

func ExampleScraper_Run() {
	dir, _ := os.MkdirTemp("", "emojiharvest-example")
	defer os.RemoveAll(dir)

	cfg := config.DefaultConfig()
	cfg.Source.Kind = config.SourceReplay
	cfg.Replay.Fixture = "../source/replay/testdata/picker.yaml"
	cfg.Collector.Delay = 0
	cfg.Output.Path = filepath.Join(dir, "emoji.json")

	s, err := scraper.New(cfg,
		scraper.WithLogger(logger.NewNopLogger()),
		scraper.WithNotifier(ui.NewNotifier(false, false, false)),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	report, err := s.Run(context.Background())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(report.Total(), report.Result["thumbsup"])
	// Output: 3 https://emoji.slack-edge.com/T0/thumbsup_2.png
}
