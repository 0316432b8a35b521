// Package scraper runs one harvest from a Config.
//
// New picks the view source named by source.kind (a Chrome-driven picker,
// a paginated HTTP listing or a recorded fixture) and builds the sinks the
// output and images sections ask for. Run then drives a collector over
// the source, emits the result once, writes the run manifest and reports
// the outcome through the logger and the notifier.
//
//	cfg, _ := config.Load("", nil)
//	s, err := scraper.New(cfg, scraper.WithObserver(ui.NewProgressDisplay(os.Stderr, false)))
//	if err != nil {
//		return err
//	}
//	report, err := s.Run(ctx)
//
// A failed run still returns its report; when the view was located the
// partial result has been emitted.
package scraper
