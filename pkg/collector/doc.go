// Package collector implements the incremental collection loop at the heart
// of emojiharvest.
//
// A run reads the currently visible items of a ViewSource, merges them into
// a ResultSet keyed by name, and advances the view until it reports
// exhaustion. With modes configured the whole pass repeats once per mode,
// selecting the mode and resetting the view first, and keeps merging into
// the same set. A key seen in several modes keeps the value from the last
// mode that showed it.
//
// The Sink receives the result exactly once, at the end of the run. If the
// run fails part way (a mode cannot be selected, the view stalls past
// MaxAdvances, a collaborator errors or the context is cancelled) the
// partial result is emitted anyway and the error returned by Run carries
// the failure type from pkg/errors. Only a source that cannot be located
// at all skips the emit.
//
//	c, err := collector.New(source, sink.NewFile("emoji.json", sink.FormatJSON), collector.Options{
//		Modes:       []collector.Mode{"1", "2", "3", "4"},
//		Delay:       collector.DefaultDelay,
//		MaxAdvances: 2000,
//	})
//	if err != nil {
//		return err
//	}
//	report, err := c.Run(ctx)
package collector
