package collector

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	errs "emojiharvest/pkg/errors"
	"emojiharvest/pkg/logger"
	"emojiharvest/pkg/retry"

	"github.com/google/uuid"
)

const (
	// DefaultDelay gives the view time to render after a scroll
	DefaultDelay = 200 * time.Millisecond
)

// Options configures a Collector
type Options struct {
	// Modes are processed in order. Empty means one pass without mode
	// selection.
	Modes []Mode
	// Delay is the pause after every advance
	Delay time.Duration
	// MaxAdvances bounds the advances made within one mode; 0 disables the
	// bound
	MaxAdvances int
	// RunID identifies the run in logs and reports; generated when empty
	RunID    string
	Observer Observer
	Logger   logger.Logger
}

// Collector polls a view until it is exhausted, once per mode, merging
// everything it sees into a single result
type Collector struct {
	source   ViewSource
	selector ModeSelector
	sink     Sink
	opts     Options
	observer Observer
	logger   logger.Logger
}

// New validates the options and builds a Collector
func New(source ViewSource, sink Sink, opts Options) (*Collector, error) {
	if source == nil {
		return nil, fmt.Errorf("view source is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if opts.Delay < 0 {
		return nil, fmt.Errorf("delay cannot be negative: %v", opts.Delay)
	}
	if opts.MaxAdvances < 0 {
		return nil, fmt.Errorf("max advances cannot be negative: %d", opts.MaxAdvances)
	}

	c := &Collector{
		source:   source,
		sink:     sink,
		opts:     opts,
		observer: opts.Observer,
		logger:   opts.Logger,
	}

	if len(opts.Modes) > 0 {
		selector, ok := source.(ModeSelector)
		if !ok {
			return nil, fmt.Errorf("source %T cannot select modes", source)
		}
		c.selector = selector

		seen := make(map[Mode]bool, len(opts.Modes))
		for _, m := range opts.Modes {
			if seen[m] {
				return nil, fmt.Errorf("duplicate mode %q", m)
			}
			seen[m] = true
		}
	}

	if c.observer == nil {
		c.observer = NopObserver{}
	}
	if c.logger == nil {
		c.logger = logger.GetLogger()
	}
	return c, nil
}

// Run collects every mode and emits the result. On failure after the view
// was located, whatever was collected is still emitted and the returned
// error carries the failure type. The report is always non-nil.
func (c *Collector) Run(ctx context.Context) (*Report, error) {
	runID := c.opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	report := &Report{
		RunID:     runID,
		Result:    ResultSet{},
		StartedAt: time.Now(),
	}
	log := c.logger.WithField("run_id", runID)

	if locator, ok := c.source.(Locator); ok {
		if err := locator.Locate(ctx); err != nil {
			report.FinishedAt = time.Now()
			if ctx.Err() != nil {
				return report, cancelled(ctx)
			}
			log.WithError(err).Error("View source unavailable")
			return report, errs.Wrap(errs.ErrorTypeViewUnavailable, err, "view source could not be located")
		}
	}

	modes := c.opts.Modes
	if len(modes) == 0 {
		modes = []Mode{DefaultMode}
	}

	var runErr error
	for i, mode := range modes {
		stats, err := c.collectMode(ctx, log, report.Result, mode, i, len(modes))
		report.Modes = append(report.Modes, stats)
		if err != nil {
			runErr = err
			break
		}
	}

	report.Partial = runErr != nil
	if runErr != nil {
		log.WithError(runErr).WarnWithFields("Collection stopped early, emitting partial result", map[string]interface{}{
			"total": len(report.Result),
		})
	}

	// A cancelled run still hands over what it has.
	emitCtx := ctx
	if ctx.Err() != nil {
		emitCtx = context.WithoutCancel(ctx)
	}
	if err := c.sink.Emit(emitCtx, report.Result); err != nil {
		report.FinishedAt = time.Now()
		sinkErr := errs.Wrap(errs.ErrorTypeSink, err, "failed to emit result")
		log.WithError(err).Error("Emit failed")
		if runErr != nil {
			return report, stderrors.Join(runErr, sinkErr)
		}
		return report, sinkErr
	}
	report.Emitted = true
	report.FinishedAt = time.Now()

	log.InfoWithFields("Collection finished", map[string]interface{}{
		"total":    len(report.Result),
		"modes":    len(report.Modes),
		"partial":  report.Partial,
		"duration": report.Duration(),
	})
	return report, runErr
}

func (c *Collector) collectMode(ctx context.Context, log logger.Logger, result ResultSet, mode Mode, index, total int) (stats ModeStats, err error) {
	stats.Mode = mode
	start := time.Now()
	c.observer.ModeStarted(mode, index, total)
	defer func() {
		stats.Duration = time.Since(start)
		c.observer.ModeFinished(stats)
		if err == nil {
			logger.LogModeComplete(log, string(mode), stats.Cycles, stats.Added, stats.Duration)
		}
	}()

	if c.selector != nil {
		if err := ctx.Err(); err != nil {
			return stats, cancelled(ctx)
		}
		if err := c.selector.SelectMode(ctx, mode); err != nil {
			return stats, c.failure(ctx, errs.ErrorTypeModeSelection, err, mode, 0, "failed to select mode")
		}
	}

	if err := c.source.Reset(ctx); err != nil {
		return stats, c.failure(ctx, errs.ErrorTypeReset, err, mode, 0, "failed to reset view")
	}

	for {
		stats.Cycles++

		items, err := c.source.Enumerate(ctx)
		if err != nil {
			return stats, c.failure(ctx, errs.ErrorTypeEnumerate, err, mode, stats.Cycles, "failed to enumerate visible items")
		}
		added := result.Merge(items)
		stats.Added += added

		c.observer.CycleCompleted(CycleStats{
			Mode:    mode,
			Cycle:   stats.Cycles,
			Visible: len(items),
			Added:   added,
			Total:   len(result),
		})
		logger.LogCycle(log, string(mode), stats.Cycles, len(items), added, len(result))

		done, err := c.source.Exhausted(ctx)
		if err != nil {
			return stats, c.failure(ctx, errs.ErrorTypeEnumerate, err, mode, stats.Cycles, "failed to check exhaustion")
		}
		if done {
			return stats, nil
		}

		if c.opts.MaxAdvances > 0 && stats.Advances >= c.opts.MaxAdvances {
			return stats, &errs.Error{
				Type:    errs.ErrorTypeStall,
				Message: fmt.Sprintf("view not exhausted after %d advances", stats.Advances),
				Mode:    string(mode),
				Cycle:   stats.Cycles,
			}
		}

		if err := c.source.Advance(ctx); err != nil {
			return stats, c.failure(ctx, errs.ErrorTypeAdvance, err, mode, stats.Cycles, "failed to advance view")
		}
		stats.Advances++

		if err := retry.Wait(ctx, c.opts.Delay); err != nil {
			return stats, cancelled(ctx)
		}
	}
}

// failure types a collaborator error, preferring cancellation when the
// context is already done
func (c *Collector) failure(ctx context.Context, t errs.ErrorType, err error, mode Mode, cycle int, msg string) error {
	if ctx.Err() != nil {
		return cancelled(ctx)
	}
	return &errs.Error{Type: t, Message: msg, Mode: string(mode), Cycle: cycle, Err: err}
}

func cancelled(ctx context.Context) error {
	return errs.Wrap(errs.ErrorTypeCancelled, ctx.Err(), "collection cancelled")
}
