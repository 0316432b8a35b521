package collector

import "context"

// ViewSource is the view being harvested: a scrollable list, a paginated
// API or a recorded fixture.
type ViewSource interface {
	// Enumerate returns the items currently observable
	Enumerate(ctx context.Context) ([]Item, error)
	// Exhausted reports whether advancing can reveal nothing more in the
	// current mode
	Exhausted(ctx context.Context) (bool, error)
	// Advance reveals more items, e.g. by scrolling a fixed step
	Advance(ctx context.Context) error
	// Reset returns the view to its start position
	Reset(ctx context.Context) error
}

// ModeSelector is implemented by sources that can switch mode
type ModeSelector interface {
	SelectMode(ctx context.Context, mode Mode) error
}

// Locator is implemented by sources that must find their view before the
// first mode. A Locate failure aborts the run without emitting.
type Locator interface {
	Locate(ctx context.Context) error
}

// Sink receives the final result exactly once per run
type Sink interface {
	Emit(ctx context.Context, result ResultSet) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(ctx context.Context, result ResultSet) error

// Emit calls f(ctx, result)
func (f SinkFunc) Emit(ctx context.Context, result ResultSet) error {
	return f(ctx, result)
}

// Observer is notified as a run progresses. Calls are made from the
// collector's goroutine.
type Observer interface {
	ModeStarted(mode Mode, index, total int)
	CycleCompleted(stats CycleStats)
	ModeFinished(stats ModeStats)
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) ModeStarted(Mode, int, int)  {}
func (NopObserver) CycleCompleted(CycleStats)   {}
func (NopObserver) ModeFinished(ModeStats)      {}
