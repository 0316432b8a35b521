package collector

import (
	"context"
	"sync"
)

// fakeView serves a fixed list of frames per mode. Frame i is what is
// visible after i advances; the view is exhausted on the last frame unless
// endless is set.
type fakeView struct {
	frames  map[Mode][][]Item
	endless bool
	// hook may fail an operation; n counts calls of that operation from 1
	hook func(op string, n int) error

	mu       sync.Mutex
	mode     Mode
	pos      int
	calls    map[string]int
	selected []Mode
	located  int
}

func newFakeView(frames map[Mode][][]Item) *fakeView {
	return &fakeView{frames: frames, calls: map[string]int{}}
}

func (f *fakeView) op(name string) error {
	f.mu.Lock()
	f.calls[name]++
	n := f.calls[name]
	f.mu.Unlock()
	if f.hook != nil {
		return f.hook(name, n)
	}
	return nil
}

func (f *fakeView) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeView) Locate(ctx context.Context) error {
	return f.op("locate")
}

func (f *fakeView) SelectMode(ctx context.Context, mode Mode) error {
	if err := f.op("select"); err != nil {
		return err
	}
	f.mode = mode
	f.selected = append(f.selected, mode)
	return nil
}

func (f *fakeView) Reset(ctx context.Context) error {
	if err := f.op("reset"); err != nil {
		return err
	}
	f.pos = 0
	return nil
}

func (f *fakeView) Enumerate(ctx context.Context) ([]Item, error) {
	if err := f.op("enumerate"); err != nil {
		return nil, err
	}
	frames := f.frames[f.mode]
	if len(frames) == 0 {
		return nil, nil
	}
	i := f.pos
	if i >= len(frames) {
		i = len(frames) - 1
	}
	return frames[i], nil
}

func (f *fakeView) Exhausted(ctx context.Context) (bool, error) {
	if err := f.op("exhausted"); err != nil {
		return false, err
	}
	if f.endless {
		return false, nil
	}
	return f.pos >= len(f.frames[f.mode])-1, nil
}

func (f *fakeView) Advance(ctx context.Context) error {
	if err := f.op("advance"); err != nil {
		return err
	}
	f.pos++
	return nil
}

// viewOnly hides the optional interfaces of a fakeView
type viewOnly struct{ v *fakeView }

func (s viewOnly) Enumerate(ctx context.Context) ([]Item, error) { return s.v.Enumerate(ctx) }
func (s viewOnly) Exhausted(ctx context.Context) (bool, error)   { return s.v.Exhausted(ctx) }
func (s viewOnly) Advance(ctx context.Context) error             { return s.v.Advance(ctx) }
func (s viewOnly) Reset(ctx context.Context) error               { return s.v.Reset(ctx) }

type recordingSink struct {
	mu     sync.Mutex
	calls  int
	got    ResultSet
	ctxErr error
	err    error
}

func (s *recordingSink) Emit(ctx context.Context, result ResultSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.got = result.Clone()
	s.ctxErr = ctx.Err()
	return s.err
}

type recordingObserver struct {
	started  []Mode
	cycles   []CycleStats
	finished []ModeStats
}

func (o *recordingObserver) ModeStarted(mode Mode, index, total int) {
	o.started = append(o.started, mode)
}

func (o *recordingObserver) CycleCompleted(stats CycleStats) {
	o.cycles = append(o.cycles, stats)
}

func (o *recordingObserver) ModeFinished(stats ModeStats) {
	o.finished = append(o.finished, stats)
}

func items(kv ...string) []Item {
	out := make([]Item, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, Item{Key: kv[i], Value: kv[i+1]})
	}
	return out
}
