package browser

import (
	"context"
	"fmt"
	"time"

	"emojiharvest/pkg/collector"
	"emojiharvest/pkg/logger"
	"emojiharvest/pkg/retry"
)

// DefaultStep is the scroll distance of one advance, in pixels
const DefaultStep = 60

// mouseClick is the event sequence the picker's option menu reacts to
var mouseClick = []string{"mouseover", "mousedown", "mouseup", "click"}

// Source reads an emoji picker list off a Page
type Source struct {
	page   Page
	sel    Selectors
	step   int
	settle time.Duration
	logger logger.Logger
}

// Option customises a Source
type Option func(*Source)

// WithStep sets the scroll distance per advance
func WithStep(px int) Option {
	return func(s *Source) {
		if px > 0 {
			s.step = px
		}
	}
}

// WithSettle sets the pause after a mode switch for the list to re-render
func WithSettle(d time.Duration) Option {
	return func(s *Source) { s.settle = d }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Source) { s.logger = l }
}

// NewSource returns a source over page
func NewSource(page Page, sel Selectors, opts ...Option) *Source {
	s := &Source{
		page:   page,
		sel:    sel,
		step:   DefaultStep,
		settle: collector.DefaultDelay,
		logger: logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locate checks that the list is on the page
func (s *Source) Locate(ctx context.Context) error {
	ok, err := s.page.Exists(ctx, s.sel.List)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("list %s not found on page", s.sel.List)
	}
	return nil
}

// SelectMode opens the mode menu and clicks the option for mode
func (s *Source) SelectMode(ctx context.Context, mode collector.Mode) error {
	if s.sel.ModeToggle != "" {
		ok, err := s.page.Click(ctx, s.sel.ModeToggle)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("mode toggle %s not found", s.sel.ModeToggle)
		}
	}

	option := s.sel.Option(string(mode))
	ok, err := s.page.DispatchMouse(ctx, option, mouseClick...)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("mode option %s not found", option)
	}

	s.logger.DebugWithFields("Mode selected", map[string]interface{}{"mode": string(mode)})
	return retry.Wait(ctx, s.settle)
}

func (s *Source) Reset(ctx context.Context) error {
	return s.page.ScrollTo(ctx, s.sel.List, 0)
}

func (s *Source) Enumerate(ctx context.Context) ([]collector.Item, error) {
	return s.page.Items(ctx, s.sel.Item, s.sel.NameAttr)
}

// Exhausted is true once the list's visible bottom reaches its content
// height
func (s *Source) Exhausted(ctx context.Context) (bool, error) {
	m, err := s.page.Metrics(ctx, s.sel.List)
	if err != nil {
		return false, err
	}
	if !m.Found {
		return false, fmt.Errorf("list %s disappeared", s.sel.List)
	}
	return m.AtEnd(), nil
}

func (s *Source) Advance(ctx context.Context) error {
	return s.page.ScrollBy(ctx, s.sel.List, s.step)
}
