// Package replay serves a recorded emoji picker from a fixture file, for
// dry runs and for exercising the whole pipeline without a browser.
//
// A fixture lists what was visible after each scroll step:
//
//	frames:            # used when no modes are selected
//	  - [{name: wave, url: https://.../wave.png}]
//	  - [{name: wave, url: ...}, {name: clap, url: ...}]
//	modes:
//	  "2":
//	    - [{name: wave, url: https://.../wave_2.png}]
//
// The view is exhausted on the last frame of the selected mode. Modes are
// replayed in the order the fixture lists them.
package replay

import (
	"context"
	"fmt"
	"os"
	"sync"

	"emojiharvest/pkg/collector"

	"gopkg.in/yaml.v3"
)

// Fixture is the on-disk form of a recorded picker. JSON is accepted too.
type Fixture struct {
	Frames [][]collector.Item `yaml:"frames"`
	Modes  ModeList           `yaml:"modes"`
}

// ModeFrames is what one mode showed after each scroll step
type ModeFrames struct {
	Mode   collector.Mode
	Frames [][]collector.Item
}

// ModeList keeps the recorded modes in document order
type ModeList []ModeFrames

// UnmarshalYAML decodes the modes mapping pair by pair so the order of the
// file survives.
func (l *ModeList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*l = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: modes must be a mapping of mode to frames", node.Line)
	}
	list := make(ModeList, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var mode string
		if err := node.Content[i].Decode(&mode); err != nil {
			return err
		}
		if _, ok := list.frames(collector.Mode(mode)); ok {
			return fmt.Errorf("line %d: duplicate mode %q", node.Content[i].Line, mode)
		}
		var frames [][]collector.Item
		if err := node.Content[i+1].Decode(&frames); err != nil {
			return fmt.Errorf("mode %q: %w", mode, err)
		}
		list = append(list, ModeFrames{Mode: collector.Mode(mode), Frames: frames})
	}
	*l = list
	return nil
}

func (l ModeList) frames(mode collector.Mode) ([][]collector.Item, bool) {
	for _, m := range l {
		if m.Mode == mode {
			return m.Frames, true
		}
	}
	return nil, false
}

// Source replays a Fixture
type Source struct {
	fixture *Fixture

	mu     sync.Mutex
	frames [][]collector.Item
	pos    int
}

// Load reads a fixture file
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return New(&f), nil
}

// New serves f, starting in the default mode
func New(f *Fixture) *Source {
	return &Source{fixture: f, frames: f.Frames}
}

// Modes returns the fixture's recorded modes in file order
func (s *Source) Modes() []collector.Mode {
	modes := make([]collector.Mode, 0, len(s.fixture.Modes))
	for _, m := range s.fixture.Modes {
		modes = append(modes, m.Mode)
	}
	return modes
}

// Locate fails when the fixture recorded nothing at all
func (s *Source) Locate(ctx context.Context) error {
	if len(s.fixture.Frames) == 0 && len(s.fixture.Modes) == 0 {
		return fmt.Errorf("fixture has no frames")
	}
	return nil
}

func (s *Source) SelectMode(ctx context.Context, mode collector.Mode) error {
	frames, ok := s.fixture.Modes.frames(mode)
	if !ok {
		return fmt.Errorf("fixture has no mode %q", mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = frames
	s.pos = 0
	return nil
}

func (s *Source) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = 0
	return nil
}

func (s *Source) Enumerate(ctx context.Context) ([]collector.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.frames) {
		return nil, nil
	}
	return s.frames[s.pos], nil
}

func (s *Source) Exhausted(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos >= len(s.frames)-1, nil
}

func (s *Source) Advance(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.frames)-1 {
		return fmt.Errorf("advanced past the last frame")
	}
	s.pos++
	return nil
}
