package browser

import (
	"fmt"
	"strings"

	"emojiharvest/pkg/config"
)

// Selectors locate the picker's parts in the page
type Selectors struct {
	// List is the scrollable container
	List string
	// Item matches one emoji button inside the list
	Item string
	// NameAttr is the attribute holding the emoji name
	NameAttr string
	// ModeToggle opens the mode menu; empty when options are always shown
	ModeToggle string
	// ModeOption is a format string with one %s for the mode
	ModeOption string
}

// DefaultSelectors match Slack's emoji picker
func DefaultSelectors() Selectors {
	return Selectors{
		List:       "#emoji-picker-list",
		Item:       "#emoji-picker-list *[data-name]",
		NameAttr:   "data-name",
		ModeToggle: ".p-emoji_picker_skintone__toggle_btn",
		ModeOption: `[data-qa="emoji_skintone_option_%s"]`,
	}
}

// SelectorsFromConfig fills unset config selectors from the defaults
func SelectorsFromConfig(sc config.SelectorsConfig) Selectors {
	s := DefaultSelectors()
	if sc.List != "" {
		s.List = sc.List
	}
	if sc.Item != "" {
		s.Item = sc.Item
	}
	if sc.NameAttr != "" {
		s.NameAttr = sc.NameAttr
	}
	if sc.ModeToggle != "" {
		s.ModeToggle = sc.ModeToggle
	}
	if sc.ModeOption != "" {
		s.ModeOption = sc.ModeOption
	}
	return s
}

// Option returns the selector of the option for mode
func (s Selectors) Option(mode string) string {
	if !strings.Contains(s.ModeOption, "%s") {
		return s.ModeOption
	}
	return fmt.Sprintf(s.ModeOption, mode)
}
