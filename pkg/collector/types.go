package collector

import (
	"sort"
	"time"
)

// Mode identifies an external context of the view, such as a skin tone.
// The collector never interprets it.
type Mode string

// DefaultMode stands in for the single pass made when no modes are given
const DefaultMode Mode = ""

// Item is one entry read off the view
type Item struct {
	Key   string `json:"name" yaml:"name"`
	Value string `json:"url" yaml:"url"`
}

// ResultSet maps item keys to the value from their latest observation
type ResultSet map[string]string

// Merge writes items into the set, overwriting existing keys, and returns
// how many keys were not present before. Items with an empty key are
// skipped.
func (r ResultSet) Merge(items []Item) int {
	added := 0
	for _, item := range items {
		if item.Key == "" {
			continue
		}
		if _, ok := r[item.Key]; !ok {
			added++
		}
		r[item.Key] = item.Value
	}
	return added
}

// Keys returns the keys in sorted order
func (r ResultSet) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Items returns the set as items sorted by key
func (r ResultSet) Items() []Item {
	items := make([]Item, 0, len(r))
	for _, k := range r.Keys() {
		items = append(items, Item{Key: k, Value: r[k]})
	}
	return items
}

// Clone returns an independent copy
func (r ResultSet) Clone() ResultSet {
	out := make(ResultSet, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// CycleStats describes one enumerate-and-merge pass
type CycleStats struct {
	Mode    Mode
	Cycle   int
	Visible int
	Added   int
	Total   int
}

// ModeStats summarises the work done for one mode
type ModeStats struct {
	Mode     Mode          `json:"mode"`
	Cycles   int           `json:"cycles"`
	Advances int           `json:"advances"`
	Added    int           `json:"added"`
	Duration time.Duration `json:"duration"`
}

// Report is the outcome of a run. It is returned even when Run fails so
// the accumulated result is never lost.
type Report struct {
	RunID      string
	Result     ResultSet
	Modes      []ModeStats
	Partial    bool
	Emitted    bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Total returns the number of distinct keys collected
func (r *Report) Total() int {
	return len(r.Result)
}

// Cycles returns the number of cycles across all modes
func (r *Report) Cycles() int {
	n := 0
	for _, m := range r.Modes {
		n += m.Cycles
	}
	return n
}

// Duration returns the wall time of the run
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
