package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"emojiharvest/internal/downloader"
	"emojiharvest/pkg/collector"
	errs "emojiharvest/pkg/errors"
	"emojiharvest/pkg/sink"
)

// Manifest describes one harvest run
type Manifest struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	Modes      []string  `json:"modes"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`

	Total   int  `json:"total"`
	Partial bool `json:"partial"`
	Emitted bool `json:"emitted"`

	ErrorType string `json:"error_type,omitempty"`
	Error     string `json:"error,omitempty"`

	PerMode []ModeEntry         `json:"per_mode"`
	Outputs []string            `json:"outputs,omitempty"`
	Images  *downloader.Summary `json:"images,omitempty"`
}

// ModeEntry is the per-mode part of a manifest
type ModeEntry struct {
	Mode       string `json:"mode"`
	Cycles     int    `json:"cycles"`
	Advances   int    `json:"advances"`
	Added      int    `json:"added"`
	DurationMS int64  `json:"duration_ms"`
}

// FromReport builds a manifest from a collector report and the error Run
// returned with it
func FromReport(report *collector.Report, runErr error, source string) *Manifest {
	m := &Manifest{
		RunID:      report.RunID,
		Source:     source,
		Modes:      []string{},
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		DurationMS: report.Duration().Milliseconds(),
		Total:      report.Total(),
		Partial:    report.Partial,
		Emitted:    report.Emitted,
		PerMode:    []ModeEntry{},
	}

	for _, s := range report.Modes {
		if s.Mode != collector.DefaultMode {
			m.Modes = append(m.Modes, string(s.Mode))
		}
		m.PerMode = append(m.PerMode, ModeEntry{
			Mode:       string(s.Mode),
			Cycles:     s.Cycles,
			Advances:   s.Advances,
			Added:      s.Added,
			DurationMS: s.Duration.Milliseconds(),
		})
	}

	if runErr != nil {
		m.ErrorType = string(errs.TypeOf(runErr))
		m.Error = runErr.Error()
	}
	return m
}

// PathFor returns the manifest path that sits next to an output file:
// emoji.json gives emoji.manifest.json
func PathFor(outputPath string) string {
	if outputPath == "" {
		return "emojiharvest.manifest.json"
	}
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + ".manifest.json"
}

// Save writes the manifest as indented JSON
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}
	if err := sink.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

// Load reads a manifest written by Save
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Status summarises the outcome in one word
func (m *Manifest) Status() string {
	switch {
	case m.Error == "":
		return "complete"
	case !m.Emitted:
		return "failed"
	case m.Partial:
		return "partial"
	default:
		return "failed"
	}
}

// Cycles returns the cycle count across all modes
func (m *Manifest) Cycles() int {
	n := 0
	for _, e := range m.PerMode {
		n += e.Cycles
	}
	return n
}
