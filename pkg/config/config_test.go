package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Source.Kind != SourceBrowser {
		t.Errorf("Expected default source to be browser, got %s", config.Source.Kind)
	}
	if config.Collector.Delay != 200*time.Millisecond {
		t.Errorf("Expected default delay 200ms, got %v", config.Collector.Delay)
	}
	if got := strings.Join(config.Collector.Modes, ","); got != "1,2,3,4" {
		t.Errorf("Expected skin tone modes 1..4, got %s", got)
	}
	if config.Browser.ScrollStep != 60 {
		t.Errorf("Expected scroll step 60, got %d", config.Browser.ScrollStep)
	}
	if config.Output.Path != "emoji.json" {
		t.Errorf("Expected output emoji.json, got %s", config.Output.Path)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EMOJIHARVEST_SOURCE", "api")
	t.Setenv("EMOJIHARVEST_API_URL", "https://emoji.example.com/v1/emoji")
	t.Setenv("EMOJIHARVEST_MODES", "light, dark")
	t.Setenv("EMOJIHARVEST_DELAY", "50ms")
	t.Setenv("EMOJIHARVEST_MAX_ADVANCES", "10")
	t.Setenv("EMOJIHARVEST_HEADLESS", "true")
	t.Setenv("EMOJIHARVEST_LOG_LEVEL", "debug")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Source.Kind != SourceAPI {
		t.Errorf("Expected source api, got %s", config.Source.Kind)
	}
	if config.API.BaseURL != "https://emoji.example.com/v1/emoji" {
		t.Errorf("Unexpected api url %s", config.API.BaseURL)
	}
	if got := strings.Join(config.Collector.Modes, "|"); got != "light|dark" {
		t.Errorf("Expected modes light|dark, got %s", got)
	}
	if config.Collector.Delay != 50*time.Millisecond {
		t.Errorf("Expected delay 50ms, got %v", config.Collector.Delay)
	}
	if config.Collector.MaxAdvances != 10 {
		t.Errorf("Expected max advances 10, got %d", config.Collector.MaxAdvances)
	}
	if !config.Browser.Headless {
		t.Error("Expected headless to be enabled")
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvRejectsGarbage(t *testing.T) {
	t.Setenv("EMOJIHARVEST_DELAY", "soon")
	t.Setenv("EMOJIHARVEST_MAX_ADVANCES", "many")

	err := DefaultConfig().LoadFromEnv()
	if err == nil {
		t.Fatal("Expected an error for malformed values")
	}
	if !strings.Contains(err.Error(), "EMOJIHARVEST_DELAY") || !strings.Contains(err.Error(), "EMOJIHARVEST_MAX_ADVANCES") {
		t.Errorf("Expected both variables to be reported, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emojiharvest.yaml")
	content := `
source:
  kind: replay
replay:
  fixture: picker.yaml
collector:
  modes: []
  delay: 10ms
  max_advances: 5
output:
  path: out/emoji.yaml
  format: yaml
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if config.Source.Kind != SourceReplay || config.Replay.Fixture != "picker.yaml" {
		t.Errorf("Unexpected source section: %+v %+v", config.Source, config.Replay)
	}
	if len(config.Collector.Modes) != 0 {
		t.Errorf("Expected explicit empty modes, got %v", config.Collector.Modes)
	}
	if config.Collector.Delay != 10*time.Millisecond {
		t.Errorf("Expected delay 10ms, got %v", config.Collector.Delay)
	}
	if config.Output.Format != "yaml" {
		t.Errorf("Expected yaml format, got %s", config.Output.Format)
	}
	// untouched sections keep defaults
	if config.Browser.ScrollStep != 60 {
		t.Errorf("Expected default scroll step to survive, got %d", config.Browser.ScrollStep)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	if err := config.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for an explicit missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown source", func(c *Config) { c.Source.Kind = "carrier-pigeon" }, "unknown source kind"},
		{"api without url", func(c *Config) { c.Source.Kind = SourceAPI }, "api base url is required"},
		{"api bad url", func(c *Config) { c.Source.Kind = SourceAPI; c.API.BaseURL = "not a url" }, "invalid api base url"},
		{"replay without fixture", func(c *Config) { c.Source.Kind = SourceReplay }, "fixture path is required"},
		{"negative delay", func(c *Config) { c.Collector.Delay = -time.Second }, "delay cannot be negative"},
		{"negative bound", func(c *Config) { c.Collector.MaxAdvances = -1 }, "max advances cannot be negative"},
		{"duplicate mode", func(c *Config) { c.Collector.Modes = []string{"1", "1"} }, "duplicate mode"},
		{"no output", func(c *Config) { c.Output.Path = "" }, "at least one output"},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, "invalid output format"},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }, "invalid log level"},
		{"image workers", func(c *Config) { c.Images.Directory = "img"; c.Images.ConcurrentWorkers = 0 }, "between 1 and 16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if err == nil {
				t.Fatalf("Expected validation error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"source":       SourceAPI,
		"api-url":      "http://localhost:8080/emoji",
		"modes":        []string{},
		"delay":        5 * time.Millisecond,
		"max-advances": 0,
		"stdout":       true,
		"output":       "",
		"log-level":    "warn",
	})

	if config.Source.Kind != SourceAPI {
		t.Errorf("Expected source api, got %s", config.Source.Kind)
	}
	if len(config.Collector.Modes) != 0 {
		t.Errorf("Expected modes to be cleared, got %v", config.Collector.Modes)
	}
	if config.Collector.MaxAdvances != 0 {
		t.Errorf("Expected unbounded advances, got %d", config.Collector.MaxAdvances)
	}
	if !config.Output.Stdout || config.Output.Path != "" {
		t.Errorf("Expected stdout-only output, got %+v", config.Output)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Expected merged config to validate, got %v", err)
	}
}

func TestSplitModes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1,2,3,4", "1|2|3|4"},
		{" 1 , ,2 ", "1|2"},
		{"none", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := strings.Join(SplitModes(tt.in), "|"); got != tt.want {
			t.Errorf("SplitModes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	config := DefaultConfig()
	config.Collector.Delay = 75 * time.Millisecond
	if err := config.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := DefaultConfig()
	loaded.Collector.Delay = 0
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Collector.Delay != 75*time.Millisecond {
		t.Errorf("Expected delay to survive a save, got %v", loaded.Collector.Delay)
	}
}

func TestLoad(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("EMOJIHARVEST_OUTPUT", "env.json")

	config, err := Load("", map[string]interface{}{"format": "yaml"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Output.Path != "env.json" {
		t.Errorf("Expected env to override default path, got %s", config.Output.Path)
	}
	if config.Output.Format != "yaml" {
		t.Errorf("Expected flag to override format, got %s", config.Output.Format)
	}
}
