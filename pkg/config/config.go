package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source kinds
const (
	SourceBrowser = "browser"
	SourceAPI     = "api"
	SourceReplay  = "replay"
)

// EnvPrefix is the prefix of every environment variable read by LoadFromEnv
const EnvPrefix = "EMOJIHARVEST_"

// Config holds all configuration options for a harvest run
type Config struct {
	Source        SourceConfig       `yaml:"source" json:"source"`
	Browser       BrowserConfig      `yaml:"browser" json:"browser"`
	API           APIConfig          `yaml:"api" json:"api"`
	Replay        ReplayConfig       `yaml:"replay" json:"replay"`
	Collector     CollectorConfig    `yaml:"collector" json:"collector"`
	Output        OutputConfig       `yaml:"output" json:"output"`
	Images        ImagesConfig       `yaml:"images" json:"images"`
	RateLimit     RateLimitConfig    `yaml:"rate_limit" json:"rate_limit"`
	Retry         RetryConfig        `yaml:"retry" json:"retry"`
	Logging       LoggingConfig      `yaml:"logging" json:"logging"`
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`
}

// SourceConfig selects where items are read from
type SourceConfig struct {
	Kind string `yaml:"kind" json:"kind"`
}

// BrowserConfig configures the Chrome-driven picker source
type BrowserConfig struct {
	// RemoteURL is a DevTools websocket or http endpoint of an already
	// running Chrome (started with --remote-debugging-port). When empty a
	// new browser is launched.
	RemoteURL   string          `yaml:"remote_url" json:"remote_url"`
	URL         string          `yaml:"url" json:"url"`
	Headless    bool            `yaml:"headless" json:"headless"`
	UserDataDir string          `yaml:"user_data_dir" json:"user_data_dir"`
	ExecPath    string          `yaml:"exec_path" json:"exec_path"`
	ScrollStep  int             `yaml:"scroll_step" json:"scroll_step"`
	WaitTimeout time.Duration   `yaml:"wait_timeout" json:"wait_timeout"`
	Selectors   SelectorsConfig `yaml:"selectors" json:"selectors"`
}

// SelectorsConfig holds the DOM selectors of the picker. ModeOption is a
// format string receiving the mode identifier.
type SelectorsConfig struct {
	List       string `yaml:"list" json:"list"`
	Item       string `yaml:"item" json:"item"`
	NameAttr   string `yaml:"name_attr" json:"name_attr"`
	ModeToggle string `yaml:"mode_toggle" json:"mode_toggle"`
	ModeOption string `yaml:"mode_option" json:"mode_option"`
}

// APIConfig configures the paginated HTTP source
type APIConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	PageSize  int           `yaml:"page_size" json:"page_size"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	// Account names the stored token to send as a bearer credential
	Account string `yaml:"account" json:"account"`
}

// ReplayConfig configures the recorded-fixture source
type ReplayConfig struct {
	Fixture string `yaml:"fixture" json:"fixture"`
}

// CollectorConfig holds the polling loop settings
type CollectorConfig struct {
	Modes       []string      `yaml:"modes" json:"modes"`
	Delay       time.Duration `yaml:"delay" json:"delay"`
	MaxAdvances int           `yaml:"max_advances" json:"max_advances"`
}

// OutputConfig holds where the harvested mapping is emitted
type OutputConfig struct {
	Path     string `yaml:"path" json:"path"`
	Format   string `yaml:"format" json:"format"`
	Stdout   bool   `yaml:"stdout" json:"stdout"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Manifest bool   `yaml:"manifest" json:"manifest"`
}

// ImagesConfig configures the optional image download after a run
type ImagesConfig struct {
	Directory         string        `yaml:"directory" json:"directory"`
	ConcurrentWorkers int           `yaml:"concurrent_workers" json:"concurrent_workers"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	OverwriteExisting bool          `yaml:"overwrite_existing" json:"overwrite_existing"`
}

// RateLimitConfig holds rate limiting configuration for HTTP collaborators
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry configuration for HTTP collaborators
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier" json:"multiplier"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	Format  string `yaml:"format" json:"format"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// NotificationConfig holds desktop notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	OnComplete bool `yaml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" json:"on_error"`
}

// DefaultConfig returns a Config with the Slack emoji picker defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{Kind: SourceBrowser},
		Browser: BrowserConfig{
			URL:         "",
			Headless:    false,
			ScrollStep:  60,
			WaitTimeout: 30 * time.Second,
			Selectors: SelectorsConfig{
				List:       "#emoji-picker-list",
				Item:       "#emoji-picker-list *[data-name]",
				NameAttr:   "data-name",
				ModeToggle: ".p-emoji_picker_skintone__toggle_btn",
				ModeOption: `[data-qa="emoji_skintone_option_%s"]`,
			},
		},
		API: APIConfig{
			PageSize:  100,
			Timeout:   30 * time.Second,
			UserAgent: "emojiharvest/1.0",
		},
		Collector: CollectorConfig{
			Modes:       []string{"1", "2", "3", "4"},
			Delay:       200 * time.Millisecond,
			MaxAdvances: 2000,
		},
		Output: OutputConfig{
			Path:     "emoji.json",
			Format:   "json",
			Manifest: true,
		},
		Images: ImagesConfig{
			ConcurrentWorkers: 4,
			Timeout:           30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
			BurstSize:         10,
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			MaxBackoff:     30 * time.Second,
			Multiplier:     2.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Notifications: NotificationConfig{
			Enabled:    false,
			OnComplete: true,
			OnError:    true,
		},
	}
}

// LoadFromEnv loads configuration from EMOJIHARVEST_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(name string, dst *bool) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("SOURCE", &c.Source.Kind)
	str("REMOTE_URL", &c.Browser.RemoteURL)
	str("URL", &c.Browser.URL)
	boolean("HEADLESS", &c.Browser.Headless)
	str("API_URL", &c.API.BaseURL)
	str("API_ACCOUNT", &c.API.Account)
	str("FIXTURE", &c.Replay.Fixture)
	if v := os.Getenv(EnvPrefix + "MODES"); v != "" {
		c.Collector.Modes = SplitModes(v)
	}
	dur("DELAY", &c.Collector.Delay)
	num("MAX_ADVANCES", &c.Collector.MaxAdvances)
	str("OUTPUT", &c.Output.Path)
	str("FORMAT", &c.Output.Format)
	str("POST_URL", &c.Output.Endpoint)
	str("IMAGES_DIR", &c.Images.Directory)
	num("REQUESTS_PER_MINUTE", &c.RateLimit.RequestsPerMinute)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FILE", &c.Logging.File)
	boolean("NOTIFICATIONS_ENABLED", &c.Notifications.Enabled)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file. An empty path
// searches the default locations; finding nothing is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"emojiharvest.yaml",
		".emojiharvest.yaml",
		".emojiharvest.yml",
		filepath.Join(home, ".config", "emojiharvest", "config.yaml"),
		filepath.Join(home, ".emojiharvest.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	switch c.Source.Kind {
	case SourceBrowser:
		if c.Browser.Selectors.List == "" || c.Browser.Selectors.Item == "" || c.Browser.Selectors.NameAttr == "" {
			errs = append(errs, errors.New("browser selectors list, item and name_attr are required"))
		}
		if len(c.Collector.Modes) > 0 && (c.Browser.Selectors.ModeToggle == "" || c.Browser.Selectors.ModeOption == "") {
			errs = append(errs, errors.New("browser mode selectors are required when modes are configured"))
		}
		if c.Browser.ScrollStep <= 0 {
			errs = append(errs, errors.New("scroll step must be positive"))
		}
	case SourceAPI:
		if c.API.BaseURL == "" {
			errs = append(errs, errors.New("api base url is required for the api source"))
		} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid api base url: %q", c.API.BaseURL))
		}
		if c.API.PageSize <= 0 {
			errs = append(errs, errors.New("api page size must be positive"))
		}
	case SourceReplay:
		if c.Replay.Fixture == "" {
			errs = append(errs, errors.New("replay fixture path is required for the replay source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source kind %q", c.Source.Kind))
	}

	if c.Collector.Delay < 0 {
		errs = append(errs, errors.New("collector delay cannot be negative"))
	}
	if c.Collector.MaxAdvances < 0 {
		errs = append(errs, errors.New("max advances cannot be negative"))
	}
	seen := make(map[string]bool)
	for _, m := range c.Collector.Modes {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, errors.New("mode identifiers cannot be empty"))
		} else if seen[m] {
			errs = append(errs, fmt.Errorf("duplicate mode %q", m))
		}
		seen[m] = true
	}

	if c.Output.Path == "" && !c.Output.Stdout && c.Output.Endpoint == "" {
		errs = append(errs, errors.New("at least one output (path, stdout or endpoint) is required"))
	}
	if f := strings.ToLower(c.Output.Format); f != "json" && f != "yaml" {
		errs = append(errs, fmt.Errorf("invalid output format %q", c.Output.Format))
	}

	if c.Images.Directory != "" && (c.Images.ConcurrentWorkers < 1 || c.Images.ConcurrentWorkers > 16) {
		errs = append(errs, errors.New("concurrent image workers must be between 1 and 16"))
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges flags that were explicitly set on the
// command line. Keys are the flag names.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["source"].(string); ok && v != "" {
		c.Source.Kind = v
	}
	if v, ok := flags["remote"].(string); ok && v != "" {
		c.Browser.RemoteURL = v
	}
	if v, ok := flags["url"].(string); ok && v != "" {
		c.Browser.URL = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["scroll-step"].(int); ok && v > 0 {
		c.Browser.ScrollStep = v
	}
	if v, ok := flags["api-url"].(string); ok && v != "" {
		c.API.BaseURL = v
	}
	if v, ok := flags["account"].(string); ok && v != "" {
		c.API.Account = v
	}
	if v, ok := flags["fixture"].(string); ok && v != "" {
		c.Replay.Fixture = v
	}
	if v, ok := flags["modes"].([]string); ok {
		c.Collector.Modes = v
	}
	if v, ok := flags["delay"].(time.Duration); ok {
		c.Collector.Delay = v
	}
	if v, ok := flags["max-advances"].(int); ok {
		c.Collector.MaxAdvances = v
	}
	if v, ok := flags["output"].(string); ok {
		c.Output.Path = v
	}
	if v, ok := flags["format"].(string); ok && v != "" {
		c.Output.Format = v
	}
	if v, ok := flags["stdout"].(bool); ok {
		c.Output.Stdout = v
	}
	if v, ok := flags["post"].(string); ok && v != "" {
		c.Output.Endpoint = v
	}
	if v, ok := flags["images"].(string); ok && v != "" {
		c.Images.Directory = v
	}
	if v, ok := flags["concurrent"].(int); ok && v > 0 {
		c.Images.ConcurrentWorkers = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["no-color"].(bool); ok && v {
		c.Logging.NoColor = true
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
}

// SplitModes parses a comma separated mode list. "none" or "-" yields an
// empty list, which makes the collector run a single default mode.
func SplitModes(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "none" || s == "-" {
		return []string{}
	}
	var modes []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			modes = append(modes, part)
		}
	}
	return modes
}

// Load loads configuration from all sources with proper precedence:
// command line flags > environment variables > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".emojiharvest.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
