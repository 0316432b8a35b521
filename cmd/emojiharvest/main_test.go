package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"emojiharvest/pkg/manifest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockListing serves a two page emoji listing and can fail requests on
// demand
type mockListing struct {
	server       *httptest.Server
	requestCount int32
	failures     int32
	mu           sync.Mutex
	authHeaders  []string
}

func newMockListing(t *testing.T) *mockListing {
	m := &mockListing{}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockListing) handle(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	m.mu.Lock()
	m.authHeaders = append(m.authHeaders, r.Header.Get("Authorization"))
	m.mu.Unlock()

	if atomic.AddInt32(&m.failures, -1) >= 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	page := map[string]interface{}{
		"items": []map[string]string{
			{"name": "wave", "url": m.server.URL + "/img/wave.png"},
			{"name": "thumbsup", "url": m.server.URL + "/img/thumbsup.png"},
		},
		"next_cursor": "p2",
	}
	if r.URL.Query().Get("cursor") == "p2" {
		page = map[string]interface{}{
			"items": []map[string]string{{"name": "clap", "url": m.server.URL + "/img/clap.png"}},
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(page)
}

// SetFailures makes the next n requests answer 503
func (m *mockListing) SetFailures(n int) {
	atomic.StoreInt32(&m.failures, int32(n))
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("EMOJIHARVEST_PASSPHRASE", "test")
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "emojiharvest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func execute(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestScrapeAPIEndToEnd(t *testing.T) {
	dir := isolate(t)
	t.Setenv("EMOJIHARVEST_API_TOKEN", "env-token")

	listing := newMockListing(t)
	listing.SetFailures(1)

	cfgPath := writeConfig(t, dir, fmt.Sprintf(`
source:
  kind: api
api:
  base_url: %s/emoji
collector:
  modes: []
  delay: 0s
output:
  path: %s
retry:
  max_attempts: 3
  initial_backoff: 1ms
  max_backoff: 2ms
logging:
  level: disabled
`, listing.server.URL, filepath.Join(dir, "out", "emoji.json")))

	require.NoError(t, execute("--config", cfgPath, "--quiet"))

	data, err := os.ReadFile(filepath.Join(dir, "out", "emoji.json"))
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Len(t, got, 3)
	assert.Equal(t, listing.server.URL+"/img/clap.png", got["clap"])
	assert.True(t, strings.HasSuffix(string(data), "}\n"))

	// one failed attempt plus two pages
	assert.Equal(t, int32(3), atomic.LoadInt32(&listing.requestCount))
	listing.mu.Lock()
	for _, h := range listing.authHeaders {
		assert.Equal(t, "Bearer env-token", h)
	}
	listing.mu.Unlock()

	_, err = os.Stat(filepath.Join(dir, "out", "emoji.manifest.json"))
	assert.NoError(t, err)
}

func TestScrapeFailureExitsWithError(t *testing.T) {
	dir := isolate(t)
	listing := newMockListing(t)
	listing.SetFailures(100)

	cfgPath := writeConfig(t, dir, fmt.Sprintf(`
source:
  kind: api
api:
  base_url: %s/emoji
collector:
  modes: []
output:
  path: emoji.json
retry:
  max_attempts: 2
  initial_backoff: 1ms
  max_backoff: 1ms
logging:
  level: disabled
`, listing.server.URL))

	err := execute("scrape", "--config", cfgPath, "--quiet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "view_unavailable")

	if _, err := os.Stat(filepath.Join(dir, "emoji.json")); !os.IsNotExist(err) {
		t.Errorf("Expected nothing to be emitted, stat err = %v", err)
	}

	out := captureOutput(t)
	t.Cleanup(func() { manifestCheck = false })
	err = execute("manifest", "--config", cfgPath, "--check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is failed")
	assert.Contains(t, out.String(), "Status:   failed")
	assert.Contains(t, out.String(), "[view_unavailable]")
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	return &buf
}

func TestManifestSummary(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "emoji.manifest.json")
	m := &manifest.Manifest{
		RunID:   "run-1",
		Source:  "replay",
		Modes:   []string{"1", "2"},
		Total:   3,
		Emitted: true,
		PerMode: []manifest.ModeEntry{
			{Mode: "1", Cycles: 2, Advances: 1, Added: 3},
			{Mode: "2", Cycles: 3, Advances: 2},
		},
		Outputs: []string{"file:emoji.json"},
	}
	require.NoError(t, m.Save(path))

	out := captureOutput(t)
	t.Cleanup(func() { manifestCheck = false })
	require.NoError(t, execute("manifest", path, "--check"))

	assert.Contains(t, out.String(), "Status:   complete")
	assert.Contains(t, out.String(), "Cycles:   5")
	assert.Contains(t, out.String(), "Output:   file:emoji.json")
}

func TestConfigValidate(t *testing.T) {
	dir := isolate(t)

	good := writeConfig(t, dir, "output:\n  format: yaml\n")
	require.NoError(t, execute("config", "validate", "--config", good))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("output:\n  format: xml\ncollector:\n  delay: -1s\n"), 0644))
	err := execute("config", "validate", "--config", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
	assert.Contains(t, err.Error(), "delay cannot be negative")
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "fresh.yaml")

	require.NoError(t, execute("config", "init", "--config", path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "scroll_step: 60")

	assert.Error(t, execute("config", "init", "--config", path))
}

func TestInterruptsCancelRunThenAbort(t *testing.T) {
	sigs := make(chan os.Signal, 2)
	ctx, stop := withInterrupts(context.Background(), sigs)
	defer stop()

	abort, ok := abortContext(ctx)
	require.True(t, ok)

	sigs <- os.Interrupt
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("first interrupt did not cancel the run")
	}
	if abort.Err() != nil {
		t.Errorf("Expected abort to stay open after the first interrupt, got %v", abort.Err())
	}

	sigs <- os.Interrupt
	select {
	case <-abort.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("second interrupt did not abort")
	}
}

func TestInterruptsStopReleasesWatcher(t *testing.T) {
	sigs := make(chan os.Signal, 2)
	ctx, stop := withInterrupts(context.Background(), sigs)
	stop()

	abort, _ := abortContext(ctx)
	assert.Error(t, ctx.Err())
	assert.Error(t, abort.Err())
}
