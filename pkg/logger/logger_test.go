package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"emojiharvest/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level json", cfg: &config.LoggingConfig{Level: "debug", Format: "json"}},
		{name: "empty level defaults to info", cfg: &config.LoggingConfig{}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "loud"}, wantErr: true},
		{name: "file output", cfg: &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"trace-ish", zerolog.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			got, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestJSONOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	orig := stderr
	stderr = &buf
	defer func() { stderr = orig }()

	l, err := New(&config.LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)

	l.WithField("mode", "2").WithError(errors.New("node detached")).InfoWithFields("Cycle failed", map[string]interface{}{
		"cycle": 4,
	})

	out := buf.String()
	assert.Contains(t, out, `"mode":"2"`)
	assert.Contains(t, out, `"cycle":4`)
	assert.Contains(t, out, `"error":"node detached"`)
	assert.Contains(t, out, `"app":"emojiharvest"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "}"))
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	orig := stderr
	stderr = &buf
	defer func() { stderr = orig }()

	base, err := New(&config.LoggingConfig{Level: "info", Format: "json"})
	require.NoError(t, err)

	_ = base.WithField("mode", "4")
	base.Info("plain")
	assert.NotContains(t, buf.String(), `"mode"`)
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("mode", "1")
	child.WithError(errors.New("boom")).Error("Enumerate failed")
	tl.InfoWithFields("Result emitted", map[string]interface{}{"keys": 3})

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "1", msgs[0].Fields["mode"])
	assert.EqualError(t, msgs[0].Error, "boom")
	assert.Equal(t, 3, msgs[1].Fields["keys"])
	assert.True(t, tl.HasError())
	assert.True(t, tl.HasMessage("Result emitted"))

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.WithField("a", 1).WithError(errors.New("x")).Info("ignored")
	assert.Nil(t, l.GetZerolog())
}
