package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"emojiharvest/pkg/collector"
	errs "emojiharvest/pkg/errors"
	"emojiharvest/pkg/logger"
	"emojiharvest/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = collector.ResultSet{
	"wave":     "https://emoji.slack-edge.com/wave.png",
	"thumbsup": "https://emoji.slack-edge.com/thumbsup.png",
}

func TestEncodeJSON(t *testing.T) {
	data, err := Encode(sample, FormatJSON)
	require.NoError(t, err)

	want := "{\n" +
		"  \"thumbsup\": \"https://emoji.slack-edge.com/thumbsup.png\",\n" +
		"  \"wave\": \"https://emoji.slack-edge.com/wave.png\"\n" +
		"}\n"
	assert.Equal(t, want, string(data))
}

func TestEncodeDecodeYAML(t *testing.T) {
	data, err := Encode(sample, FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(data), "thumbsup: https://emoji.slack-edge.com/thumbsup.png")

	back, err := Decode(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, sample, back)
}

func TestEncodeEmptyAndUnknown(t *testing.T) {
	data, err := Encode(nil, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))

	_, err = Encode(sample, "xml")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("csv")
	assert.Error(t, err)
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "emoji.json")
	f := &File{Path: path, Format: FormatJSON, Logger: logger.NewNopLogger()}

	require.NoError(t, f.Emit(context.Background(), sample))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]string(sample), got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not be left behind")

	// a second emit replaces the file
	require.NoError(t, f.Emit(context.Background(), collector.ResultSet{"a": "1"}))
	back, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"1"}`, string(back))
}

func TestNewFileDefaultsName(t *testing.T) {
	assert.Equal(t, DefaultFilename, NewFile("", FormatJSON).Path)
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, FormatJSON).Emit(context.Background(), collector.ResultSet{"a": "1"}))
	assert.Equal(t, "{\n  \"a\": \"1\"\n}\n", buf.String())
}

func fastRetry(attempts int) *retry.Config {
	return &retry.Config{MaxAttempts: attempts, Backoff: &retry.ConstantBackoff{Delay: time.Millisecond}}
}

func TestHTTPSink(t *testing.T) {
	var received map[string]string
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	h := NewHTTP(server.URL, fastRetry(3))
	h.Logger = logger.NewNopLogger()
	require.NoError(t, h.Emit(context.Background(), sample))

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, map[string]string(sample), received)
}

func TestHTTPSinkRejected(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer server.Close()

	err := NewHTTP(server.URL, fastRetry(3)).Emit(context.Background(), sample)
	require.Error(t, err)

	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
	assert.Contains(t, err.Error(), "bad token")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "auth failures are not retried")
}

func TestMultiSink(t *testing.T) {
	var a, b bytes.Buffer
	failing := collector.SinkFunc(func(ctx context.Context, r collector.ResultSet) error {
		return errors.New("endpoint down")
	})

	err := Multi{NewWriter(&a, FormatJSON), failing, NewWriter(&b, FormatYAML)}.Emit(context.Background(), sample)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "endpoint down")
	assert.Contains(t, a.String(), "thumbsup")
	assert.Contains(t, b.String(), "thumbsup:")
}

func TestMultiSinkReportsEveryFailure(t *testing.T) {
	var out bytes.Buffer
	down := collector.SinkFunc(func(ctx context.Context, r collector.ResultSet) error {
		return errors.New("endpoint down")
	})
	full := collector.SinkFunc(func(ctx context.Context, r collector.ResultSet) error {
		return errors.New("disk full")
	})

	err := Multi{down, NewWriter(&out, FormatJSON), full}.Emit(context.Background(), sample)
	require.Error(t, err)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok, "expected a joined error, got %T", err)
	require.Len(t, joined.Unwrap(), 2)
	assert.Contains(t, joined.Unwrap()[0].Error(), "endpoint down")
	assert.Contains(t, joined.Unwrap()[1].Error(), "disk full")
	assert.Contains(t, out.String(), "thumbsup")
}

func TestMultiSinkAllSucceed(t *testing.T) {
	var a, b bytes.Buffer
	assert.NoError(t, Multi{NewWriter(&a, FormatJSON), NewWriter(&b, FormatJSON)}.Emit(context.Background(), sample))
	assert.Equal(t, a.String(), b.String())
}

func TestMultiSinkEmpty(t *testing.T) {
	assert.NoError(t, Multi{}.Emit(context.Background(), sample))
}
