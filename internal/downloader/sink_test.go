package downloader

import (
	"context"
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
	"emojiharvest/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImageServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("image:" + r.URL.Path))
	})
	mux.HandleFunc("/gone/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &hits
}

func fastFetcher() *HTTPFetcher {
	return NewHTTPFetcher(5*time.Second, &retry.Config{
		MaxAttempts: 2,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
	})
}

func TestSinkDownloadsImages(t *testing.T) {
	server, _ := newImageServer(t)
	dir := t.TempDir()
	store, err := storage.NewManager(dir, false)
	require.NoError(t, err)

	s := NewSink(fastFetcher(), store, 2, nil, logger.NewNopLogger())
	err = s.Emit(context.Background(), collector.ResultSet{
		"wave":  server.URL + "/img/wave.png",
		"party": server.URL + "/img/party.gif",
		"alias": "alias:wave",
		"gone":  server.URL + "/gone/x.png",
	})
	require.NoError(t, err)

	summary := s.Summary()
	assert.Equal(t, Summary{Total: 3, Downloaded: 2, Failed: 1, Ignored: 1, Bytes: summary.Bytes}, summary)
	assert.Positive(t, summary.Bytes)

	data, err := os.ReadFile(filepath.Join(dir, "party.gif"))
	require.NoError(t, err)
	assert.Equal(t, "image:/img/party.gif", string(data))
}

func TestSinkSkipsExisting(t *testing.T) {
	server, hits := newImageServer(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wave.png"), []byte("old"), 0644))
	store, err := storage.NewManager(dir, false)
	require.NoError(t, err)

	s := NewSink(fastFetcher(), store, 2, nil, logger.NewNopLogger())
	require.NoError(t, s.Emit(context.Background(), collector.ResultSet{"wave": server.URL + "/img/wave.png"}))

	assert.Equal(t, 1, s.Summary().Skipped)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestSinkAllFailed(t *testing.T) {
	server, hits := newImageServer(t)
	store, err := storage.NewManager(t.TempDir(), false)
	require.NoError(t, err)

	s := NewSink(fastFetcher(), store, 2, nil, logger.NewNopLogger())
	err = s.Emit(context.Background(), collector.ResultSet{
		"a": server.URL + "/gone/a.png",
		"b": server.URL + "/gone/b.png",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 image downloads failed")
	assert.Equal(t, int32(2), atomic.LoadInt32(hits), "404s are not retried")
}

func TestSinkEmptyResult(t *testing.T) {
	store, err := storage.NewManager(t.TempDir(), false)
	require.NoError(t, err)

	s := NewSink(fastFetcher(), store, 2, nil, logger.NewNopLogger())
	assert.NoError(t, s.Emit(context.Background(), collector.ResultSet{}))
	assert.Equal(t, Summary{}, s.Summary())
}

func TestFetcherRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	data, err := fastFetcher().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetcherTypesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := fastFetcher().Fetch(context.Background(), server.URL)
	assert.Equal(t, errs.ErrorTypeAuth, errs.TypeOf(err))
}

type stallingFetcher struct{ started chan struct{} }

func (f *stallingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	select {
	case f.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSinkAbortStopsUncancellableEmit(t *testing.T) {
	store, err := storage.NewManager(t.TempDir(), false)
	require.NoError(t, err)

	abort, cancel := context.WithCancel(context.Background())
	fetcher := &stallingFetcher{started: make(chan struct{}, 1)}
	s := NewSink(fetcher, store, 1, nil, logger.NewNopLogger()).AbortOn(abort)

	done := make(chan error, 1)
	go func() {
		done <- s.Emit(context.WithoutCancel(context.Background()), collector.ResultSet{
			"a": "https://example.com/a.png",
			"b": "https://example.com/b.png",
			"c": "https://example.com/c.png",
		})
	}()

	<-fetcher.started
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Emit kept downloading after abort")
	}
	assert.Equal(t, 3, s.Summary().Failed)
	assert.Zero(t, s.Summary().Downloaded)
}
