package downloader

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"emojiharvest/pkg/logger"
	"emojiharvest/pkg/ratelimit"
)

// MockFetcher serves fixed bytes for every URL
type MockFetcher struct {
	delay   time.Duration
	err     error
	counter int32
	active  int32
	peak    int32
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	atomic.AddInt32(&m.counter, 1)
	n := atomic.AddInt32(&m.active, 1)
	defer atomic.AddInt32(&m.active, -1)
	for {
		p := atomic.LoadInt32(&m.peak)
		if n <= p || atomic.CompareAndSwapInt32(&m.peak, p, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	return []byte("PNG"), nil
}

func (m *MockFetcher) count() int {
	return int(atomic.LoadInt32(&m.counter))
}

// MockStorage records saved names in memory
type MockStorage struct {
	saved   map[string]string
	saveErr error
	mu      sync.Mutex
}

func NewMockStorage(existing ...string) *MockStorage {
	m := &MockStorage{saved: make(map[string]string)}
	for _, name := range existing {
		m.saved[name] = ".png"
	}
	return m
}

func (m *MockStorage) IsDownloaded(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.saved[name]
	return ok
}

func (m *MockStorage) SaveImage(r io.Reader, name, ext string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[name] = ext
	return nil
}

func (m *MockStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func runPool(t *testing.T, pool *WorkerPool, jobs []DownloadJob) []DownloadResult {
	t.Helper()
	pool.Start()

	var results []DownloadResult
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			results = append(results, result)
		}
	}()

	for i, job := range jobs {
		if err := pool.Submit(job); err != nil {
			t.Errorf("Failed to submit job %d: %v", i, err)
		}
	}
	pool.Stop()
	wg.Wait()
	return results
}

func makeJobs(n int) []DownloadJob {
	jobs := make([]DownloadJob, n)
	for i := range jobs {
		jobs[i] = DownloadJob{Name: fmt.Sprintf("emoji%d", i), URL: fmt.Sprintf("https://emoji.example.com/emoji%d.gif", i)}
	}
	return jobs
}

func TestWorkerPoolBasicFunctionality(t *testing.T) {
	fetcher := &MockFetcher{delay: 5 * time.Millisecond}
	store := NewMockStorage()
	pool := NewWorkerPool(context.Background(), 3, fetcher, store, ratelimit.NewTokenBucket(100, time.Millisecond), logger.NewNopLogger())

	results := runPool(t, pool, makeJobs(10))

	if len(results) != 10 {
		t.Errorf("Expected 10 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Success || r.Skipped {
			t.Errorf("Expected %s to be downloaded, got %+v", r.Job.Name, r)
		}
	}
	if fetcher.count() != 10 {
		t.Errorf("Expected 10 fetches, got %d", fetcher.count())
	}
	if store.count() != 10 {
		t.Errorf("Expected 10 saved images, got %d", store.count())
	}
	if store.saved["emoji3"] != ".gif" {
		t.Errorf("Expected extension from URL, got %q", store.saved["emoji3"])
	}
}

func TestWorkerPoolWithErrors(t *testing.T) {
	fetcher := &MockFetcher{err: fmt.Errorf("403 from cdn")}
	pool := NewWorkerPool(context.Background(), 2, fetcher, NewMockStorage(), nil, logger.NewNopLogger())

	results := runPool(t, pool, makeJobs(5))

	if len(results) != 5 {
		t.Errorf("Expected 5 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Success || r.Error == nil {
			t.Errorf("Expected failure with error, got %+v", r)
		}
	}
}

func TestWorkerPoolSaveError(t *testing.T) {
	store := NewMockStorage()
	store.saveErr = fmt.Errorf("disk full")
	pool := NewWorkerPool(context.Background(), 1, &MockFetcher{}, store, nil, logger.NewNopLogger())

	results := runPool(t, pool, makeJobs(2))
	for _, r := range results {
		if r.Success {
			t.Error("Expected save failures")
		}
	}
}

func TestWorkerPoolConcurrency(t *testing.T) {
	fetcher := &MockFetcher{delay: 30 * time.Millisecond}
	pool := NewWorkerPool(context.Background(), 4, fetcher, NewMockStorage(), nil, logger.NewNopLogger())

	start := time.Now()
	runPool(t, pool, makeJobs(8))
	elapsed := time.Since(start)

	if elapsed > 200*time.Millisecond {
		t.Errorf("Expected parallel downloads, took %v", elapsed)
	}
	if peak := atomic.LoadInt32(&fetcher.peak); peak < 2 || peak > 4 {
		t.Errorf("Expected between 2 and 4 concurrent fetches, got %d", peak)
	}
}

func TestWorkerPoolDuplicateDetection(t *testing.T) {
	fetcher := &MockFetcher{}
	store := NewMockStorage("emoji0", "emoji1")
	pool := NewWorkerPool(context.Background(), 2, fetcher, store, nil, logger.NewNopLogger())

	results := runPool(t, pool, makeJobs(4))

	skipped := 0
	for _, r := range results {
		if r.Skipped {
			skipped++
		}
	}
	if skipped != 2 {
		t.Errorf("Expected 2 skipped, got %d", skipped)
	}
	if fetcher.count() != 2 {
		t.Errorf("Expected 2 fetches, got %d", fetcher.count())
	}
}

func TestWorkerPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &MockFetcher{}
	pool := NewWorkerPool(ctx, 2, fetcher, NewMockStorage(), nil, logger.NewNopLogger())
	pool.Start()

	if err := pool.Submit(DownloadJob{Name: "a", URL: "https://x/a.png"}); err == nil {
		// the queue had room; the worker must still refuse the job
		for r := range drain(pool) {
			if r.Success {
				t.Error("Expected cancelled job to fail")
			}
		}
	} else {
		pool.Stop()
	}
	if fetcher.count() != 0 {
		t.Errorf("Expected no fetches after cancellation, got %d", fetcher.count())
	}
}

func drain(pool *WorkerPool) <-chan DownloadResult {
	go pool.Stop()
	return pool.Results()
}
