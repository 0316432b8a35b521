package downloader

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"emojiharvest/pkg/collector"
	"emojiharvest/pkg/logger"
	"emojiharvest/pkg/ratelimit"
)

// Summary counts the outcome of an image download pass
type Summary struct {
	Total      int   `json:"total"`
	Downloaded int   `json:"downloaded"`
	Skipped    int   `json:"skipped"`
	Failed     int   `json:"failed"`
	Ignored    int   `json:"ignored"`
	Bytes      int64 `json:"bytes"`
}

// Sink downloads every image of an emitted result. Single failures are
// logged and counted; Emit only fails when nothing could be fetched.
type Sink struct {
	fetcher ImageFetcher
	storage ImageStorage
	workers int
	limiter ratelimit.Limiter
	logger  logger.Logger
	abort   context.Context

	mu      sync.Mutex
	summary Summary
}

// NewSink creates an image sink. limiter may be nil.
func NewSink(fetcher ImageFetcher, store ImageStorage, workers int, limiter ratelimit.Limiter, log logger.Logger) *Sink {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Sink{fetcher: fetcher, storage: store, workers: workers, limiter: limiter, logger: log}
}

// AbortOn stops downloads once abort is done, even when Emit was handed a
// context that cannot be cancelled (the partial emit of an interrupted run).
func (s *Sink) AbortOn(abort context.Context) *Sink {
	s.abort = abort
	return s
}

func (s *Sink) String() string {
	return "images"
}

// Summary returns the counts of the last Emit
func (s *Sink) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

func (s *Sink) Emit(ctx context.Context, result collector.ResultSet) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if s.abort != nil {
		stop := context.AfterFunc(s.abort, cancel)
		defer stop()
	}

	var summary Summary
	var jobs []DownloadJob
	for _, item := range result.Items() {
		if !fetchable(item.Value) {
			summary.Ignored++
			continue
		}
		jobs = append(jobs, DownloadJob{Name: item.Key, URL: item.Value})
	}
	summary.Total = len(jobs)

	pool := NewWorkerPool(ctx, s.workers, s.fetcher, s.storage, s.limiter, s.logger)
	pool.Start()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range pool.Results() {
			switch {
			case r.Skipped:
				summary.Skipped++
			case r.Success:
				summary.Downloaded++
				summary.Bytes += int64(r.Size)
			default:
				summary.Failed++
			}
		}
	}()

	submitted := 0
	for _, job := range jobs {
		if err := pool.Submit(job); err != nil {
			break
		}
		submitted++
	}
	pool.Stop()
	<-done
	summary.Failed += len(jobs) - submitted

	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()

	s.logger.InfoWithFields("Image download finished", map[string]interface{}{
		"total":      summary.Total,
		"downloaded": summary.Downloaded,
		"skipped":    summary.Skipped,
		"failed":     summary.Failed,
		"ignored":    summary.Ignored,
	})

	if err := ctx.Err(); err != nil {
		return err
	}
	if summary.Failed > 0 && summary.Downloaded+summary.Skipped == 0 {
		return fmt.Errorf("all %d image downloads failed", summary.Failed)
	}
	return nil
}

func fetchable(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
