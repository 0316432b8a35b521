package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "emojiharvest/pkg/errors"
	"emojiharvest/pkg/retry"
)

// maxImageSize caps a single download
const maxImageSize = 16 << 20

// HTTPFetcher downloads images over HTTP with retries
type HTTPFetcher struct {
	Client    *http.Client
	Retry     *retry.Config
	UserAgent string
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout
func NewHTTPFetcher(timeout time.Duration, retryCfg *retry.Config) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		Retry:     retryCfg,
		UserAgent: "emojiharvest",
	}
}

// Fetch returns the body of url
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
		return f.get(ctx, url)
	}, f.Retry)
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "image request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &errs.Error{
			Type:    errs.FromStatusCode(resp.StatusCode),
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("unexpected status fetching %s", url),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read image")
	}
	if len(data) > maxImageSize {
		return nil, errs.New(errs.ErrorTypeParsing, fmt.Sprintf("image larger than %d bytes", maxImageSize))
	}
	return data, nil
}
