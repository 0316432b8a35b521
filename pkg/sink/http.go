package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"emojiharvest/pkg/collector"
	errs "emojiharvest/pkg/errors"
	"emojiharvest/pkg/logger"
	"emojiharvest/pkg/retry"
)

// HTTP posts the result as JSON to an endpoint
type HTTP struct {
	Endpoint  string
	Client    *http.Client
	Retry     *retry.Config
	UserAgent string
	Logger    logger.Logger
}

// NewHTTP returns a sink posting to endpoint with a 30 second timeout
func NewHTTP(endpoint string, retryCfg *retry.Config) *HTTP {
	return &HTTP{
		Endpoint:  endpoint,
		Client:    &http.Client{Timeout: 30 * time.Second},
		Retry:     retryCfg,
		UserAgent: "emojiharvest",
		Logger:    logger.GetLogger(),
	}
}

func (h *HTTP) String() string {
	return "http:" + h.Endpoint
}

// Emit posts the result, retrying on network failures, 429 and 5xx
func (h *HTTP) Emit(ctx context.Context, result collector.ResultSet) error {
	body, err := Encode(result, FormatJSON)
	if err != nil {
		return err
	}

	return retry.Do(ctx, func(ctx context.Context) error {
		return h.post(ctx, body)
	}, h.Retry)
}

func (h *HTTP) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeNetwork, err, "post failed")
	}
	defer resp.Body.Close()
	logger.LogRequest(req.Method, h.Endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &errs.Error{
			Type:    errs.FromStatusCode(resp.StatusCode),
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("endpoint rejected result: %s", bytes.TrimSpace(snippet)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
