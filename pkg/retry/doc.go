// Package retry retries transient failures of the HTTP collaborators (the
// paginated API source, the POST sink and the image downloader).
//
//	cfg := retry.FromConfig(appCfg.Retry, logger.GetLogger())
//	page, err := retry.DoWithResult(ctx, func(ctx context.Context) (*Page, error) {
//		return client.fetch(ctx, cursor)
//	}, cfg)
//
// Typed errors from pkg/errors decide what is retried: network, rate limit
// and server errors are; auth, not-found and parsing errors are returned
// immediately. Wait doubles as the cancellable sleep used between
// collection cycles.
package retry
