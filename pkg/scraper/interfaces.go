package scraper

import (
	"context"

	"emojiharvest/pkg/collector"
)

// TokenProvider resolves the bearer token of an API account
type TokenProvider interface {
	Token(account string) (string, error)
}

// Notifier reports the outcome of a run
type Notifier interface {
	SendSuccess(title, message string)
	SendError(title, message string)
}

// SourceOpener opens the view source for a run. The returned close func
// releases whatever the source holds and is never nil on success.
type SourceOpener func(ctx context.Context) (collector.ViewSource, func(), error)
