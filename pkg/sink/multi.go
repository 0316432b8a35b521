package sink

import (
	"context"
	"errors"
	"fmt"

	"emojiharvest/pkg/collector"

	"golang.org/x/sync/errgroup"
)

// Multi emits to every sink concurrently. A failing sink does not stop
// the others; all failures are returned joined.
type Multi []collector.Sink

func (m Multi) Emit(ctx context.Context, result collector.ResultSet) error {
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0].Emit(ctx, result)
	}

	// The group has no shared context: one sink failing must not cancel
	// the others. Wait reports whether anything failed; failures keeps
	// every error in sink order.
	failures := make([]error, len(m))
	var g errgroup.Group
	for i, s := range m {
		g.Go(func() error {
			if err := s.Emit(ctx, result); err != nil {
				failures[i] = fmt.Errorf("%s: %w", name(s), err)
				return failures[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}
	return errors.Join(failures...)
}

func name(s collector.Sink) string {
	if n, ok := s.(fmt.Stringer); ok {
		return n.String()
	}
	return fmt.Sprintf("%T", s)
}
