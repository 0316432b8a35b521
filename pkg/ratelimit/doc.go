// Package ratelimit paces requests made against the emoji API and the
// image host.
//
// TokenBucket starts full, so a run may burst up to its capacity, and then
// regains one token per interval:
//
//	limiter := ratelimit.FromConfig(cfg.RateLimit) // nil when unlimited
//	if limiter != nil {
//		if err := limiter.Wait(ctx); err != nil {
//			return err
//		}
//	}
package ratelimit
