// Package httpapi harvests emoji from a paginated JSON listing instead of
// a browser.
//
// The endpoint is queried as
//
//	GET {base}?mode=<mode>&cursor=<cursor>&limit=<n>
//
// and answers
//
//	{"items": [{"name": "wave", "url": "https://..."}], "next_cursor": "abc"}
//
// An empty next_cursor marks the last page. Requests carry an optional
// bearer token, are paced by a ratelimit.Limiter and retried on network
// errors, 429 and 5xx responses.
package httpapi
