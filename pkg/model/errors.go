package model

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures across the sync layer. Callers branch on
// tags via goerr.HasTag instead of matching error strings.
var (
	// ErrTagBadRequest marks caller mistakes such as a missing keyword.
	// Never retried, surfaced immediately.
	ErrTagBadRequest = goerr.NewTag("bad_request")

	// ErrTagUpstreamResponse marks a provider response the system cannot
	// interpret: non-success status or malformed payload. Terminal for
	// the call; the retry layer must not attempt it again.
	ErrTagUpstreamResponse = goerr.NewTag("upstream_response")

	// ErrTagUpstreamExhausted marks an external call that failed after
	// all backoff attempts. Carries the last underlying failure.
	ErrTagUpstreamExhausted = goerr.NewTag("upstream_exhausted")

	// ErrTagUnavailable marks a record that could not be obtained: the
	// fetch failed and no cached fallback exists. An expected outcome,
	// not a crash.
	ErrTagUnavailable = goerr.NewTag("unavailable")

	// ErrTagInternal marks unexpected mapping or persistence failures.
	ErrTagInternal = goerr.NewTag("internal")
)
