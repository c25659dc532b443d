package llm

import "errors"

var (
	// ErrUpstreamUnavailable indicates the chat API could not produce an
	// answer: network failure, timeout, non-success status or a malformed
	// response. The turn is aborted; there are no automatic retries.
	ErrUpstreamUnavailable = errors.New("llm upstream unavailable")

	// ErrRateLimited indicates the chat API rejected the request with
	// HTTP 429. Surfaced to the user as a visible chat error.
	ErrRateLimited = errors.New("llm rate limited")

	// ErrModelUnavailable indicates the embedding model could not be
	// reached, loaded or used. During startup this degrades retrieval to
	// keyword mode instead of failing.
	ErrModelUnavailable = errors.New("embedding model unavailable")
)
