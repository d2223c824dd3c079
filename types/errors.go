package types

import "errors"

// Error taxonomy. Callers classify failures with errors.Is; wrapped messages
// carry the detail.
var (
	// ErrInvalidArgument marks a malformed request. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidCategory marks a category outside the closed taxonomy.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidEntry marks a knowledge base entry failing schema validation.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrStoreUnavailable marks an unreachable vector store backend. The
	// request may be retried by the caller; it is not retried internally.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrEmbeddingUnavailable marks an embedding provider failure.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
)
