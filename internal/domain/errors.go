package domain

import "errors"

// Sentinel errors for the failure taxonomy. Callers match them with
// errors.Is; producers wrap them with fmt.Errorf("...: %w", ...) so the
// offending stage and input stay in the message.
var (
	// ErrPathNotFound reports an ingestion root that does not exist.
	ErrPathNotFound = errors.New("path not found")

	// ErrTranscription reports a decode or transcription failure for one
	// file. It aborts that file only, never the whole batch.
	ErrTranscription = errors.New("transcription failed")

	// ErrInvalidChunkConfig reports chunk parameters violating
	// 0 <= overlap < chunk_size. Raised before any chunk is produced.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// ErrStoreUnavailable reports an I/O failure against the persistent
	// index. Never retried silently.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrInvalidQuery reports a malformed retrieval request (top_k < 1).
	ErrInvalidQuery = errors.New("invalid query")

	// ErrDimensionMismatch reports a vector whose length does not match the
	// dimensionality recorded in the store. The store is left unmodified.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrProviderUnavailable reports a selected LLM provider with no
	// configured credential. Raised before any network call.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrGeneration reports a provider or network failure while generating
	// an answer. Fatal to the current turn only.
	ErrGeneration = errors.New("answer generation failed")

	// ErrTimeout reports a query-path call exceeding its deadline.
	ErrTimeout = errors.New("operation timed out")
)
