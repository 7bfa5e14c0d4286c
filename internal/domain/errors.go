package domain

import (
	"errors"
	"fmt"
)

// Pre-flight failures.
var (
	// ErrMissingCredential is returned before any network call when the
	// configured API key environment variable is unset.
	ErrMissingCredential = errors.New("missing API credential")
	// ErrInvalidChunkConfig is returned when the chunk window/overlap pair
	// would not make progress.
	ErrInvalidChunkConfig = errors.New("invalid chunk config")
)

// Per-call remote failures. Callers classify with errors.Is.
var (
	ErrRemoteUnavailable = errors.New("remote capability unavailable")
	ErrRemoteRejected    = errors.New("remote capability rejected request")
	ErrMalformedResponse = errors.New("malformed remote response")
	// ErrSynthesis wraps any generation failure; fatal to the current
	// query, not to the process.
	ErrSynthesis = errors.New("answer synthesis failed")
)

// GatewayError is a non-success response from the vector store. The upstream
// status and body are preserved for diagnostics.
type GatewayError struct {
	Op     string
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("vector store %s failed: HTTP %d - %s", e.Op, e.Status, e.Body)
}

// ExtractionError marks a per-file extraction failure. Ingestion skips the
// file and continues.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
