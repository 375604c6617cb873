package services

import (
	"errors"
	"fmt"
)

// ErrEmptyInput means a document yielded zero extractable text and therefore
// zero chunks. Ingestion for that source aborts and nothing is upserted.
var ErrEmptyInput = errors.New("document yielded no extractable text")

// EmbeddingServiceError wraps a transport, auth or quota failure from the
// embedding capability. Retry policy belongs to the caller, not here.
type EmbeddingServiceError struct {
	Err error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service: %v", e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

// DimensionMismatchError means the collection already exists with a vector
// dimension other than the configured one. This is fatal for that collection,
// never auto-migrated.
type DimensionMismatchError struct {
	Collection string
	Want       int
	Got        int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("collection %q configured with dimension %d, want %d", e.Collection, e.Got, e.Want)
}

// PartialUpsertError means some but not all records of a batch were
// persisted. FailedIDs lists every id that was not written so the caller can
// re-submit only those.
type PartialUpsertError struct {
	FailedIDs []string
	Err       error
}

func (e *PartialUpsertError) Error() string {
	return fmt.Sprintf("upsert persisted only part of the batch, %d ids failed: %v", len(e.FailedIDs), e.Err)
}

func (e *PartialUpsertError) Unwrap() error { return e.Err }

// StoreUnavailableError wraps a connectivity failure talking to the vector
// store. It is surfaced instead of an empty result set, since an empty result
// would be indistinguishable from "no matches".
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("vector store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }
