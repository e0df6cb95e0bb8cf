package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the index layer. Callers dispatch with errors.Is.
var (
	// ErrEmptyCorpus is returned when an index build receives zero passages.
	ErrEmptyCorpus = errors.New("corpus contains no passages")

	// ErrIndexNotFound is returned when no persisted index exists at the
	// configured location. During serving this is a service-unavailable
	// condition, not a retry trigger.
	ErrIndexNotFound = errors.New("vector index not found")

	// ErrUnknownUser is returned when a turn append targets a user that
	// was never registered with EnsureUser. Appends must fail loudly
	// rather than drop the turn.
	ErrUnknownUser = errors.New("unknown user")
)

// DimensionMismatchError is returned when a stored index dimension does not
// match the current embedder's output dimension.
type DimensionMismatchError struct {
	Stored  int
	Current int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: index has %d, embedder produces %d", e.Stored, e.Current)
}

// GenerationError wraps a failure or timeout from the generation backend.
// Nothing is persisted for an ask that ends here.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// PersistenceWriteError wraps a failed turn write. Dangling reports whether
// the paired user turn was already committed, leaving a single-turn
// inconsistency that needs reconciliation.
type PersistenceWriteError struct {
	UserID   string
	Role     Role
	Dangling bool
	Err      error
}

func (e *PersistenceWriteError) Error() string {
	if e.Dangling {
		return fmt.Sprintf("failed to append %s turn for user %s (user turn already written): %v", e.Role, e.UserID, e.Err)
	}
	return fmt.Sprintf("failed to append %s turn for user %s: %v", e.Role, e.UserID, e.Err)
}

func (e *PersistenceWriteError) Unwrap() error {
	return e.Err
}
