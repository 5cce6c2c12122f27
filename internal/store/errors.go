package store

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfScope is wrapped by every [ScopeError].
	ErrOutOfScope = errors.New("notification store used outside its scope")

	// ErrTitleRequired is returned by Add when the title is empty.
	ErrTitleRequired = errors.New("title is required")

	// ErrInvalidKind is returned by Add when the kind is not a known [Kind].
	ErrInvalidKind = errors.New("invalid kind")

	// ErrDuplicateID is returned by Add when the id generator returns an id
	// that is already present.
	ErrDuplicateID = errors.New("duplicate toast id")
)

// ScopeError reports that a store operation ran before the store was
// created or after it was closed. It signals a wiring defect in the caller.
type ScopeError struct {
	// Op is the operation that was attempted, e.g. "add".
	Op string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, ErrOutOfScope)
}

func (e *ScopeError) Unwrap() error {
	return ErrOutOfScope
}
