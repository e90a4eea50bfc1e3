package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexNotFound is matched by every IndexNotFoundError
	ErrIndexNotFound = errors.New("index not found")
	// ErrNoIndexKeys is returned when an index is requested over no fields
	ErrNoIndexKeys = errors.New("index requires at least one key")
	// ErrInvalidRecord is returned when a map callback produces a nil record
	ErrInvalidRecord = errors.New("map produced a nil record")
)

// IndexNotFoundError reports a lookup against a composite that was never indexed
type IndexNotFoundError struct {
	Keys string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("no index exists for %q", e.Keys)
}

// Is lets errors.Is(err, ErrIndexNotFound) match
func (e *IndexNotFoundError) Is(target error) bool {
	return target == ErrIndexNotFound
}
