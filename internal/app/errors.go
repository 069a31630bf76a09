package service

import (
	"errors"
	"fmt"
)

// ErrSessionExpired aborts a batch before any work when no valid actor
// is present.
var ErrSessionExpired = errors.New("session expired")

// ValidationError carries the full ordered list of field errors for a
// rejected batch. Nothing is persisted when it is returned.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("batch validation failed: %d field error(s)", len(e.Fields))
}
