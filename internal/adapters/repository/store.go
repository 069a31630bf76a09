// Package repository defines the signal store interface and errors.
package repository

import (
	"context"

	"github.com/northlux/securelab/internal/domain/model"
)

// Store provides the persistence contract consumed by the import
// pipeline: fetch existing dedup keys, insert one record.
type Store interface {
	// ExistingURLs returns every stored source URL as a set.
	ExistingURLs(ctx context.Context) (map[string]struct{}, error)

	// ExistingCVEIDs returns every stored CVE identifier flattened into
	// an identifier -> exists mapping.
	ExistingCVEIDs(ctx context.Context) (map[string]bool, error)

	// Insert persists one signal and returns its assigned id.
	Insert(ctx context.Context, s *model.Signal) (string, error)

	// Count returns the number of stored signals.
	Count(ctx context.Context) int
}
