// Package dedupe builds the per-batch duplicate-detection index.
//
// The index is a snapshot of previously stored URLs and CVE identifiers,
// taken once before item processing begins and immutable for the batch's
// duration. Two candidates inside the same batch are therefore never
// duplicates of each other, only of the store.
package dedupe

import (
	"context"
	"time"

	"github.com/willf/bloom"

	"github.com/northlux/securelab/pkg/logger"
	"github.com/northlux/securelab/pkg/metrics"
)

// Bloom filter sizing; ~1% false positives at capacity. The filter only
// short-circuits definite misses, the exact sets decide membership.
const (
	bloomMinCapacity        = 1024
	bloomFalsePositiveRatio = 0.01
)

// Key prefixes keep URL and CVE entries distinct inside the shared filter.
const (
	urlKeyPrefix = "u:"
	cveKeyPrefix = "c:"
)

// KeySource supplies previously stored dedup keys. The repository
// implements it; tests substitute fakes.
type KeySource interface {
	// ExistingURLs returns every stored source URL.
	ExistingURLs(ctx context.Context) (map[string]struct{}, error)
	// ExistingCVEIDs returns every stored CVE identifier, flattened.
	ExistingCVEIDs(ctx context.Context) (map[string]bool, error)
}

// Index is an immutable snapshot of stored dedup keys.
type Index struct {
	urls   map[string]struct{}
	cves   map[string]bool
	filter *bloom.BloomFilter
}

// Build queries the key source once and returns the index. On a store
// failure it returns an EMPTY index instead of an error: duplicate
// detection degrades to "no dedup" so a briefly degraded store never
// blocks an import. This fail-open behavior is deliberate.
func Build(ctx context.Context, src KeySource) *Index {
	start := time.Now()
	log := logger.Get().Named("dedupe")

	urls, err := src.ExistingURLs(ctx)
	if err != nil {
		log.Warn(ctx, "failed to load existing URLs; continuing without dedup", logger.Error(err))
		metrics.RecordIndexFailOpen()
		return empty()
	}
	cves, err := src.ExistingCVEIDs(ctx)
	if err != nil {
		log.Warn(ctx, "failed to load existing CVE ids; continuing without dedup", logger.Error(err))
		metrics.RecordIndexFailOpen()
		return empty()
	}

	ix := &Index{urls: urls, cves: cves}
	ix.filter = newFilter(len(urls) + len(cves))
	for u := range urls {
		ix.filter.Add([]byte(urlKeyPrefix + u))
	}
	for id := range cves {
		ix.filter.Add([]byte(cveKeyPrefix + id))
	}

	metrics.RecordIndexBuildDuration(float64(time.Since(start).Milliseconds()))
	metrics.UpdateIndexKeysLoaded(ix.Size())
	log.Debug(ctx, "dedup index built",
		logger.Int("urls", len(urls)),
		logger.Int("cves", len(cves)),
		logger.Duration("took", time.Since(start)),
	)
	return ix
}

func empty() *Index {
	return &Index{
		urls:   map[string]struct{}{},
		cves:   map[string]bool{},
		filter: newFilter(0),
	}
}

func newFilter(n int) *bloom.BloomFilter {
	capacity := uint(n)
	if capacity < bloomMinCapacity {
		capacity = bloomMinCapacity
	}
	return bloom.NewWithEstimates(capacity, bloomFalsePositiveRatio)
}

// HasURL reports whether u matches a previously stored source URL.
func (ix *Index) HasURL(u string) bool {
	if u == "" {
		return false
	}
	if !ix.filter.Test([]byte(urlKeyPrefix + u)) {
		return false
	}
	_, ok := ix.urls[u]
	return ok
}

// HasCVE reports whether id matches a previously stored CVE identifier.
func (ix *Index) HasCVE(id string) bool {
	if id == "" {
		return false
	}
	if !ix.filter.Test([]byte(cveKeyPrefix + id)) {
		return false
	}
	return ix.cves[id]
}

// Size returns the number of keys in the snapshot.
func (ix *Index) Size() int {
	return len(ix.urls) + len(ix.cves)
}
