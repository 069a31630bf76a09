// Package service provides the core import service that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/northlux/securelab/internal/adapters/repository"
	"github.com/northlux/securelab/internal/auth"
	"github.com/northlux/securelab/internal/domain/dedupe"
	"github.com/northlux/securelab/internal/domain/enrich"
	"github.com/northlux/securelab/internal/domain/model"
	"github.com/northlux/securelab/internal/domain/ratelimit"
	"github.com/northlux/securelab/internal/domain/validate"
	"github.com/northlux/securelab/pkg/logger"
	"github.com/northlux/securelab/pkg/metrics"
)

// Service orchestrates batch imports: validation, dedup snapshot,
// enrichment, persistence, and per-item result collection.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	limiter   ratelimit.Limiter
	actors    auth.ActorProvider
	validator *validate.Validator
	enricher  *enrich.Enricher

	maxBatchSignals int
	started         bool
	stopCh          chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistent signal store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLimiter sets the shared rate-limit store.
func WithLimiter(limiter ratelimit.Limiter) Option {
	return func(s *Service) {
		if limiter != nil {
			s.limiter = limiter
		}
	}
}

// WithActorProvider sets the session/identity provider.
func WithActorProvider(actors auth.ActorProvider) Option {
	return func(s *Service) {
		if actors != nil {
			s.actors = actors
		}
	}
}

// WithMaxBatchSignals caps the number of candidates per batch.
func WithMaxBatchSignals(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatchSignals = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxBatchSignals: 500,
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes remaining components and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewInMemoryLimiter()
	}
	if s.actors == nil {
		s.actors = auth.NewStaticProvider()
	}
	if s.store == nil {
		store, err := repository.NewSQLiteStore(ctx, ":memory:")
		if err != nil {
			return fmt.Errorf("start service: %w", err)
		}
		s.store = store
		s.logger.Info(ctx, "using in-memory signal store")
	}
	s.validator = validate.New(validate.WithMaxSignals(s.maxBatchSignals))
	s.enricher = enrich.New()

	if l, ok := s.limiter.(*ratelimit.InMemoryLimiter); ok {
		l.StartSweeper(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "import service started",
		logger.Int("maxBatchSignals", s.maxBatchSignals),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "import service stopped")
}

// ResolveActor resolves a session token to an actor; nil means expired.
func (s *Service) ResolveActor(ctx context.Context, token string) (*auth.Actor, error) {
	return s.actors.Actor(ctx, token)
}

// CheckLimit applies the shared fixed-window limiter for key.
func (s *Service) CheckLimit(ctx context.Context, key string, max int, window time.Duration) ratelimit.Decision {
	return s.limiter.Check(ctx, key, max, window)
}

// Import validates raw, snapshots the dedup index, and drives every
// candidate through duplicate-check, enrichment, and persistence.
//
// Batch-level failures (no actor, validation) are all-or-nothing: they
// return an error and nothing is persisted. Item-level failures are
// isolated: the batch always completes with one result per candidate,
// in input order.
func (s *Service) Import(ctx context.Context, raw []byte) (*model.ImportSummary, error) {
	if auth.FromContext(ctx) == nil {
		metrics.RecordBatchRejected("auth")
		return nil, ErrSessionExpired
	}

	batch, fieldErrs := s.validator.Batch(raw)
	if len(fieldErrs) > 0 {
		metrics.RecordBatchRejected("validation")
		return nil, &ValidationError{Fields: fieldErrs}
	}

	metrics.RecordBatchSize(len(batch.Signals))

	// The index is a snapshot taken once before the loop; items imported
	// by this very batch are not re-checked against it.
	var index *dedupe.Index
	if batch.Options.SkipDuplicates {
		index = dedupe.Build(ctx, s.store)
	}

	summary := &model.ImportSummary{
		Errors:  []string{},
		Details: make([]model.ImportResult, 0, len(batch.Signals)),
	}
	for i := range batch.Signals {
		result := s.processItem(ctx, &batch.Signals[i], index, batch.Options)
		summary.Details = append(summary.Details, result)
		switch result.Status {
		case model.StatusImported:
			summary.Imported++
		case model.StatusSkipped:
			summary.Skipped++
		case model.StatusError:
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", result.Title, result.Error))
		}
	}

	metrics.RecordBatchProcessed()
	metrics.UpdateStoreRecordsTotal(s.store.Count(ctx))
	s.logger.Info(ctx, "batch processed",
		logger.Int("candidates", len(batch.Signals)),
		logger.Int("imported", summary.Imported),
		logger.Int("skipped", summary.Skipped),
		logger.Int("errors", len(summary.Errors)),
		logger.String("importSource", batch.Meta.ImportSource),
	)
	return summary, nil
}

// processItem runs one candidate through the pipeline. Any panic is
// recovered and recorded as this item's error outcome so later items
// still run; that isolation is the core correctness property here.
func (s *Service) processItem(ctx context.Context, sig *model.Signal, index *dedupe.Index, opts model.ImportOptions) (result model.ImportResult) {
	start := time.Now()
	result = model.ImportResult{Title: sig.Title}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "unexpected failure processing signal",
				logger.String("title", sig.Title),
				logger.Any("panic", r),
			)
			metrics.RecordSignalError()
			result.Status = model.StatusError
			result.Error = model.GenericImportError
		}
		metrics.RecordItemLatency(float64(time.Since(start).Milliseconds()))
	}()

	if opts.SkipDuplicates && index != nil {
		if index.HasURL(sig.SourceURL) {
			metrics.RecordSignalSkipped("url")
			result.Status = model.StatusSkipped
			result.Error = model.ReasonDuplicateURL
			return result
		}
		for _, id := range sig.CVEIDs {
			if index.HasCVE(id) {
				metrics.RecordSignalSkipped("cve")
				result.Status = model.StatusSkipped
				result.Error = model.ReasonDuplicateCVE
				return result
			}
		}
	}

	if opts.AutoEnrich {
		if s.enricher.Apply(sig) {
			metrics.RecordEnrichmentApplied()
		}
	}

	if _, err := s.store.Insert(ctx, sig); err != nil {
		// Full detail stays server-side; callers get the generic text.
		s.logger.Error(ctx, "signal insert failed",
			logger.String("title", sig.Title),
			logger.Error(err),
		)
		metrics.RecordSignalError()
		result.Status = model.StatusError
		result.Error = model.GenericImportError
		return result
	}

	metrics.RecordSignalImported()
	result.Status = model.StatusImported
	return result
}

// Preview validates raw without side effects.
func (s *Service) Preview(_ context.Context, raw []byte) model.ValidationReport {
	return s.validator.Preview(raw)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"maxBatchSignals": s.maxBatchSignals,
	}

	if s.started {
		total := s.store.Count(ctx)
		stats["storedSignals"] = total
		stats["limiterBuckets"] = s.limiter.Size()

		metrics.UpdateStoreRecordsTotal(total)
		metrics.UpdateRatelimitBuckets(s.limiter.Size())
	}

	return stats
}
