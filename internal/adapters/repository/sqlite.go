package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/northlux/securelab/internal/domain/model"
	"github.com/northlux/securelab/pkg/metrics"
)

// SQLite pragmas applied on open. WAL and a busy timeout keep the single
// writer usable under concurrent request handlers.
const (
	busyTimeoutMS = 10_000

	schema = `
CREATE TABLE IF NOT EXISTS signals (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	full_text TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL CHECK(category IN ('cve','advisory','apt','malware','news','research','exploit','vulnerability','incident')),
	severity TEXT NOT NULL CHECK(severity IN ('critical','high','medium','low','info')),
	confidence_level INTEGER NOT NULL CHECK(confidence_level >= 0 AND confidence_level <= 100),
	source_id TEXT NOT NULL DEFAULT '',
	source_name TEXT NOT NULL DEFAULT '',
	source_type TEXT NOT NULL DEFAULT '',
	source_url TEXT NOT NULL DEFAULT '',
	published_at TEXT NOT NULL DEFAULT '',
	cve_ids TEXT NOT NULL DEFAULT '[]',
	threat_actors TEXT NOT NULL DEFAULT '[]',
	malware_families TEXT NOT NULL DEFAULT '[]',
	campaigns TEXT NOT NULL DEFAULT '[]',
	target_industries TEXT NOT NULL DEFAULT '[]',
	target_regions TEXT NOT NULL DEFAULT '[]',
	affected_products TEXT NOT NULL DEFAULT '[]',
	mitre_tactics TEXT NOT NULL DEFAULT '[]',
	mitre_techniques TEXT NOT NULL DEFAULT '[]',
	ioc_types TEXT NOT NULL DEFAULT '[]',
	is_featured INTEGER NOT NULL DEFAULT 0,
	is_verified INTEGER NOT NULL DEFAULT 0,
	is_fraud_trust_safety INTEGER NOT NULL DEFAULT 0,
	tag_ids TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_source_url ON signals(source_url);
CREATE INDEX IF NOT EXISTS idx_signals_category ON signals(category);
CREATE INDEX IF NOT EXISTS idx_signals_severity ON signals(severity);
CREATE INDEX IF NOT EXISTS idx_signals_created_at ON signals(created_at);
`
)

// SQLiteStore implements Store over a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at path.
// ":memory:" keeps the store in RAM, which the tests rely on.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	// SQLite has a single writer; one pooled connection also keeps an
	// in-memory database from splitting across connections.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMS),
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: apply pragmas: %w", ErrOpenStore, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ensure schema: %w", ErrOpenStore, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ExistingURLs returns every stored non-empty source URL.
func (s *SQLiteStore) ExistingURLs(ctx context.Context) (map[string]struct{}, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `SELECT source_url FROM signals WHERE source_url != ''`)
	if err != nil {
		return nil, fmt.Errorf("%w: urls: %w", ErrQueryKeys, err)
	}
	defer rows.Close()

	urls := make(map[string]struct{})
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("%w: urls: %w", ErrQueryKeys, err)
		}
		urls[u] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: urls: %w", ErrQueryKeys, err)
	}
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return urls, nil
}

// ExistingCVEIDs returns every stored CVE identifier, flattening the
// per-record arrays into one identifier -> exists mapping.
func (s *SQLiteStore) ExistingCVEIDs(ctx context.Context) (map[string]bool, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `SELECT cve_ids FROM signals WHERE cve_ids != '[]'`)
	if err != nil {
		return nil, fmt.Errorf("%w: cve ids: %w", ErrQueryKeys, err)
	}
	defer rows.Close()

	cves := make(map[string]bool)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%w: cve ids: %w", ErrQueryKeys, err)
		}
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return nil, fmt.Errorf("%w: cve ids: %w", ErrQueryKeys, err)
		}
		for _, id := range ids {
			cves[id] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: cve ids: %w", ErrQueryKeys, err)
	}
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return cves, nil
}

// Insert persists one signal and returns its assigned id.
func (s *SQLiteStore) Insert(ctx context.Context, sig *model.Signal) (string, error) {
	start := time.Now()
	id := uuid.NewString()

	confidence := 0
	if sig.ConfidenceLevel != nil {
		confidence = *sig.ConfidenceLevel
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signals (
			id, title, summary, full_text, category, severity, confidence_level,
			source_id, source_name, source_type, source_url, published_at,
			cve_ids, threat_actors, malware_families, campaigns,
			target_industries, target_regions, affected_products,
			mitre_tactics, mitre_techniques, ioc_types,
			is_featured, is_verified, is_fraud_trust_safety, tag_ids, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, sig.Title, sig.Summary, sig.FullText, string(sig.Category), string(sig.Severity), confidence,
		sig.SourceID, sig.SourceName, sig.SourceType, sig.SourceURL, sig.PublishedAt,
		jsonArray(sig.CVEIDs), jsonArray(sig.ThreatActors), jsonArray(sig.MalwareFamilies), jsonArray(sig.Campaigns),
		jsonArray(sig.TargetIndustries), jsonArray(sig.TargetRegions), jsonArray(sig.AffectedProducts),
		jsonArray(sig.MitreTactics), jsonArray(sig.MitreTechniques), jsonArray(sig.IOCTypes),
		boolInt(sig.IsFeatured), boolInt(sig.IsVerified), boolInt(sig.IsFraudTrustSafety),
		jsonArray(sig.TagIDs), time.Now().UTC(),
	)
	if err != nil {
		metrics.RecordStoreInsertError()
		return "", fmt.Errorf("%w: %w", ErrInsert, err)
	}
	metrics.RecordStoreInsertLatency(float64(time.Since(start).Milliseconds()))
	return id, nil
}

// Count returns the number of stored signals; 0 on query failure.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM signals`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func jsonArray(vals []string) string {
	if len(vals) == 0 {
		return "[]"
	}
	b, err := json.Marshal(vals)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
