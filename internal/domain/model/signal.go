// Package model contains domain models passed between layers.
package model

// Category classifies what kind of threat intelligence a signal carries.
type Category string

// Category enumeration. DefaultCategory applies when the field is absent.
const (
	CategoryCVE           Category = "cve"
	CategoryAdvisory      Category = "advisory"
	CategoryAPT           Category = "apt"
	CategoryMalware       Category = "malware"
	CategoryNews          Category = "news"
	CategoryResearch      Category = "research"
	CategoryExploit       Category = "exploit"
	CategoryVulnerability Category = "vulnerability"
	CategoryIncident      Category = "incident"

	DefaultCategory = CategoryNews
)

// Categories lists every valid category value.
func Categories() []Category {
	return []Category{
		CategoryCVE, CategoryAdvisory, CategoryAPT, CategoryMalware,
		CategoryNews, CategoryResearch, CategoryExploit,
		CategoryVulnerability, CategoryIncident,
	}
}

// Valid reports whether c is a member of the category enumeration.
func (c Category) Valid() bool {
	for _, v := range Categories() {
		if c == v {
			return true
		}
	}
	return false
}

// Severity is the fixed-enumeration urgency rating of a signal.
type Severity string

// Severity enumeration. DefaultSeverity applies when the field is absent.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"

	DefaultSeverity = SeverityMedium
)

// Severities lists every valid severity value.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}
}

// Valid reports whether s is a member of the severity enumeration.
func (s Severity) Valid() bool {
	for _, v := range Severities() {
		if s == v {
			return true
		}
	}
	return false
}

// Signal is one threat-intelligence record describing a vulnerability,
// campaign, actor, or event.
type Signal struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary,omitempty"`
	FullText string   `json:"full_text,omitempty"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`

	// ConfidenceLevel is nil until supplied or computed by enrichment.
	// Invariant after enrichment: always within [0,100].
	ConfidenceLevel *int `json:"confidence_level,omitempty"`

	SourceID    string `json:"source_id,omitempty"`
	SourceName  string `json:"source_name,omitempty"`
	SourceType  string `json:"source_type,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`

	CVEIDs           []string `json:"cve_ids,omitempty"`
	ThreatActors     []string `json:"threat_actors,omitempty"`
	MalwareFamilies  []string `json:"malware_families,omitempty"`
	Campaigns        []string `json:"campaigns,omitempty"`
	TargetIndustries []string `json:"target_industries,omitempty"`
	TargetRegions    []string `json:"target_regions,omitempty"`
	AffectedProducts []string `json:"affected_products,omitempty"`
	MitreTactics     []string `json:"mitre_tactics,omitempty"`
	MitreTechniques  []string `json:"mitre_techniques,omitempty"`
	IOCTypes         []string `json:"ioc_types,omitempty"`

	IsFeatured         bool `json:"is_featured,omitempty"`
	IsVerified         bool `json:"is_verified,omitempty"`
	IsFraudTrustSafety bool `json:"is_fraud_trust_safety,omitempty"`

	TagIDs []string `json:"tag_ids,omitempty"`
}

// BatchMeta is optional metadata describing where a batch came from.
type BatchMeta struct {
	ImportSource string `json:"import_source,omitempty"`
	ImportDate   string `json:"import_date,omitempty"`
	BatchID      string `json:"batch_id,omitempty"`
}

// ImportOptions are caller-supplied switches for one import call.
type ImportOptions struct {
	SkipDuplicates bool `json:"skip_duplicates"`
	AutoEnrich     bool `json:"auto_enrich"`
}

// DefaultImportOptions returns the documented defaults: dedup on, enrichment on.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{SkipDuplicates: true, AutoEnrich: true}
}

// ImportBatch is a validated batch of candidate signals. Transient; it
// exists only for the duration of one import call.
type ImportBatch struct {
	Meta    BatchMeta
	Signals []Signal
	Options ImportOptions
}

// ItemStatus tags the outcome of processing one candidate.
type ItemStatus string

// Item outcome enumeration.
const (
	StatusImported ItemStatus = "imported"
	StatusSkipped  ItemStatus = "skipped"
	StatusError    ItemStatus = "error"
)

// Skip reasons reported to callers; these are the only per-item detail
// a duplicate produces.
const (
	ReasonDuplicateURL = "duplicate URL"
	ReasonDuplicateCVE = "duplicate CVE"
)

// GenericImportError is the only per-item failure text exposed to callers.
// Raw store errors stay in the server log.
const GenericImportError = "failed to import; check format and retry"

// ImportResult is the outcome for a single candidate, in input order.
type ImportResult struct {
	Title  string     `json:"title"`
	Status ItemStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// ImportSummary aggregates per-item outcomes for a whole batch.
// Details appear in the same order as the input candidates.
type ImportSummary struct {
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Errors   []string       `json:"errors"`
	Details  []ImportResult `json:"details"`
}

// ValidationReport is the result of a validate-only call.
type ValidationReport struct {
	Valid  bool     `json:"valid"`
	Count  int      `json:"count"`
	Errors []string `json:"errors"`
}
