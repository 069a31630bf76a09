// Package enrich computes derived metadata for candidate signals.
//
// All functions are pure over the signal content; the engine only fills
// fields the caller left empty and never overwrites supplied values.
package enrich

import (
	"sort"
	"strings"

	"github.com/northlux/securelab/internal/domain/model"
)

// Confidence heuristic weights. The additive score starts at the base and
// is clamped to [0,100].
const (
	confidenceBase     = 50
	confidenceCVEBonus = 30
	confidenceVerified = 15
	confidenceCritical = 10
	confidenceHigh     = 5
	confidenceFeatured = 5
	confidenceCeiling  = 100
)

// defaultSourceType applies when a candidate names no source type.
const defaultSourceType = "manual"

// industryKeywords maps each industry bucket to the substrings that place
// a signal in it. Matching is case-insensitive over title+summary+full text.
var industryKeywords = map[string][]string{
	"healthcare":         {"hospital", "health", "medical", "patient", "clinic", "pharma"},
	"finance":            {"bank", "financial", "finance", "payment", "credit card", "insurance", "fintech"},
	"government":         {"government", "federal", "municipal", "ministry", "agency", "military", "defense"},
	"manufacturing":      {"manufactur", "factory", "industrial", "plant", "scada"},
	"energy":             {"energy", "power grid", "utility", "oil", "gas", "nuclear", "electric"},
	"telecommunications": {"telecom", "telco", "mobile carrier", "isp", "5g network"},
	"education":          {"university", "school", "education", "academic", "campus"},
	"retail":             {"retail", "e-commerce", "ecommerce", "shop", "point of sale", "pos system"},
	"technology":         {"software", "cloud", "saas", "tech company", "developer", "open source"},
	"transportation":     {"airline", "airport", "railway", "shipping", "logistics", "maritime", "transport"},
}

// Enricher fills inferred industries, confidence, and source type.
type Enricher struct {
	keywords map[string][]string
}

// Option applies a configuration option to the Enricher.
type Option func(*Enricher)

// WithIndustryKeywords replaces the industry keyword table.
func WithIndustryKeywords(keywords map[string][]string) Option {
	return func(e *Enricher) {
		if len(keywords) > 0 {
			e.keywords = keywords
		}
	}
}

// New constructs an Enricher with the default keyword table.
func New(opts ...Option) *Enricher {
	e := &Enricher{
		keywords: industryKeywords,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply enriches s in place. It reports whether anything changed.
func (e *Enricher) Apply(s *model.Signal) bool {
	changed := false

	if len(s.TargetIndustries) == 0 {
		if industries := e.InferIndustries(s); len(industries) > 0 {
			s.TargetIndustries = industries
			changed = true
		}
	}

	if s.ConfidenceLevel == nil {
		level := ConfidenceScore(s)
		s.ConfidenceLevel = &level
		changed = true
	}

	if s.SourceType == "" {
		s.SourceType = defaultSourceType
		changed = true
	}

	return changed
}

// InferIndustries scans the signal's text for industry keyword hits.
// A bucket is included when any of its keywords appears as a substring.
func (e *Enricher) InferIndustries(s *model.Signal) []string {
	text := strings.ToLower(s.Title + " " + s.Summary + " " + s.FullText)

	var industries []string
	for industry, keywords := range e.keywords {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				industries = append(industries, industry)
				break
			}
		}
	}
	sort.Strings(industries)
	return industries
}

// ConfidenceScore computes the additive confidence heuristic for s,
// clamped to [0,100]. A fully-boosted signal (CVE + verified + critical +
// featured) would sum to 110 and clamps at the ceiling.
func ConfidenceScore(s *model.Signal) int {
	score := confidenceBase
	if len(s.CVEIDs) > 0 {
		score += confidenceCVEBonus
	}
	if s.IsVerified {
		score += confidenceVerified
	}
	switch s.Severity {
	case model.SeverityCritical:
		score += confidenceCritical
	case model.SeverityHigh:
		score += confidenceHigh
	}
	if s.IsFeatured {
		score += confidenceFeatured
	}
	if score > confidenceCeiling {
		score = confidenceCeiling
	}
	return score
}
