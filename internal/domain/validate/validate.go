// Package validate turns raw import payloads into typed batches.
//
// Validation is all-or-nothing at batch granularity: a single invalid
// candidate yields an error list describing every offending field across
// the whole batch, and nothing is persisted.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/northlux/securelab/internal/domain/model"
)

// Title length bounds in characters.
const (
	titleMinLen = 10
	titleMaxLen = 500

	confidenceMin = 0
	confidenceMax = 100

	defaultMaxSignals = 500
)

// Validator checks raw batch payloads against the signal schema.
type Validator struct {
	maxSignals int
}

// Option applies a configuration option to the Validator.
type Option func(*Validator)

// WithMaxSignals caps the number of candidates accepted per batch.
func WithMaxSignals(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.maxSignals = n
		}
	}
}

// New constructs a Validator with default configuration.
func New(opts ...Option) *Validator {
	v := &Validator{
		maxSignals: defaultMaxSignals,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Batch parses and type-checks raw, returning either a typed batch or an
// ordered list of "<field.path>: <message>" errors. Never both.
func (v *Validator) Batch(raw []byte) (*model.ImportBatch, []string) {
	var errs []string

	root, ok := decodeObject(raw)
	if !ok {
		return nil, []string{"request: body must be a JSON object"}
	}

	batch := &model.ImportBatch{
		Options: model.DefaultImportOptions(),
	}

	if meta, present := root["metadata"]; present {
		batch.Meta = v.checkMeta(meta, &errs)
	}
	if opts, present := root["options"]; present {
		batch.Options = v.checkOptions(opts, &errs)
	}

	rawSignals, present := root["signals"]
	if !present {
		errs = append(errs, "signals: field is required")
		return nil, errs
	}
	list, ok := rawSignals.([]interface{})
	if !ok {
		errs = append(errs, "signals: must be an array")
		return nil, errs
	}
	if len(list) == 0 {
		errs = append(errs, "signals: must not be empty")
	}
	if len(list) > v.maxSignals {
		errs = append(errs, fmt.Sprintf("signals: batch exceeds maximum of %d candidates", v.maxSignals))
	}

	batch.Signals = make([]model.Signal, 0, len(list))
	for i, item := range list {
		path := fmt.Sprintf("signals[%d]", i)
		obj, ok := item.(map[string]interface{})
		if !ok {
			errs = append(errs, path+": must be an object")
			continue
		}
		batch.Signals = append(batch.Signals, v.checkSignal(obj, path, &errs))
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return batch, nil
}

// Preview runs the same checks as Batch without any side effects, for
// previewing a payload before committing to an import.
func (v *Validator) Preview(raw []byte) model.ValidationReport {
	batch, errs := v.Batch(raw)
	if len(errs) > 0 {
		return model.ValidationReport{Valid: false, Errors: errs}
	}
	return model.ValidationReport{Valid: true, Count: len(batch.Signals), Errors: []string{}}
}

func (v *Validator) checkMeta(raw interface{}, errs *[]string) model.BatchMeta {
	var meta model.BatchMeta
	obj, ok := raw.(map[string]interface{})
	if !ok {
		*errs = append(*errs, "metadata: must be an object")
		return meta
	}
	meta.ImportSource = optString(obj, "import_source", "metadata.import_source", errs)
	meta.ImportDate = optString(obj, "import_date", "metadata.import_date", errs)
	meta.BatchID = optString(obj, "batch_id", "metadata.batch_id", errs)
	if meta.BatchID != "" {
		if _, err := uuid.Parse(meta.BatchID); err != nil {
			*errs = append(*errs, "metadata.batch_id: must be a UUID")
		}
	}
	return meta
}

func (v *Validator) checkOptions(raw interface{}, errs *[]string) model.ImportOptions {
	opts := model.DefaultImportOptions()
	obj, ok := raw.(map[string]interface{})
	if !ok {
		*errs = append(*errs, "options: must be an object")
		return opts
	}
	if val, present := obj["skip_duplicates"]; present {
		if b, ok := val.(bool); ok {
			opts.SkipDuplicates = b
		} else {
			*errs = append(*errs, "options.skip_duplicates: must be a boolean")
		}
	}
	if val, present := obj["auto_enrich"]; present {
		if b, ok := val.(bool); ok {
			opts.AutoEnrich = b
		} else {
			*errs = append(*errs, "options.auto_enrich: must be a boolean")
		}
	}
	return opts
}

//nolint:gocyclo // one field check per schema rule; splitting obscures the schema
func (v *Validator) checkSignal(obj map[string]interface{}, path string, errs *[]string) model.Signal {
	var s model.Signal

	s.Title = requireString(obj, "title", path+".title", errs)
	if s.Title != "" {
		if n := utf8.RuneCountInString(s.Title); n < titleMinLen || n > titleMaxLen {
			*errs = append(*errs, fmt.Sprintf("%s.title: must be between %d and %d characters", path, titleMinLen, titleMaxLen))
		}
	}
	s.Summary = optString(obj, "summary", path+".summary", errs)
	s.FullText = optString(obj, "full_text", path+".full_text", errs)

	s.Category = model.DefaultCategory
	if raw, present := obj["category"]; present {
		if str, ok := raw.(string); ok {
			c := model.Category(str)
			if c.Valid() {
				s.Category = c
			} else {
				*errs = append(*errs, fmt.Sprintf("%s.category: %q is not a valid category", path, str))
			}
		} else {
			*errs = append(*errs, path+".category: must be a string")
		}
	}

	s.Severity = model.DefaultSeverity
	if raw, present := obj["severity"]; present {
		if str, ok := raw.(string); ok {
			sev := model.Severity(str)
			if sev.Valid() {
				s.Severity = sev
			} else {
				*errs = append(*errs, fmt.Sprintf("%s.severity: %q is not a valid severity", path, str))
			}
		} else {
			*errs = append(*errs, path+".severity: must be a string")
		}
	}

	if raw, present := obj["confidence_level"]; present {
		if n, ok := asInt(raw); ok {
			if n < confidenceMin || n > confidenceMax {
				*errs = append(*errs, fmt.Sprintf("%s.confidence_level: must be between %d and %d", path, confidenceMin, confidenceMax))
			} else {
				s.ConfidenceLevel = &n
			}
		} else {
			*errs = append(*errs, path+".confidence_level: must be an integer")
		}
	}

	s.SourceID = optString(obj, "source_id", path+".source_id", errs)
	s.SourceName = optString(obj, "source_name", path+".source_name", errs)
	s.SourceType = optString(obj, "source_type", path+".source_type", errs)
	s.SourceURL = optString(obj, "source_url", path+".source_url", errs)
	if s.SourceURL != "" {
		if u, err := url.Parse(s.SourceURL); err != nil || !u.IsAbs() {
			*errs = append(*errs, path+".source_url: must be an absolute URL")
		}
	}
	s.PublishedAt = optString(obj, "published_at", path+".published_at", errs)

	s.CVEIDs = optStringArray(obj, "cve_ids", path+".cve_ids", errs)
	s.ThreatActors = optStringArray(obj, "threat_actors", path+".threat_actors", errs)
	s.MalwareFamilies = optStringArray(obj, "malware_families", path+".malware_families", errs)
	s.Campaigns = optStringArray(obj, "campaigns", path+".campaigns", errs)
	s.TargetIndustries = optStringArray(obj, "target_industries", path+".target_industries", errs)
	s.TargetRegions = optStringArray(obj, "target_regions", path+".target_regions", errs)
	s.AffectedProducts = optStringArray(obj, "affected_products", path+".affected_products", errs)
	s.MitreTactics = optStringArray(obj, "mitre_tactics", path+".mitre_tactics", errs)
	s.MitreTechniques = optStringArray(obj, "mitre_techniques", path+".mitre_techniques", errs)
	s.IOCTypes = optStringArray(obj, "ioc_types", path+".ioc_types", errs)

	s.IsFeatured = optBool(obj, "is_featured", path+".is_featured", errs)
	s.IsVerified = optBool(obj, "is_verified", path+".is_verified", errs)
	s.IsFraudTrustSafety = optBool(obj, "is_fraud_trust_safety", path+".is_fraud_trust_safety", errs)

	s.TagIDs = optStringArray(obj, "tag_ids", path+".tag_ids", errs)
	for _, id := range s.TagIDs {
		if _, err := uuid.Parse(id); err != nil {
			*errs = append(*errs, fmt.Sprintf("%s.tag_ids: %q must be a UUID", path, id))
		}
	}

	return s
}

// decodeObject decodes raw JSON into a generic object, keeping numbers as
// json.Number so integer checks stay exact.
func decodeObject(raw []byte) (map[string]interface{}, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var root map[string]interface{}
	if err := dec.Decode(&root); err != nil {
		return nil, false
	}
	return root, true
}

func requireString(obj map[string]interface{}, key, path string, errs *[]string) string {
	raw, present := obj[key]
	if !present {
		*errs = append(*errs, path+": field is required")
		return ""
	}
	str, ok := raw.(string)
	if !ok {
		*errs = append(*errs, path+": must be a string")
		return ""
	}
	return str
}

func optString(obj map[string]interface{}, key, path string, errs *[]string) string {
	raw, present := obj[key]
	if !present || raw == nil {
		return ""
	}
	str, ok := raw.(string)
	if !ok {
		*errs = append(*errs, path+": must be a string")
		return ""
	}
	return str
}

func optBool(obj map[string]interface{}, key, path string, errs *[]string) bool {
	raw, present := obj[key]
	if !present || raw == nil {
		return false
	}
	b, ok := raw.(bool)
	if !ok {
		*errs = append(*errs, path+": must be a boolean")
		return false
	}
	return b
}

func optStringArray(obj map[string]interface{}, key, path string, errs *[]string) []string {
	raw, present := obj[key]
	if !present || raw == nil {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		*errs = append(*errs, path+": must be an array of strings")
		return nil
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		str, ok := item.(string)
		if !ok {
			*errs = append(*errs, fmt.Sprintf("%s[%d]: must be a string", path, i))
			continue
		}
		out = append(out, str)
	}
	return out
}

func asInt(raw interface{}) (int, bool) {
	num, ok := raw.(json.Number)
	if !ok {
		return 0, false
	}
	n, err := num.Int64()
	if err != nil {
		return 0, false
	}
	return int(n), true
}
