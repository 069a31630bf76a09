// Package siggen generates synthetic signal batches for smoke-testing a
// running import server.
package siggen

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/northlux/securelab/internal/domain/model"
)

// Shares of generated signals that carry a CVE id or duplicate an
// earlier signal's source URL (out of 100).
const (
	cvePercent       = 40
	duplicatePercent = 20
	percentScale     = 100
)

var sampleTitles = []string{
	"Critical remote code execution in enterprise VPN appliances",
	"Ransomware campaign targets regional hospital networks",
	"Phishing kit impersonates central bank payment portal",
	"Zero-day exploited against government mail gateways",
	"Botnet abuses exposed industrial control interfaces",
	"Credential stealer spreads through fake software updates",
	"Supply chain compromise hits open source registry",
	"APT group expands operations against telecom providers",
}

var sampleCategories = []model.Category{
	model.CategoryCVE, model.CategoryAdvisory, model.CategoryMalware,
	model.CategoryNews, model.CategoryExploit, model.CategoryIncident,
}

var sampleSeverities = []model.Severity{
	model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityLow,
}

// randInt returns a random int in [0, n) using crypto/rand.
func randInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// GenerateBatch builds an import request with count candidates. Roughly
// duplicatePercent of the candidates reuse an earlier URL so a second
// submission exercises the duplicate-skip path.
func GenerateBatch(count int) map[string]interface{} {
	signals := make([]map[string]interface{}, count)
	var urls []string

	for i := 0; i < count; i++ {
		title := fmt.Sprintf("%s (%s)", sampleTitles[randInt(len(sampleTitles))], uuid.NewString()[:8])
		sig := map[string]interface{}{
			"title":    title,
			"summary":  "Synthetic signal generated for import smoke tests.",
			"category": string(sampleCategories[randInt(len(sampleCategories))]),
			"severity": string(sampleSeverities[randInt(len(sampleSeverities))]),
		}

		if len(urls) > 0 && randInt(percentScale) < duplicatePercent {
			sig["source_url"] = urls[randInt(len(urls))]
		} else {
			u := "https://feeds.example.com/signals/" + uuid.NewString()
			sig["source_url"] = u
			urls = append(urls, u)
		}

		if randInt(percentScale) < cvePercent {
			sig["cve_ids"] = []string{fmt.Sprintf("CVE-2025-%04d", randInt(10000))}
		}
		if randInt(percentScale) < 25 {
			sig["is_verified"] = true
		}

		signals[i] = sig
	}

	return map[string]interface{}{
		"metadata": map[string]interface{}{
			"import_source": "signal-gen",
			"batch_id":      uuid.NewString(),
		},
		"signals": signals,
	}
}
