package siggen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/northlux/securelab/internal/domain/model"
	"github.com/northlux/securelab/pkg/logger"
)

// Config controls one generator run.
type Config struct {
	BaseURL   string
	Token     string
	Batches   int
	BatchSize int
	Timeout   time.Duration
}

// Stats tallies the outcomes reported by the server.
type Stats struct {
	BatchesSent int
	Imported    int
	Skipped     int
	Errors      int
}

// Run generates Config.Batches batches and POSTs each to the import
// endpoint, accumulating the server-reported outcome counts.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	log := logger.Get().Named("siggen")
	client := &http.Client{Timeout: cfg.Timeout}
	stats := &Stats{}

	for i := 0; i < cfg.Batches; i++ {
		select {
		case <-ctx.Done():
			return stats, fmt.Errorf("run cancelled: %w", ctx.Err())
		default:
		}

		summary, err := postBatch(ctx, client, cfg, GenerateBatch(cfg.BatchSize))
		if err != nil {
			return stats, err
		}

		stats.BatchesSent++
		stats.Imported += summary.Imported
		stats.Skipped += summary.Skipped
		stats.Errors += len(summary.Errors)

		log.Info(ctx, "batch submitted",
			logger.Int("batch", i+1),
			logger.Int("imported", summary.Imported),
			logger.Int("skipped", summary.Skipped),
			logger.Int("errors", len(summary.Errors)),
		)
	}

	return stats, nil
}

func postBatch(ctx context.Context, client *http.Client, cfg Config, batch map[string]interface{}) (*model.ImportSummary, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/api/v1/signals/import", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("import rejected: status %d: %s", resp.StatusCode, payload)
	}

	var summary model.ImportSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return &summary, nil
}
