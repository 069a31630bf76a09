package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/northlux/securelab/internal/siggen"
	"github.com/northlux/securelab/pkg/logger"
)

// Default configuration constants.
const (
	defaultBatches   = 5
	defaultBatchSize = 50
	defaultTimeout   = 30 * time.Second
	defaultRunLimit  = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9090", "Base URL of the import service")
		token     = flag.String("token", "", "Bearer token for the import API")
		batches   = flag.Int("batches", defaultBatches, "Number of batches to submit")
		batchSize = flag.Int("size", defaultBatchSize, "Signals per batch")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	stats, err := siggen.Run(ctx, siggen.Config{
		BaseURL:   *baseURL,
		Token:     *token,
		Batches:   *batches,
		BatchSize: *batchSize,
		Timeout:   *timeout,
	})
	if err != nil {
		os.Stderr.WriteString("run failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	fmt.Printf("batches=%d imported=%d skipped=%d errors=%d\n",
		stats.BatchesSent, stats.Imported, stats.Skipped, stats.Errors)
}
