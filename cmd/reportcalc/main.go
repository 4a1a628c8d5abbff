// Command reportcalc recalculates production reports for a date range.
// Intended for cron or manual runs; a failing run is reported and skipped,
// never aborting the batch.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"production-tracking-backend/config"
	"production-tracking-backend/internal/db"
	"production-tracking-backend/internal/report"
	"production-tracking-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "reportcalc ", log.LstdFlags)

	startFlag := flag.String("start-date", "", "Start date in YYYY-MM-DD format (default: yesterday)")
	endFlag := flag.String("end-date", "", "End date in YYYY-MM-DD format (default: start date)")
	force := flag.Bool("force", false, "Force recalculation even if reports already exist")
	flag.Parse()

	start := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)
	if *startFlag != "" {
		var err error
		start, err = time.ParseInLocation("2006-01-02", *startFlag, time.UTC)
		if err != nil {
			logger.Fatalf("invalid -start-date %q: %v", *startFlag, err)
		}
	}
	end := start
	if *endFlag != "" {
		var err error
		end, err = time.ParseInLocation("2006-01-02", *endFlag, time.UTC)
		if err != nil {
			logger.Fatalf("invalid -end-date %q: %v", *endFlag, err)
		}
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}

	builder := report.NewBuilder(store.NewGormStore(gormDB))

	logger.Printf("Calculating reports from %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	result, err := builder.RecalculateRange(context.Background(), start, end, *force)
	if err != nil {
		logger.Fatalf("batch recalculation failed: %v", err)
	}

	for _, failure := range result.Failures {
		logger.Printf("error calculating report for %s: %s", failure.BatchNumber, failure.Err)
	}
	logger.Printf("Successfully processed %d production runs (%d failed)",
		result.Processed, len(result.Failures))
}
