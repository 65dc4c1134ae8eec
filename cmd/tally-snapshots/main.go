package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/tally/pkg/definitions"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/snapshots"
	"github.com/platinummonkey/tally/pkg/stats"
	"github.com/platinummonkey/tally/pkg/storage"
	"github.com/platinummonkey/tally/pkg/storage/sqlstore"
)

func main() {
	dbURL := flag.String("db-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL (defaults to DATABASE_URL)")
	manifestPath := flag.String("manifest", "", "Path to the statistics manifest")
	schedule := flag.String("schedule", "5 0 * * *", "Cron schedule for snapshot runs")
	runOnce := flag.Bool("run-once", false, "Record one snapshot run and exit")
	timeout := flag.Duration("timeout", 5*time.Minute, "Per-run evaluation timeout")
	filtersFlag := flag.String("filters", "", "Filter context for every run, as key=value pairs separated by commas")
	exceptFlag := flag.String("except", "", "Statistics to skip, separated by commas")
	metricsAddr := flag.String("metrics-addr", "", "Address to serve Prometheus metrics on (scheduler mode only, empty disables)")

	s3Bucket := flag.String("s3-bucket", "", "S3 bucket to archive runs to (empty disables export)")
	s3Region := flag.String("s3-region", os.Getenv("AWS_REGION"), "S3 region")
	s3Prefix := flag.String("s3-prefix", "snapshots", "Key prefix for archived runs")
	s3Endpoint := flag.String("s3-endpoint", "", "Custom S3 endpoint (for MinIO or localstack)")
	s3AccessKey := flag.String("s3-access-key", "", "Static S3 access key (default credential chain when empty)")
	s3SecretKey := flag.String("s3-secret-key", "", "Static S3 secret key")
	s3PathStyle := flag.Bool("s3-path-style", false, "Use path-style S3 addressing")
	flag.Parse()

	logger := logrus.New()

	if *dbURL == "" {
		logger.Fatal("Database URL is required (use -db-url or DATABASE_URL)")
	}
	if *manifestPath == "" {
		logger.Fatal("Manifest path is required (use -manifest)")
	}

	filters, err := parseFilters(*filtersFlag)
	if err != nil {
		logger.Fatalf("Invalid -filters value: %v", err)
	}
	except := splitNames(*exceptFlag)

	storageCfg := storage.DefaultConfig()
	storageCfg.PostgresURL = *dbURL
	db, err := sqlstore.Open(storageCfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	manifest, err := definitions.Load(*manifestPath)
	if err != nil {
		logger.Fatalf("Failed to load manifest: %v", err)
	}

	registry, table, err := manifest.Build(db)
	if err != nil {
		logger.Fatalf("Failed to build statistics from manifest: %v", err)
	}

	// Runs always evaluate fresh; a cache layer here would record stale
	// values into history.
	evaluator := stats.NewEvaluator(registry, table)

	var metrics *observability.Metrics
	if *metricsAddr != "" && !*runOnce {
		metrics = observability.NewMetrics(nil)
		evaluator.SetObserver(metrics)
		go serveMetrics(logger, metrics, *metricsAddr)
	}

	recorder := snapshots.NewRecorder(db, evaluator)

	var exporter *snapshots.Exporter
	if *s3Bucket != "" {
		exporter, err = snapshots.NewExporter(context.Background(), snapshots.ExportConfig{
			Bucket:       *s3Bucket,
			Region:       *s3Region,
			Prefix:       *s3Prefix,
			Endpoint:     *s3Endpoint,
			AccessKey:    *s3AccessKey,
			SecretKey:    *s3SecretKey,
			UsePathStyle: *s3PathStyle,
		})
		if err != nil {
			logger.Fatalf("Failed to build S3 exporter: %v", err)
		}
	}

	job := func() error {
		return recordRun(logger, recorder, exporter, metrics, filters, except, *timeout)
	}

	if *runOnce {
		logger.Info("Recording one snapshot run")
		if err := job(); err != nil {
			logger.Fatalf("Snapshot run failed: %v", err)
		}
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, func() {
		if err := job(); err != nil {
			logger.WithError(err).Error("Snapshot run failed")
		}
	}); err != nil {
		logger.Fatalf("Invalid schedule %q: %v", *schedule, err)
	}

	c.Start()
	logger.WithField("schedule", *schedule).Info("Snapshot scheduler started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down, waiting for running jobs")
	ctx := c.Stop()
	<-ctx.Done()
}

// recordRun performs one snapshot run and, when configured, archives it.
func recordRun(logger *logrus.Logger, recorder *snapshots.Recorder, exporter *snapshots.Exporter, metrics *observability.Metrics, filters stats.Filters, except []string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	run, err := recorder.RecordAll(ctx, filters, except...)
	if metrics != nil {
		metrics.ObserveSnapshotRun(err)
	}
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"run_id":     run.ID,
		"statistics": len(run.Values),
	}).Info("Snapshot run recorded")

	if exporter != nil {
		key, err := exporter.Export(ctx, run)
		if err != nil {
			return fmt.Errorf("failed to archive run %s: %w", run.ID, err)
		}
		logger.WithFields(logrus.Fields{
			"run_id": run.ID,
			"key":    key,
		}).Info("Snapshot run archived")
	}
	return nil
}

func serveMetrics(logger *logrus.Logger, metrics *observability.Metrics, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	logger.WithField("addr", addr).Info("Metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.WithError(err).Error("Metrics server failed")
	}
}

// parseFilters turns "org_id=7,public=true" into a filter context. Values
// are strings except the literals true and false, matching how the API
// coerces query parameters.
func parseFilters(raw string) (stats.Filters, error) {
	if raw == "" {
		return nil, nil
	}

	filters := make(stats.Filters)
	for _, pair := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found || key == "" {
			return nil, fmt.Errorf("malformed pair %q, want key=value", pair)
		}
		switch value {
		case "true":
			filters[key] = true
		case "false":
			filters[key] = false
		default:
			filters[key] = value
		}
	}
	return filters, nil
}

func splitNames(raw string) []string {
	if raw == "" {
		return nil
	}
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}
