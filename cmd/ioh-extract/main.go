package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/hemodyn-data/ioh.report/internal/config"
	"github.com/hemodyn-data/ioh.report/internal/monitoring"
	"github.com/hemodyn-data/ioh.report/internal/pipeline"
	"github.com/hemodyn-data/ioh.report/internal/store"
	"github.com/hemodyn-data/ioh.report/internal/vitaldb"
)

func main() {
	dbPath := flag.String("db", "ioh_extract.db", "Path to the bookkeeping SQLite database")
	segmentsDir := flag.String("segments-dir", "segments", "Directory for emitted segment artifacts")
	recordingsDir := flag.String("recordings-dir", "recordings", "Directory of case recordings (0001.edf, 0002.edf, ...)")
	cacheDir := flag.String("cache-dir", "cache", "Directory for cached VitalDB metadata")
	configPath := flag.String("config", "", "Optional tuning JSON file")
	workers := flag.Int("workers", 0, "Case-level parallelism (overrides config when > 0)")
	maxCases := flag.Int("max-cases", 0, "Process at most N cases (overrides config when > 0)")
	sqiPath := flag.String("sqi", "", "Optional CSV allowlist of quality-screened case ids")
	baseURL := flag.String("base-url", vitaldb.DefaultBaseURL, "VitalDB API base URL")
	dev := flag.Bool("dev", false, "Use on-disk migrations instead of the embedded copy")
	flag.Parse()

	store.DevMode = *dev

	if args := flag.Args(); len(args) > 0 && args[0] == "migrate" {
		store.RunMigrateCommand(args[1:], *dbPath, *segmentsDir)
		return
	}

	configFile := *configPath
	if configFile == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			configFile = config.DefaultConfigPath
		}
	}
	cfg := config.EmptyTuning()
	if configFile != "" {
		var err error
		cfg, err = config.LoadTuning(configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *workers > 0 {
		cfg.Workers = workers
	}
	if *maxCases > 0 {
		cfg.MaxCases = maxCases
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := store.Open(*dbPath, *segmentsDir)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	migrationsFS, err := store.MigrationsFS()
	if err != nil {
		log.Fatalf("Failed to get migrations filesystem: %v", err)
	}
	if err := s.MigrateUp(migrationsFS); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	meta := vitaldb.NewMetadataClient(*cacheDir)
	meta.BaseURL = *baseURL

	cases, err := meta.Cases(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch case metadata: %v", err)
	}
	trackInfos, err := meta.Tracks(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch track metadata: %v", err)
	}

	crit := vitaldb.DefaultCriteria()
	if *sqiPath != "" {
		allow, err := vitaldb.LoadSQIAllowlist(*sqiPath)
		if err != nil {
			log.Fatalf("Failed to load SQI allowlist: %v", err)
		}
		crit.SQIAllowlist = allow
	}
	caseIDs := vitaldb.SelectCases(cases, trackInfos, crit)

	if cfg.GetShuffleCaseList() {
		// spreads the long cases across workers
		rand.Shuffle(len(caseIDs), func(i, j int) {
			caseIDs[i], caseIDs[j] = caseIDs[j], caseIDs[i]
		})
	}
	if limit := cfg.GetMaxCases(); limit > 0 && len(caseIDs) > limit {
		caseIDs = caseIDs[:limit]
	}

	rates := vitaldb.Rates{
		ArterialHz: cfg.GetArterialRateHz(),
		ECGHz:      cfg.GetECGRateHz(),
		EEGHz:      cfg.GetEEGRateHz(),
	}
	loader := vitaldb.NewLoader(*recordingsDir, rates, vitaldb.NewTrackCache(cfg.GetTrackCacheSize()))

	p := &pipeline.Pipeline{
		Loader:  loader,
		Store:   s,
		Params:  cfg.ExtractionParams(),
		Workers: cfg.GetWorkers(),
	}

	runID, err := s.BeginRun(ctx)
	if err != nil {
		log.Fatalf("Failed to begin run: %v", err)
	}
	monitoring.Logf("run %s: %d cases, %d workers", runID, len(caseIDs), cfg.GetWorkers())

	stats := p.Run(ctx, runID, caseIDs)

	// record the outcome even when the context was cancelled
	if err := s.FinishRun(context.Background(), runID, store.RunStats{
		Processed: stats.Processed,
		Skipped:   stats.Skipped,
		Excluded:  stats.Excluded,
		Failed:    stats.Failed,
	}); err != nil {
		log.Printf("Failed to record run completion: %v", err)
	}

	monitoring.Logf("run %s finished: %d processed (%d positive, %d negative segments), %d skipped, %d excluded, %d failed",
		runID, stats.Processed, stats.Positives, stats.Negatives, stats.Skipped, stats.Excluded, stats.Failed)
	if stats.Failed > 0 {
		os.Exit(1)
	}
}
