package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincrime-screener/internal/config"
	"github.com/dvloznov/fincrime-screener/internal/enrich"
	"github.com/dvloznov/fincrime-screener/internal/feature"
	"github.com/dvloznov/fincrime-screener/internal/gcsio"
	"github.com/dvloznov/fincrime-screener/internal/gen"
	infraBQ "github.com/dvloznov/fincrime-screener/internal/infra/bigquery"
	"github.com/dvloznov/fincrime-screener/internal/logger"
	"github.com/dvloznov/fincrime-screener/internal/pipeline"
	"github.com/dvloznov/fincrime-screener/internal/score"
	"github.com/dvloznov/fincrime-screener/internal/screening"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runScreen()
	case "preview":
		runPreview()
	case "summarize":
		runSummarize()
	case "gen":
		runGen()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Counterparty Screener CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  screener <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  run        Screen a transaction batch end to end")
	fmt.Println("  preview    Print the prompts a batch would produce, without scoring")
	fmt.Println("  summarize  Recompute summaries from an exported decisions file")
	fmt.Println("  gen        Generate a synthetic transaction batch")
	fmt.Println("  help       Show this help message")
	fmt.Println("\nRun 'screener <command> -h' for more information on a command.")
}

func loadConfig(ctx context.Context) (*config.Config, zerolog.Logger) {
	log := logger.New()
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration invalid")
	}
	return cfg, logger.NewWithLevel(cfg.LogLevel)
}

// buildScorer constructs the backend named by the configuration, with an
// optional command-line override.
func buildScorer(ctx context.Context, cfg *config.Config, backend string, optionalColumns []string) (score.Scorer, error) {
	if backend == "" {
		backend = cfg.Backend
	}
	switch backend {
	case config.BackendGemini:
		return score.NewGeminiScorer(ctx, cfg.ProjectID, cfg.Location, cfg.Model, optionalColumns)
	case config.BackendClassifier:
		if cfg.ClassifierEndpoint == "" {
			return nil, fmt.Errorf("classifier backend requires classifier_endpoint")
		}
		return score.NewClassifierScorer(cfg.ClassifierEndpoint), nil
	case config.BackendRules:
		table := score.DefaultRuleTable()
		if cfg.RuleTablePath != "" {
			loaded, err := score.LoadRuleTable(cfg.RuleTablePath)
			if err != nil {
				return nil, err
			}
			table = loaded
		}
		return score.NewRuleScorer(table), nil
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

func buildEnricher(cfg *config.Config, log zerolog.Logger) *enrich.Enricher {
	registry := enrich.NewOpenCorporatesClient(cfg.RegistryBaseURL, cfg.RegistryToken, cfg.LookupMaxAttempts)
	pace := time.Duration(cfg.LookupPaceMS) * time.Millisecond
	return enrich.New(registry, pace, log)
}

func runScreen() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	input := fs.String("input", "", "Batch CSV to screen (gs:// URI or local path)")
	export := fs.String("export", "", "Output prefix for decision and summary CSVs")
	backend := fs.String("backend", "", "Scorer backend override: gemini, classifier or rules")
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	cfg, log := loadConfig(ctx)
	ctx = logger.WithContext(ctx, log)

	if *input == "" || *export == "" {
		log.Fatal().Msg("Error: --input and --export are required")
	}

	// Peek at the batch first so the scorer knows the optional column set.
	data, err := gcsio.Fetch(ctx, *input)
	if err != nil {
		log.Fatal().Err(err).Msg("Fetching input failed")
	}
	batch, err := screening.Extract(bytes.NewReader(data))
	if err != nil {
		log.Fatal().Err(err).Msg("Batch rejected")
	}

	scorer, err := buildScorer(ctx, cfg, *backend, batch.OptionalColumns)
	if err != nil {
		log.Fatal().Err(err).Msg("Scorer unavailable")
	}

	var recorder pipeline.RunRecorder = pipeline.NoopRecorder{}
	if cfg.BigQueryDataset != "" {
		repo, err := infraBQ.NewRepository(ctx, cfg.ProjectID, cfg.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("BigQuery unavailable")
		}
		defer repo.Close()
		recorder = repo
	}

	deps := &pipeline.Dependencies{
		Storage:  gcsio.NewService(),
		Enricher: buildEnricher(cfg, log),
		Scorer:   scorer,
		Recorder: recorder,
		Log:      log,
	}

	usedBackend := *backend
	if usedBackend == "" {
		usedBackend = cfg.Backend
	}

	state, err := pipeline.Run(ctx, deps, usedBackend, cfg.Model, *input, *export)
	if err != nil {
		log.Fatal().Err(err).Msg("Screening failed")
	}

	fmt.Printf("Screened %d transactions. Exports written under %s\n", len(state.Decisions), *export)
}

func runPreview() {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	input := fs.String("input", "", "Batch CSV to preview (gs:// URI or local path)")
	rows := fs.Int("rows", 3, "Number of prompts to print")
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	cfg, log := loadConfig(ctx)
	ctx = logger.WithContext(ctx, log)

	if *input == "" {
		log.Fatal().Msg("Error: --input is required")
	}

	data, err := gcsio.Fetch(ctx, *input)
	if err != nil {
		log.Fatal().Err(err).Msg("Fetching input failed")
	}
	batch, err := screening.Extract(bytes.NewReader(data))
	if err != nil {
		log.Fatal().Err(err).Msg("Batch rejected")
	}

	enriched, err := buildEnricher(cfg, log).EnrichBatch(ctx, batch)
	if err != nil {
		log.Fatal().Err(err).Msg("Enrichment failed")
	}

	prompts := feature.BuildPrompts(enriched, batch.OptionalColumns)
	if *rows < len(prompts) {
		prompts = prompts[:*rows]
	}
	for _, p := range prompts {
		fmt.Printf("--- %s ---\n%s\n\n", p.TransactionID, p.Text)
	}
}

func runSummarize() {
	fs := flag.NewFlagSet("summarize", flag.ExitOnError)
	input := fs.String("decisions", "", "Exported decisions CSV (gs:// URI or local path)")
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	_, log := loadConfig(ctx)

	if *input == "" {
		log.Fatal().Msg("Error: --decisions is required")
	}

	data, err := gcsio.Fetch(ctx, *input)
	if err != nil {
		log.Fatal().Err(err).Msg("Fetching decisions failed")
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil || len(records) < 1 {
		log.Fatal().Err(err).Msg("Decisions file unreadable")
	}

	verdictIdx, reasonsIdx := -1, -1
	for i, col := range records[0] {
		switch col {
		case "verdict":
			verdictIdx = i
		case "reasons":
			reasonsIdx = i
		}
	}
	if verdictIdx < 0 || reasonsIdx < 0 {
		log.Fatal().Msg("Decisions file missing verdict/reasons columns")
	}

	verdicts := make(map[string]int)
	reasons := make(map[string]int)
	for _, rec := range records[1:] {
		verdicts[rec[verdictIdx]]++
		for _, reason := range strings.Split(rec[reasonsIdx], "; ") {
			if reason != "" {
				reasons[reason]++
			}
		}
	}

	fmt.Println("verdict,count")
	for verdict, n := range verdicts {
		fmt.Printf("%s,%d\n", verdict, n)
	}
	fmt.Println("\nreason,count")
	for reason, n := range reasons {
		fmt.Printf("%s,%d\n", reason, n)
	}
}

func runGen() {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	out := fs.String("out", "", "Output location (gs:// URI or local path)")
	rows := fs.Int("rows", 100, "Number of synthetic transactions")
	seed := fs.Int64("seed", time.Now().UnixNano(), "Random seed")
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	_, log := loadConfig(ctx)

	if *out == "" {
		log.Fatal().Msg("Error: --out is required")
	}

	var buf bytes.Buffer
	if err := gen.New(*seed).WriteCSV(&buf, *rows); err != nil {
		log.Fatal().Err(err).Msg("Generation failed")
	}
	if err := gcsio.Write(ctx, *out, buf.Bytes()); err != nil {
		log.Fatal().Err(err).Msg("Writing batch failed")
	}

	fmt.Printf("Wrote %d synthetic transactions to %s\n", *rows, *out)
}
