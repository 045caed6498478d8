package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincrime-screener/internal/api/handlers"
	"github.com/dvloznov/fincrime-screener/internal/api/middleware"
	"github.com/dvloznov/fincrime-screener/internal/config"
	"github.com/dvloznov/fincrime-screener/internal/enrich"
	"github.com/dvloznov/fincrime-screener/internal/gcsio"
	infraBQ "github.com/dvloznov/fincrime-screener/internal/infra/bigquery"
	"github.com/dvloznov/fincrime-screener/internal/jobs"
	"github.com/dvloznov/fincrime-screener/internal/jobs/inmemory"
	"github.com/dvloznov/fincrime-screener/internal/logger"
	"github.com/dvloznov/fincrime-screener/internal/pipeline"
	"github.com/dvloznov/fincrime-screener/internal/score"
	"github.com/dvloznov/fincrime-screener/internal/screening"
)

func main() {
	ctx := context.Background()

	log := logger.New()
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration invalid")
	}
	log = logger.NewWithLevel(cfg.LogLevel)
	ctx = logger.WithContext(ctx, log)

	var recorder pipeline.RunRecorder = pipeline.NoopRecorder{}
	if cfg.BigQueryDataset != "" {
		repo, err := infraBQ.NewRepository(ctx, cfg.ProjectID, cfg.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
		}
		defer repo.Close()
		recorder = repo
	} else {
		log.Warn().Msg("No BigQuery dataset configured - runs will not be persisted")
	}

	// Job infrastructure: bounded in-memory queue, one worker so registry
	// pacing and model quota are held batch by batch.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.QueueSize, 1, jobStore)
	results := handlers.NewResults()

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		screenJob, ok := job.(*jobs.ScreenBatchJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", screenJob.JobID).
			Str("input_uri", screenJob.InputURI).
			Str("backend", screenJob.Backend).
			Msg("Processing screening job")

		state, err := screenBatch(ctx, cfg, log, recorder, screenJob)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", screenJob.JobID).
				Msg("Screening job failed")
			return err
		}

		results.Put(screenJob.JobID, state.Decisions)
		screenJob.RunID = state.RunID

		log.Info().
			Str("job_id", screenJob.JobID).
			Int("decisions", len(state.Decisions)).
			Msg("Screening job completed")
		return nil
	}

	go func() {
		log.Info().Msg("Starting screening worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Screening worker stopped with error")
		}
	}()

	runsHandler := handlers.NewRunsHandler(jobQueue, jobStore, cfg.Backend, log)
	summaryHandler := handlers.NewSummaryHandler(results, log)
	decisionsHandler := handlers.NewDecisionsHandler(results, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			runsHandler.SubmitRun(w, r)
		case http.MethodGet:
			runsHandler.ListRuns(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/runs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Run ID is required")
			return
		}
		runsHandler.GetRun(w, r, jobID)
	})

	mux.HandleFunc("/api/summary/risk", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			summaryHandler.RiskSummary(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/summary/reasons", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			summaryHandler.ReasonSummary(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/decisions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			decisionsHandler.ListDecisions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Queue did not drain in time")
	}

	log.Info().Msg("Server stopped")
}

// screenBatch runs the full pipeline for one job. The scorer is built per
// job because the submission may override the default backend.
func screenBatch(ctx context.Context, cfg *config.Config, log zerolog.Logger, recorder pipeline.RunRecorder, job *jobs.ScreenBatchJob) (*pipeline.State, error) {
	data, err := gcsio.Fetch(ctx, job.InputURI)
	if err != nil {
		return nil, err
	}
	batch, err := screening.Extract(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	scorer, err := buildScorer(ctx, cfg, job.Backend, batch.OptionalColumns)
	if err != nil {
		return nil, err
	}

	registry := enrich.NewOpenCorporatesClient(cfg.RegistryBaseURL, cfg.RegistryToken, cfg.LookupMaxAttempts)
	pace := time.Duration(cfg.LookupPaceMS) * time.Millisecond

	deps := &pipeline.Dependencies{
		Storage:  gcsio.NewService(),
		Enricher: enrich.New(registry, pace, log),
		Scorer:   scorer,
		Recorder: recorder,
		Log:      log,
	}

	return pipeline.Run(ctx, deps, job.Backend, cfg.Model, job.InputURI, job.ExportURI)
}

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
