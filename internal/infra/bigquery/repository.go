package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/fincrime-screener/internal/logger"
	"github.com/dvloznov/fincrime-screener/internal/report"
)

// Repository persists screening runs and per-transaction decisions in a
// BigQuery dataset.
type Repository struct {
	client  *bigquery.Client
	dataset string
}

// NewRepository creates a repository backed by a fresh BigQuery client.
// It assumes Application Default Credentials are configured.
func NewRepository(ctx context.Context, projectID, dataset string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: bigquery client: %w", err)
	}
	return NewRepositoryWithClient(client, dataset), nil
}

// NewRepositoryWithClient wraps an existing client, used by tests and by
// callers that manage client lifetime themselves.
func NewRepositoryWithClient(client *bigquery.Client, dataset string) *Repository {
	return &Repository{client: client, dataset: dataset}
}

func (r *Repository) Close() error {
	return r.client.Close()
}

// StartScreeningRun inserts a new row into <dataset>.screening_runs with
// status=RUNNING and returns the generated run_id.
func (r *Repository) StartScreeningRun(ctx context.Context, batchID, inputURI, backend, model string) (string, error) {
	runID := uuid.NewString()
	started := time.Now()

	q := r.client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			run_id,
			batch_id,
			input_uri,
			backend,
			model,
			started_ts,
			status
		)
		VALUES (
			@run_id,
			@batch_id,
			@input_uri,
			@backend,
			@model,
			@started_ts,
			@status
		)
	`, r.dataset, screeningRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "batch_id", Value: batchID},
		{Name: "input_uri", Value: inputURI},
		{Name: "backend", Value: backend},
		{Name: "model", Value: model},
		{Name: "started_ts", Value: started},
		{Name: "status", Value: "RUNNING"},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return "", fmt.Errorf("StartScreeningRun: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("StartScreeningRun: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return "", fmt.Errorf("StartScreeningRun: job error: %w", err)
	}

	return runID, nil
}

// MarkScreeningRunFailed sets status=FAILED, finished_ts and error_message.
// Failures here are logged, not returned: the run error that triggered the
// mark is the one the caller should surface.
func (r *Repository) MarkScreeningRunFailed(ctx context.Context, runID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, r.dataset, screeningRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "FAILED"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkScreeningRunFailed: running update query")
		return
	}

	status, err := job.Wait(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkScreeningRunFailed: waiting for job")
		return
	}
	if err := status.Err(); err != nil {
		log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkScreeningRunFailed: job completed with error")
	}
}

// MarkScreeningRunSucceeded sets status=SUCCESS, finished_ts and the final
// row count, and clears error_message.
func (r *Repository) MarkScreeningRunSucceeded(ctx context.Context, runID string, rowCount int) error {
	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    row_count = @row_count,
		    error_message = ""
		WHERE run_id = @run_id
	`, r.dataset, screeningRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "SUCCESS"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "row_count", Value: int64(rowCount)},
		{Name: "run_id", Value: runID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("MarkScreeningRunSucceeded: running update query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("MarkScreeningRunSucceeded: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("MarkScreeningRunSucceeded: job error: %w", err)
	}

	return nil
}

// InsertDecisions streams the screened batch into <dataset>.decisions.
func (r *Repository) InsertDecisions(ctx context.Context, runID string, decisions []report.Decision) error {
	scoredAt := time.Now()
	rows := make([]*DecisionRow, 0, len(decisions))
	for _, d := range decisions {
		rows = append(rows, DecisionRowFrom(runID, d, scoredAt))
	}

	inserter := r.client.Dataset(r.dataset).Table(decisionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertDecisions: inserting %d rows: %w", len(rows), err)
	}

	return nil
}
