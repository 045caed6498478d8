package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

const (
	screeningRunsTable = "screening_runs"
	decisionsTable     = "decisions"
)

type ScreeningRunRow struct {
	RunID   string `bigquery:"run_id"`   // REQUIRED
	BatchID string `bigquery:"batch_id"` // REQUIRED

	InputURI string `bigquery:"input_uri"` // NULLABLE
	Backend  string `bigquery:"backend"`   // NULLABLE
	Model    string `bigquery:"model"`     // NULLABLE

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	Status       string `bigquery:"status"`        // NULLABLE
	ErrorMessage string `bigquery:"error_message"` // NULLABLE

	RowCount bigquery.NullInt64 `bigquery:"row_count"` // NULLABLE
}
