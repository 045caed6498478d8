package pipeline

import (
	"context"

	"github.com/dvloznov/fincrime-screener/internal/domain"
	"github.com/dvloznov/fincrime-screener/internal/report"
)

// StorageService is an interface for input/output byte storage. The concrete
// implementation dispatches between Cloud Storage and the local filesystem.
type StorageService interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
	Write(ctx context.Context, location string, data []byte) error
}

// Enricher joins company profiles onto the rows of a batch.
type Enricher interface {
	EnrichBatch(ctx context.Context, batch *domain.Batch) ([]domain.EnrichedTransaction, error)
}

// RunRecorder tracks screening runs and their decisions in a warehouse.
// The BigQuery repository implements it; NoopRecorder covers offline runs.
type RunRecorder interface {
	StartScreeningRun(ctx context.Context, batchID, inputURI, backend, model string) (string, error)
	MarkScreeningRunFailed(ctx context.Context, runID string, runErr error)
	MarkScreeningRunSucceeded(ctx context.Context, runID string, rowCount int) error
	InsertDecisions(ctx context.Context, runID string, decisions []report.Decision) error
}

// NoopRecorder satisfies RunRecorder without persisting anything. Used when
// no warehouse dataset is configured.
type NoopRecorder struct{}

func (NoopRecorder) StartScreeningRun(ctx context.Context, batchID, inputURI, backend, model string) (string, error) {
	return "", nil
}

func (NoopRecorder) MarkScreeningRunFailed(ctx context.Context, runID string, runErr error) {}

func (NoopRecorder) MarkScreeningRunSucceeded(ctx context.Context, runID string, rowCount int) error {
	return nil
}

func (NoopRecorder) InsertDecisions(ctx context.Context, runID string, decisions []report.Decision) error {
	return nil
}
