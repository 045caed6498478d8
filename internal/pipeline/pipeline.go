package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincrime-screener/internal/domain"
	"github.com/dvloznov/fincrime-screener/internal/report"
	"github.com/dvloznov/fincrime-screener/internal/score"
	"github.com/dvloznov/fincrime-screener/internal/screening"
)

const (
	decisionsFile     = "decisions.csv"
	riskSummaryFile   = "risk_summary.csv"
	reasonSummaryFile = "reason_summary.csv"
)

// State holds the shared state across all pipeline steps.
type State struct {
	InputURI  string
	ExportURI string

	RunID     string
	RawCSV    []byte
	Batch     *domain.Batch
	Enriched  []domain.EnrichedTransaction
	Decisions []report.Decision
}

// Dependencies carries the services the steps run against. Steps receive it
// explicitly so tests can swap in fakes per concern.
type Dependencies struct {
	Storage  StorageService
	Enricher Enricher
	Scorer   score.Scorer
	Recorder RunRecorder
	Log      zerolog.Logger
}

// Step represents a single step in the screening pipeline.
type Step interface {
	Execute(ctx context.Context, deps *Dependencies, state *State) error
}

// FetchInputStep reads the raw CSV bytes from the input location.
type FetchInputStep struct{}

func (s *FetchInputStep) Execute(ctx context.Context, deps *Dependencies, state *State) error {
	data, err := deps.Storage.Fetch(ctx, state.InputURI)
	if err != nil {
		return err
	}
	state.RawCSV = data
	return nil
}

// ExtractStep parses and validates the CSV into a batch.
type ExtractStep struct{}

func (s *ExtractStep) Execute(ctx context.Context, deps *Dependencies, state *State) error {
	batch, err := screening.Extract(bytes.NewReader(state.RawCSV))
	if err != nil {
		return err
	}
	state.Batch = batch
	deps.Log.Info().
		Str("batch_id", batch.BatchID).
		Int("rows", len(batch.Transactions)).
		Strs("optional_columns", batch.OptionalColumns).
		Msg("batch extracted")
	return nil
}

// StartRunStep registers the run with the recorder once the batch is known.
type StartRunStep struct {
	Backend string
	Model   string
}

func (s *StartRunStep) Execute(ctx context.Context, deps *Dependencies, state *State) error {
	runID, err := deps.Recorder.StartScreeningRun(ctx, state.Batch.BatchID, state.InputURI, s.Backend, s.Model)
	if err != nil {
		return fmt.Errorf("start screening run: %w", err)
	}
	state.RunID = runID
	return nil
}

// EnrichStep joins company profiles onto every row.
type EnrichStep struct{}

func (s *EnrichStep) Execute(ctx context.Context, deps *Dependencies, state *State) error {
	enriched, err := deps.Enricher.EnrichBatch(ctx, state.Batch)
	if err != nil {
		deps.Recorder.MarkScreeningRunFailed(ctx, state.RunID, err)
		return err
	}
	state.Enriched = enriched
	return nil
}

// ScoreStep runs the configured scorer over every enriched row. A scorer
// error is fatal for the whole batch; per-row degradation happens inside the
// scorer itself.
type ScoreStep struct{}

func (s *ScoreStep) Execute(ctx context.Context, deps *Dependencies, state *State) error {
	decisions := make([]report.Decision, 0, len(state.Enriched))
	for _, tx := range state.Enriched {
		verdict, err := deps.Scorer.Score(ctx, tx)
		if err != nil {
			deps.Recorder.MarkScreeningRunFailed(ctx, state.RunID, err)
			return fmt.Errorf("score transaction %s: %w", tx.TransactionID, err)
		}
		decisions = append(decisions, report.Decision{Tx: tx, Verdict: verdict})
	}
	state.Decisions = decisions
	return nil
}

// ExportDecisionsStep writes the full per-transaction decision CSV.
type ExportDecisionsStep struct{}

func (s *ExportDecisionsStep) Execute(ctx context.Context, deps *Dependencies, state *State) error {
	var buf bytes.Buffer
	if err := report.WriteDecisions(&buf, state.Batch.OptionalColumns, state.Decisions); err != nil {
		deps.Recorder.MarkScreeningRunFailed(ctx, state.RunID, err)
		return err
	}
	target := exportPath(state.ExportURI, decisionsFile)
	if err := deps.Storage.Write(ctx, target, buf.Bytes()); err != nil {
		deps.Recorder.MarkScreeningRunFailed(ctx, state.RunID, err)
		return err
	}
	deps.Log.Info().Str("path", target).Int("rows", len(state.Decisions)).Msg("decisions exported")
	return nil
}

// ExportSummariesStep writes the risk and reason histogram CSVs.
type ExportSummariesStep struct{}

func (s *ExportSummariesStep) Execute(ctx context.Context, deps *Dependencies, state *State) error {
	summaries := []struct {
		file      string
		keyHeader string
		counts    []report.Count
	}{
		{riskSummaryFile, "risk_level", report.RiskHistogram(state.Decisions)},
		{reasonSummaryFile, "reason", report.ReasonHistogram(state.Decisions)},
	}
	for _, sum := range summaries {
		var buf bytes.Buffer
		if err := report.WriteHistogram(&buf, sum.keyHeader, sum.counts); err != nil {
			deps.Recorder.MarkScreeningRunFailed(ctx, state.RunID, err)
			return err
		}
		if err := deps.Storage.Write(ctx, exportPath(state.ExportURI, sum.file), buf.Bytes()); err != nil {
			deps.Recorder.MarkScreeningRunFailed(ctx, state.RunID, err)
			return err
		}
	}
	return nil
}

// RecordDecisionsStep streams the decisions into the warehouse.
type RecordDecisionsStep struct{}

func (s *RecordDecisionsStep) Execute(ctx context.Context, deps *Dependencies, state *State) error {
	if err := deps.Recorder.InsertDecisions(ctx, state.RunID, state.Decisions); err != nil {
		deps.Recorder.MarkScreeningRunFailed(ctx, state.RunID, err)
		return err
	}
	return nil
}

// MarkSuccessStep closes out the run record.
type MarkSuccessStep struct{}

func (s *MarkSuccessStep) Execute(ctx context.Context, deps *Dependencies, state *State) error {
	return deps.Recorder.MarkScreeningRunSucceeded(ctx, state.RunID, len(state.Decisions))
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
	deps  *Dependencies
}

// NewPipeline creates a pipeline over the given dependencies and steps.
func NewPipeline(deps *Dependencies, steps ...Step) *Pipeline {
	return &Pipeline{steps: steps, deps: deps}
}

// Execute runs all steps sequentially, stopping at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, p.deps, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewScreeningPipeline creates the standard step sequence for screening a
// batch end to end.
func NewScreeningPipeline(deps *Dependencies, backend, model string) *Pipeline {
	return NewPipeline(deps,
		&FetchInputStep{},
		&ExtractStep{},
		&StartRunStep{Backend: backend, Model: model},
		&EnrichStep{},
		&ScoreStep{},
		&ExportDecisionsStep{},
		&ExportSummariesStep{},
		&RecordDecisionsStep{},
		&MarkSuccessStep{},
	)
}

// Run screens the batch at inputURI and writes the exports under exportURI.
// It returns the final state so callers can inspect decisions directly.
func Run(ctx context.Context, deps *Dependencies, backend, model, inputURI, exportURI string) (*State, error) {
	state := &State{InputURI: inputURI, ExportURI: exportURI}
	if err := NewScreeningPipeline(deps, backend, model).Execute(ctx, state); err != nil {
		return state, err
	}
	return state, nil
}

func exportPath(exportURI, file string) string {
	return strings.TrimSuffix(exportURI, "/") + "/" + file
}
