package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/dvloznov/fincrime-screener/internal/domain"
	"github.com/dvloznov/fincrime-screener/internal/report"
	"github.com/dvloznov/fincrime-screener/internal/score"
)

// mapStorage keeps written objects in memory, keyed by location.
type mapStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMapStorage() *mapStorage {
	return &mapStorage{objects: make(map[string][]byte)}
}

func (m *mapStorage) Fetch(ctx context.Context, location string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[location]
	if !ok {
		return nil, errors.New("not found: " + location)
	}
	return data, nil
}

func (m *mapStorage) Write(ctx context.Context, location string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[location] = append([]byte(nil), data...)
	return nil
}

// labelEnricher assigns an industry label per company name without any
// registry round trips.
type labelEnricher struct {
	labels map[string]string
}

func (e *labelEnricher) EnrichBatch(ctx context.Context, batch *domain.Batch) ([]domain.EnrichedTransaction, error) {
	enriched := make([]domain.EnrichedTransaction, 0, len(batch.Transactions))
	for _, tx := range batch.Transactions {
		enriched = append(enriched, domain.EnrichedTransaction{
			Transaction: tx,
			Originator:  domain.CompanyProfile{InputName: tx.OriginatorName, IndustryLabel: e.labels[tx.OriginatorName], Source: domain.SourceStub},
			Beneficiary: domain.CompanyProfile{InputName: tx.BeneficiaryName, IndustryLabel: e.labels[tx.BeneficiaryName], Source: domain.SourceStub},
		})
	}
	return enriched, nil
}

// recorderSpy records recorder calls for assertions.
type recorderSpy struct {
	started   bool
	failed    []error
	succeeded bool
	rowCount  int
	inserted  int
}

func (r *recorderSpy) StartScreeningRun(ctx context.Context, batchID, inputURI, backend, model string) (string, error) {
	r.started = true
	return "run-1", nil
}

func (r *recorderSpy) MarkScreeningRunFailed(ctx context.Context, runID string, runErr error) {
	r.failed = append(r.failed, runErr)
}

func (r *recorderSpy) MarkScreeningRunSucceeded(ctx context.Context, runID string, rowCount int) error {
	r.succeeded = true
	r.rowCount = rowCount
	return nil
}

func (r *recorderSpy) InsertDecisions(ctx context.Context, runID string, decisions []report.Decision) error {
	r.inserted = len(decisions)
	return nil
}

const twoRowCSV = `transaction_id,originator_name,beneficiary_name,amount,currency,value_date,originator_country,beneficiary_country,purpose
t1,Chipco,Metalco,1000.00,USD,2026-01-05,US,DE,wafer supply
t2,Chipco,Brewco,2000.00,EUR,2026-01-06,US,BE,hops order
`

func TestScreeningPipelineEndToEnd(t *testing.T) {
	storage := newMapStorage()
	storage.objects["in/batch.csv"] = []byte(twoRowCSV)

	enricher := &labelEnricher{labels: map[string]string{
		"Chipco":  "Semiconductor Manufacturing",
		"Metalco": "Metal Product Manufacturing",
		"Brewco":  "Beverage Production",
	}}
	recorder := &recorderSpy{}

	deps := &Dependencies{
		Storage:  storage,
		Enricher: enricher,
		Scorer: score.NewRuleScorer(score.RuleTable{
			"Semiconductor Manufacturing": {"Metal Product Manufacturing"},
		}),
		Recorder: recorder,
		Log:      zerolog.Nop(),
	}

	state, err := Run(context.Background(), deps, "rules", "", "in/batch.csv", "out")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(state.Decisions) != 2 {
		t.Fatalf("decision count = %d, want 2", len(state.Decisions))
	}
	labels := []string{state.Decisions[0].Verdict.Label, state.Decisions[1].Verdict.Label}
	if diff := cmp.Diff([]string{"Valid", "Mismatch"}, labels); diff != "" {
		t.Errorf("verdict labels mismatch (-want +got):\n%s", diff)
	}

	hist := report.RiskHistogram(state.Decisions)
	wantHist := []report.Count{{Key: "Valid", N: 1}, {Key: "Mismatch", N: 1}}
	if diff := cmp.Diff(wantHist, hist); diff != "" {
		t.Errorf("verdict histogram mismatch (-want +got):\n%s", diff)
	}

	for _, file := range []string{"out/decisions.csv", "out/risk_summary.csv", "out/reason_summary.csv"} {
		if _, ok := storage.objects[file]; !ok {
			t.Errorf("export %s was not written", file)
		}
	}
	if got := string(storage.objects["out/risk_summary.csv"]); got != "risk_level,count\nValid,1\nMismatch,1\n" {
		t.Errorf("risk summary = %q", got)
	}

	if !recorder.started || !recorder.succeeded {
		t.Errorf("recorder started=%v succeeded=%v, want both true", recorder.started, recorder.succeeded)
	}
	if recorder.rowCount != 2 || recorder.inserted != 2 {
		t.Errorf("recorder rowCount=%d inserted=%d, want 2/2", recorder.rowCount, recorder.inserted)
	}
	if len(recorder.failed) != 0 {
		t.Errorf("recorder saw failures: %v", recorder.failed)
	}
}

func TestScreeningPipelineMarksRunFailed(t *testing.T) {
	storage := newMapStorage()
	storage.objects["in/batch.csv"] = []byte(twoRowCSV)
	recorder := &recorderSpy{}

	scoreErr := &score.ModelUnavailableError{Backend: "gemini", Resource: "gemini-2.5-flash", Err: errors.New("quota")}
	deps := &Dependencies{
		Storage:  storage,
		Enricher: &labelEnricher{labels: map[string]string{}},
		Scorer: scorerFunc(func(ctx context.Context, tx domain.EnrichedTransaction) (domain.Verdict, error) {
			return domain.Verdict{}, scoreErr
		}),
		Recorder: recorder,
		Log:      zerolog.Nop(),
	}

	_, err := Run(context.Background(), deps, "gemini", "gemini-2.5-flash", "in/batch.csv", "out")
	if err == nil {
		t.Fatal("Run() expected error from failing scorer")
	}
	var unavailable *score.ModelUnavailableError
	if !errors.As(err, &unavailable) {
		t.Errorf("Run() error = %v, want wrapped ModelUnavailableError", err)
	}
	if len(recorder.failed) != 1 {
		t.Fatalf("run marked failed %d times, want 1", len(recorder.failed))
	}
	if recorder.succeeded {
		t.Error("run marked succeeded despite scorer failure")
	}
	if !strings.Contains(recorder.failed[0].Error(), "quota") {
		t.Errorf("failure message = %q, want scorer error", recorder.failed[0])
	}
}

func TestScreeningPipelineStopsOnSchemaError(t *testing.T) {
	storage := newMapStorage()
	storage.objects["in/bad.csv"] = []byte("foo,bar\n1,2\n")
	recorder := &recorderSpy{}

	deps := &Dependencies{
		Storage:  storage,
		Enricher: &labelEnricher{labels: map[string]string{}},
		Scorer:   score.NewRuleScorer(score.DefaultRuleTable()),
		Recorder: recorder,
		Log:      zerolog.Nop(),
	}

	_, err := Run(context.Background(), deps, "rules", "", "in/bad.csv", "out")
	if err == nil {
		t.Fatal("Run() expected schema error")
	}
	if recorder.started {
		t.Error("run recorded before the batch passed validation")
	}
	if len(storage.objects) != 1 {
		t.Errorf("exports written despite extraction failure: %v", keys(storage.objects))
	}
}

// scorerFunc adapts a function to the score.Scorer interface.
type scorerFunc func(ctx context.Context, tx domain.EnrichedTransaction) (domain.Verdict, error)

func (f scorerFunc) Name() string { return "test" }

func (f scorerFunc) Score(ctx context.Context, tx domain.EnrichedTransaction) (domain.Verdict, error) {
	return f(ctx, tx)
}

func keys(m map[string][]byte) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}
