package score

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dvloznov/fincrime-screener/internal/domain"
	"github.com/dvloznov/fincrime-screener/internal/feature"
)

// ClassifierScorer predicts a match verdict from a deployed text
// classification model. The endpoint follows the instances/predictions JSON
// contract: request {"instances": ["<combined industries>"]}, response
// {"predictions": ["Valid"|"Mismatch"|...]}.
//
// The forward pass is deterministic; there are no retry semantics. A failure
// to reach the endpoint is a ModelUnavailableError and aborts the run.
type ClassifierScorer struct {
	endpoint   string
	httpClient *http.Client
}

// NewClassifierScorer creates the classifier backend against a prediction URL.
func NewClassifierScorer(endpoint string) *ClassifierScorer {
	return &ClassifierScorer{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *ClassifierScorer) Name() string { return "classifier" }

type predictRequest struct {
	Instances []string `json:"instances"`
}

type predictResponse struct {
	Predictions []string `json:"predictions"`
}

// Score predicts the match verdict for one transaction. Rows missing either
// industry label are Unknown without calling the model, mirroring how the
// training data dropped unclassified rows.
func (s *ClassifierScorer) Score(ctx context.Context, tx domain.EnrichedTransaction) (domain.Verdict, error) {
	feats := feature.Build(tx)
	if feats.CombinedIndustries == "" {
		return domain.MatchVerdictOf(tx.TransactionID, domain.MatchUnknown, "missing_industry"), nil
	}

	body, err := json.Marshal(predictRequest{Instances: []string{feats.CombinedIndustries}})
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("classifier: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Verdict{}, &ModelUnavailableError{Backend: "classifier", Resource: s.endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.Verdict{}, &ModelUnavailableError{Backend: "classifier", Resource: s.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Verdict{}, &ModelUnavailableError{
			Backend:  "classifier",
			Resource: s.endpoint,
			Err:      fmt.Errorf("prediction endpoint returned %d", resp.StatusCode),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Verdict{}, &ModelUnavailableError{Backend: "classifier", Resource: s.endpoint, Err: err}
	}

	var pred predictResponse
	if err := json.Unmarshal(raw, &pred); err != nil || len(pred.Predictions) == 0 {
		return domain.Verdict{
			TransactionID: tx.TransactionID,
			Label:         string(domain.RiskUnknown),
			RiskLevel:     domain.RiskUnknown,
			Score:         50,
			Reasons:       []string{domain.ReasonParseError},
		}, nil
	}

	verdict := domain.ParseMatchVerdict(pred.Predictions[0])
	if verdict == domain.MatchMismatch {
		return domain.MatchVerdictOf(tx.TransactionID, verdict, "industry_mismatch"), nil
	}
	return domain.MatchVerdictOf(tx.TransactionID, verdict), nil
}
