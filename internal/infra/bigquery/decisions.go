package bigquery

import (
	"math/big"
	"time"

	"github.com/dvloznov/fincrime-screener/internal/report"
)

type DecisionRow struct {
	RunID         string `bigquery:"run_id"`         // REQUIRED
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	OriginatorName  string `bigquery:"originator_name"`  // REQUIRED
	BeneficiaryName string `bigquery:"beneficiary_name"` // REQUIRED

	Amount   *big.Rat `bigquery:"amount"`   // NULLABLE, NUMERIC
	Currency string   `bigquery:"currency"` // NULLABLE

	OriginatorIndustry  string `bigquery:"originator_industry"`  // NULLABLE
	BeneficiaryIndustry string `bigquery:"beneficiary_industry"` // NULLABLE

	Label     string `bigquery:"label"`      // NULLABLE
	RiskLevel string `bigquery:"risk_level"` // NULLABLE
	Score     int64  `bigquery:"score"`      // NULLABLE

	Reasons          []string `bigquery:"reasons"`           // REPEATED
	SuggestedActions []string `bigquery:"suggested_actions"` // REPEATED

	ScoredTS time.Time `bigquery:"scored_ts"` // REQUIRED
}

// DecisionRowFrom flattens a screened transaction into its BigQuery shape.
func DecisionRowFrom(runID string, d report.Decision, scoredAt time.Time) *DecisionRow {
	return &DecisionRow{
		RunID:               runID,
		TransactionID:       d.Tx.TransactionID,
		OriginatorName:      d.Tx.OriginatorName,
		BeneficiaryName:     d.Tx.BeneficiaryName,
		Amount:              d.Tx.Amount.Rat(),
		Currency:            d.Tx.Currency,
		OriginatorIndustry:  d.Tx.Originator.IndustryLabel,
		BeneficiaryIndustry: d.Tx.Beneficiary.IndustryLabel,
		Label:               d.Verdict.Label,
		RiskLevel:           string(d.Verdict.RiskLevel),
		Score:               int64(d.Verdict.Score),
		Reasons:             d.Verdict.Reasons,
		SuggestedActions:    d.Verdict.SuggestedActions,
		ScoredTS:            scoredAt,
	}
}
