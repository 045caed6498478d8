package feature

import (
	"math"

	"github.com/dvloznov/fincrime-screener/internal/domain"
)

// IndustrySeparator joins the two industry labels into the single string
// feature consumed by text-vectorization models.
const IndustrySeparator = " <-> "

// Features are the engineered inputs for the classifier backend.
type Features struct {
	TransactionID string

	// AmountLog is ln(1 + amount).
	AmountLog float64

	// SameIndustry is true when both counterparties share a classification
	// key; false when either side is unclassified.
	SameIndustry bool

	// CombinedIndustries is "<originator label> <-> <beneficiary label>",
	// empty when either label is missing.
	CombinedIndustries string
}

// Build derives classifier features for one enriched transaction.
func Build(tx domain.EnrichedTransaction) Features {
	amount, _ := tx.Amount.Float64()

	f := Features{
		TransactionID: tx.TransactionID,
		AmountLog:     math.Log1p(amount),
	}

	ok, bk := tx.Originator.ClassificationKey(), tx.Beneficiary.ClassificationKey()
	f.SameIndustry = ok != "" && ok == bk

	if tx.Originator.IndustryLabel != "" && tx.Beneficiary.IndustryLabel != "" {
		f.CombinedIndustries = tx.Originator.IndustryLabel + IndustrySeparator + tx.Beneficiary.IndustryLabel
	}
	return f
}

// BuildAll derives features for every row, preserving row count and order.
func BuildAll(rows []domain.EnrichedTransaction) []Features {
	features := make([]Features, 0, len(rows))
	for _, tx := range rows {
		features = append(features, Build(tx))
	}
	return features
}
