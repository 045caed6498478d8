// Package feature turns enriched transactions into scoring inputs: a
// natural-language prompt for the generative backend, engineered features for
// the classifier backend.
package feature

import (
	"fmt"
	"strings"

	"github.com/dvloznov/fincrime-screener/internal/domain"
)

// promptTemplate is fixed per run; only the transaction context varies.
// It demands strict JSON so the scorer can parse the verdict mechanically.
const promptTemplate = `You are a FinCrime risk assistant. Given a transaction, decide if doing business is reasonable.

Transaction Details: %s

Return ONLY strict JSON (no comments, no code fences, no extra text) with fields:
- "risk_level": string, one of "LOW", "MEDIUM", "HIGH"
- "score": number from 0 to 100 (0 = very implausible, 100 = very plausible)
- "reasons": list of strings
- "suggested_actions": list of strings

Consider:
- Sanctioned or high-risk regions
- Industry or customer profile mismatches
- Unusual amounts relative to segment/industry
- Cross-border and high-value red flags
- Channel-specific risk factors
- Transaction type anomalies`

// Prompt carries the prompt text for one transaction, keyed by its ID so the
// verdict can be rejoined later.
type Prompt struct {
	TransactionID string
	Text          string
}

// BuildPrompt serializes every non-identifier column of the row into
// "key: value" pairs and embeds them in the instruction template.
func BuildPrompt(tx domain.EnrichedTransaction, optionalColumns []string) string {
	pairs := []string{
		"originator_name: " + tx.OriginatorName,
		"beneficiary_name: " + tx.BeneficiaryName,
		"amount: " + tx.Amount.String(),
		"currency: " + tx.Currency,
		"value_date: " + tx.ValueDate,
		"originator_country: " + tx.OriginatorCountry,
		"beneficiary_country: " + tx.BeneficiaryCountry,
		"purpose: " + tx.Purpose,
	}
	for _, col := range optionalColumns {
		pairs = append(pairs, col+": "+tx.Extra[col])
	}
	pairs = append(pairs, profilePairs("originator", tx.Originator)...)
	pairs = append(pairs, profilePairs("beneficiary", tx.Beneficiary)...)

	return fmt.Sprintf(promptTemplate, strings.Join(pairs, ", "))
}

func profilePairs(role string, p domain.CompanyProfile) []string {
	return []string{
		role + "_industry_label: " + p.IndustryLabel,
		role + "_sic: " + p.SIC,
		role + "_nace: " + p.NACE,
		role + "_naics: " + p.NAICS,
		role + "_jurisdiction: " + p.Jurisdiction,
		role + "_industry_source: " + p.Source,
	}
}

// BuildPrompts builds one prompt per row. Output row count equals input row
// count; each prompt carries its transaction ID.
func BuildPrompts(rows []domain.EnrichedTransaction, optionalColumns []string) []Prompt {
	prompts := make([]Prompt, 0, len(rows))
	for _, tx := range rows {
		prompts = append(prompts, Prompt{
			TransactionID: tx.TransactionID,
			Text:          BuildPrompt(tx, optionalColumns),
		})
	}
	return prompts
}
