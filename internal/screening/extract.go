// Package screening ingests raw transaction tables and turns them into typed
// batches the rest of the pipeline can trust by construction.
package screening

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/fincrime-screener/internal/domain"
)

// Extract reads a CSV transaction table and validates it in one schema pass.
//
// The output batch is restricted to the required column set plus whichever
// optional allow-listed columns are present; unrecognized columns are
// discarded. If any required column is absent, extraction fails with a
// SchemaError naming all of them. Row-level invariants (unique
// transaction_id, non-negative parseable amount) are checked across the whole
// batch and reported together; there is no partial-row admission.
func Extract(r io.Reader) (*domain.Batch, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("extract: reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("extract: input is empty (CSV input is required)")
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}

	var missing []string
	for _, col := range domain.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	var optional []string
	for _, col := range domain.OptionalColumns {
		if _, ok := index[col]; ok {
			optional = append(optional, col)
		}
	}

	batch := &domain.Batch{
		BatchID:         uuid.NewString(),
		OptionalColumns: optional,
		Transactions:    make([]domain.Transaction, 0, len(records)-1),
	}

	var problems []string
	seen := make(map[string]bool, len(records)-1)

	for n, rec := range records[1:] {
		cell := func(col string) string {
			i := index[col]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		tx := domain.Transaction{
			TransactionID:      cell("transaction_id"),
			OriginatorName:     cell("originator_name"),
			OriginatorCountry:  cell("originator_country"),
			BeneficiaryName:    cell("beneficiary_name"),
			BeneficiaryCountry: cell("beneficiary_country"),
			Currency:           cell("currency"),
			ValueDate:          cell("value_date"),
			Purpose:            cell("purpose"),
		}

		if seen[tx.TransactionID] {
			problems = append(problems,
				fmt.Sprintf("row %d: duplicate transaction_id %q", n+2, tx.TransactionID))
		}
		seen[tx.TransactionID] = true

		amt, err := decimal.NewFromString(cell("amount"))
		switch {
		case err != nil:
			problems = append(problems,
				fmt.Sprintf("row %d: unparsable amount %q", n+2, cell("amount")))
		case amt.IsNegative():
			problems = append(problems,
				fmt.Sprintf("row %d: negative amount %s", n+2, amt))
		default:
			tx.Amount = amt
		}

		if len(optional) > 0 {
			tx.Extra = make(map[string]string, len(optional))
			for _, col := range optional {
				tx.Extra[col] = cell(col)
			}
		}

		batch.Transactions = append(batch.Transactions, tx)
	}

	if len(problems) > 0 {
		return nil, &BatchError{Problems: problems}
	}
	return batch, nil
}
