// Package report persists scored batches and derives the aggregate summaries
// consumed by dashboards: a risk histogram and a reason histogram.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/dvloznov/fincrime-screener/internal/domain"
)

// Decision pairs one enriched transaction with its verdict.
type Decision struct {
	Tx      domain.EnrichedTransaction
	Verdict domain.Verdict
}

var profileColumns = []string{
	"canonical_name", "jurisdiction", "registry_url",
	"sic", "nace", "naics", "industry_label", "industry_source",
}

// WriteDecisions writes the full scored table as a flat delimited file.
// Column order is deterministic: required columns, optional allow-listed
// columns, role-prefixed profile columns, verdict columns.
func WriteDecisions(w io.Writer, optionalColumns []string, decisions []Decision) error {
	cw := csv.NewWriter(w)

	header := append([]string{}, domain.RequiredColumns...)
	header = append(header, optionalColumns...)
	for _, role := range []string{"originator", "beneficiary"} {
		for _, col := range profileColumns {
			header = append(header, role+"_"+col)
		}
	}
	header = append(header, "verdict", "risk_level", "score", "reasons", "suggested_actions")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing decisions header: %w", err)
	}

	for _, d := range decisions {
		tx := d.Tx
		rec := []string{
			tx.TransactionID,
			tx.OriginatorName,
			tx.BeneficiaryName,
			tx.Amount.String(),
			tx.Currency,
			tx.ValueDate,
			tx.OriginatorCountry,
			tx.BeneficiaryCountry,
			tx.Purpose,
		}
		for _, col := range optionalColumns {
			rec = append(rec, tx.Extra[col])
		}
		rec = append(rec, profileValues(tx.Originator)...)
		rec = append(rec, profileValues(tx.Beneficiary)...)
		rec = append(rec,
			d.Verdict.Label,
			string(d.Verdict.RiskLevel),
			strconv.Itoa(d.Verdict.Score),
			strings.Join(d.Verdict.Reasons, "; "),
			strings.Join(d.Verdict.SuggestedActions, "; "),
		)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing decision row %s: %w", tx.TransactionID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func profileValues(p domain.CompanyProfile) []string {
	return []string{
		p.CanonicalName, p.Jurisdiction, p.RegistryURL,
		p.SIC, p.NACE, p.NAICS, p.IndustryLabel, p.Source,
	}
}

// Count is one histogram bucket.
type Count struct {
	Key string `json:"key"`
	N   int    `json:"count"`
}

// RiskHistogram groups decisions by verdict label (the risk level for the
// generative backend, the match verdict for rule/classifier runs) and counts
// rows. Bucket order is first-seen, making output deterministic. Counts sum
// to the batch row count.
func RiskHistogram(decisions []Decision) []Count {
	return histogram(decisions, func(d Decision) []string {
		return []string{d.Verdict.Label}
	}, false)
}

// ReasonHistogram explodes multi-reason verdicts into one (transaction,
// reason) pair each, counts pairs, and sorts descending by count. Ties break
// by first-seen order, so the output is deterministic.
func ReasonHistogram(decisions []Decision) []Count {
	return histogram(decisions, func(d Decision) []string {
		return d.Verdict.Reasons
	}, true)
}

func histogram(decisions []Decision, keys func(Decision) []string, sortDesc bool) []Count {
	index := make(map[string]int)
	var counts []Count
	for _, d := range decisions {
		for _, key := range keys(d) {
			i, ok := index[key]
			if !ok {
				i = len(counts)
				index[key] = i
				counts = append(counts, Count{Key: key})
			}
			counts[i].N++
		}
	}
	if sortDesc {
		sort.SliceStable(counts, func(i, j int) bool {
			return counts[i].N > counts[j].N
		})
	}
	return counts
}

// WriteHistogram writes a two-column aggregate file (key header, "count").
func WriteHistogram(w io.Writer, keyHeader string, counts []Count) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{keyHeader, "count"}); err != nil {
		return fmt.Errorf("writing histogram header: %w", err)
	}
	for _, c := range counts {
		if err := cw.Write([]string{c.Key, strconv.Itoa(c.N)}); err != nil {
			return fmt.Errorf("writing histogram row %q: %w", c.Key, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
