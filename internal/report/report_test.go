package report

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/fincrime-screener/internal/domain"
)

func decision(id, label string, reasons ...string) Decision {
	return Decision{
		Tx: domain.EnrichedTransaction{
			Transaction: domain.Transaction{
				TransactionID:   id,
				OriginatorName:  "A",
				BeneficiaryName: "B",
				Amount:          decimal.NewFromInt(10),
				Currency:        "USD",
			},
		},
		Verdict: domain.Verdict{
			TransactionID: id,
			Label:         label,
			RiskLevel:     domain.ParseRiskLevel(label),
			Score:         50,
			Reasons:       reasons,
		},
	}
}

func TestReasonHistogramExplodesMultiValuedReasons(t *testing.T) {
	decisions := []Decision{
		decision("t1", "HIGH", "a"),
		decision("t2", "HIGH", "a", "b"),
		decision("t3", "MEDIUM", "b"),
	}

	got := ReasonHistogram(decisions)
	want := []Count{{Key: "a", N: 2}, {Key: "b", N: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReasonHistogram() mismatch (-want +got):\n%s", diff)
	}

	// Counts sum to the number of (transaction, reason) pairs.
	total := 0
	for _, c := range got {
		total += c.N
	}
	if total != 4 {
		t.Errorf("reason counts sum to %d, want 4", total)
	}
}

func TestReasonHistogramSortsDescendingFirstSeenTies(t *testing.T) {
	decisions := []Decision{
		decision("t1", "HIGH", "rare"),
		decision("t2", "HIGH", "common"),
		decision("t3", "HIGH", "common"),
		decision("t4", "HIGH", "also-rare"),
	}
	got := ReasonHistogram(decisions)
	want := []Count{{Key: "common", N: 2}, {Key: "rare", N: 1}, {Key: "also-rare", N: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReasonHistogram() mismatch (-want +got):\n%s", diff)
	}
}

func TestRiskHistogramSumsToRowCount(t *testing.T) {
	decisions := []Decision{
		decision("t1", "HIGH"),
		decision("t2", "LOW"),
		decision("t3", "HIGH"),
		decision("t4", "UNKNOWN"),
	}
	got := RiskHistogram(decisions)

	total := 0
	for _, c := range got {
		total += c.N
	}
	if total != len(decisions) {
		t.Errorf("risk counts sum to %d, want %d", total, len(decisions))
	}
	want := []Count{{Key: "HIGH", N: 2}, {Key: "LOW", N: 1}, {Key: "UNKNOWN", N: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RiskHistogram() mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteDecisionsShape(t *testing.T) {
	d := decision("t1", "HIGH", "a; b stays one cell")
	d.Tx.Extra = map[string]string{"channel": "SWIFT"}

	var buf bytes.Buffer
	if err := WriteDecisions(&buf, []string{"channel"}, []Decision{d}); err != nil {
		t.Fatalf("WriteDecisions() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading produced csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("record count = %d, want header + 1 row", len(records))
	}
	header, row := records[0], records[1]
	if len(header) != len(row) {
		t.Errorf("header has %d columns, row has %d", len(header), len(row))
	}
	if header[0] != "transaction_id" || row[0] != "t1" {
		t.Errorf("first column = %q/%q, want transaction_id/t1", header[0], row[0])
	}
	if !contains(header, "channel") || !contains(header, "originator_industry_label") {
		t.Errorf("header missing expected columns: %v", header)
	}
	if header[len(header)-2] != "reasons" || header[len(header)-1] != "suggested_actions" {
		t.Errorf("verdict columns not at the end: %v", header)
	}
}

func TestWriteHistogram(t *testing.T) {
	var buf bytes.Buffer
	err := WriteHistogram(&buf, "risk_level", []Count{{Key: "HIGH", N: 2}, {Key: "LOW", N: 1}})
	if err != nil {
		t.Fatalf("WriteHistogram() error = %v", err)
	}
	want := "risk_level,count\nHIGH,2\nLOW,1\n"
	if buf.String() != want {
		t.Errorf("histogram csv = %q, want %q", buf.String(), want)
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
