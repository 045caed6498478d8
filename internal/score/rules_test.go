package score

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dvloznov/fincrime-screener/internal/domain"
)

func TestRuleScorerMatch(t *testing.T) {
	s := NewRuleScorer(nil) // embedded default table

	tests := []struct {
		name        string
		originator  string
		beneficiary string
		want        domain.MatchVerdict
	}{
		{
			name:        "allow-listed pairing",
			originator:  "Semiconductor Manufacturing",
			beneficiary: "Metal Product Manufacturing",
			want:        domain.MatchValid,
		},
		{
			name:        "pairing not on the allow-list",
			originator:  "Semiconductor Manufacturing",
			beneficiary: "Beverage Production",
			want:        domain.MatchMismatch,
		},
		{
			name:        "originator industry missing",
			originator:  "",
			beneficiary: "Beverage Production",
			want:        domain.MatchUnknown,
		},
		{
			name:        "beneficiary industry missing",
			originator:  "Semiconductor Manufacturing",
			beneficiary: "",
			want:        domain.MatchUnknown,
		},
		{
			name:        "originator absent from table",
			originator:  "Interpretive Dance",
			beneficiary: "Beverage Production",
			want:        domain.MatchMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Match(tt.originator, tt.beneficiary); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.originator, tt.beneficiary, got, tt.want)
			}
		})
	}
}

func TestRuleScorerScoreVerdicts(t *testing.T) {
	s := NewRuleScorer(nil)

	tx := domain.EnrichedTransaction{
		Transaction: domain.Transaction{TransactionID: "t1"},
		Originator:  domain.CompanyProfile{IndustryLabel: "Wheat Farming"},
		Beneficiary: domain.CompanyProfile{IndustryLabel: "Beverage Production"},
	}
	v, err := s.Score(context.Background(), tx)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if v.Label != "Valid" || v.RiskLevel != domain.RiskLow {
		t.Errorf("verdict = %+v, want Valid / LOW", v)
	}

	tx.Beneficiary.IndustryLabel = "Hospital Activities"
	v, _ = s.Score(context.Background(), tx)
	if v.Label != "Mismatch" || v.RiskLevel != domain.RiskHigh {
		t.Errorf("verdict = %+v, want Mismatch / HIGH", v)
	}
	if len(v.Reasons) != 1 || v.Reasons[0] != "industry_mismatch" {
		t.Errorf("reasons = %v, want [industry_mismatch]", v.Reasons)
	}

	tx.Beneficiary.IndustryLabel = ""
	v, _ = s.Score(context.Background(), tx)
	if v.Label != "Unknown" || v.RiskLevel != domain.RiskUnknown {
		t.Errorf("verdict = %+v, want Unknown / UNKNOWN", v)
	}
}

func TestLoadRuleTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	yaml := "Wheat Farming:\n  - Beverage Production\nBeverage Production:\n  - Wheat Farming\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadRuleTable(path)
	if err != nil {
		t.Fatalf("LoadRuleTable() error = %v", err)
	}
	s := NewRuleScorer(table)
	if got := s.Match("Wheat Farming", "Beverage Production"); got != domain.MatchValid {
		t.Errorf("Match from loaded table = %v, want Valid", got)
	}
	if got := s.Match("Wheat Farming", "Hospital Activities"); got != domain.MatchMismatch {
		t.Errorf("Match from loaded table = %v, want Mismatch", got)
	}
}
