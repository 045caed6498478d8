package score

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dvloznov/fincrime-screener/internal/domain"
)

// RuleTable maps an originator industry label to the beneficiary industry
// labels it may plausibly transact with. Static configuration, not learned.
type RuleTable map[string][]string

// DefaultRuleTable returns the embedded allow-list used when no external
// table is configured.
func DefaultRuleTable() RuleTable {
	return RuleTable{
		"Semiconductor Manufacturing":  {"Metal Product Manufacturing", "Chemical Manufacturing"},
		"Chemical Manufacturing":       {"Hospital Activities", "Semiconductor Manufacturing"},
		"Metal Product Manufacturing":  {"Machinery Repair", "Semiconductor Manufacturing"},
		"Hospital Activities":          {"Chemical Manufacturing"},
		"Beverage Production":          {"Wheat Farming"},
		"Machinery Repair":             {"Metal Product Manufacturing"},
		"Wheat Farming":                {"Beverage Production"},
		"Motor Vehicle Wholesale":      {"Semiconductor Manufacturing", "Machinery Repair"},
		"Business Consulting":          {"Semiconductor Manufacturing", "Chemical Manufacturing"},
		"Advertising Agencies":         {"Business Consulting"},
		"Cleaning Services":            {"Hospital Activities", "Business Consulting"},
	}
}

// LoadRuleTable reads an allow-list from a YAML file mapping industry labels
// to lists of compatible industry labels.
func LoadRuleTable(path string) (RuleTable, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading rule table %q: %w", path, err)
	}

	var table RuleTable
	if err := k.Unmarshal("", &table); err != nil {
		return nil, fmt.Errorf("parsing rule table %q: %w", path, err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("rule table %q is empty", path)
	}
	return table, nil
}

// RuleScorer validates industry pairings against a static allow-list.
type RuleScorer struct {
	allowed RuleTable
}

// NewRuleScorer creates the rule backend. A nil table means the embedded
// default.
func NewRuleScorer(table RuleTable) *RuleScorer {
	if table == nil {
		table = DefaultRuleTable()
	}
	return &RuleScorer{allowed: table}
}

func (s *RuleScorer) Name() string { return "rules" }

// Match applies the allow-list to one industry pairing: Valid when the
// beneficiary industry is allow-listed for the originator industry, Unknown
// when either label is missing, Mismatch otherwise.
func (s *RuleScorer) Match(originatorIndustry, beneficiaryIndustry string) domain.MatchVerdict {
	if originatorIndustry == "" || beneficiaryIndustry == "" {
		return domain.MatchUnknown
	}
	for _, allowed := range s.allowed[originatorIndustry] {
		if allowed == beneficiaryIndustry {
			return domain.MatchValid
		}
	}
	return domain.MatchMismatch
}

// Score never fails; the allow-list is in memory.
func (s *RuleScorer) Score(_ context.Context, tx domain.EnrichedTransaction) (domain.Verdict, error) {
	verdict := s.Match(tx.Originator.IndustryLabel, tx.Beneficiary.IndustryLabel)
	switch verdict {
	case domain.MatchMismatch:
		return domain.MatchVerdictOf(tx.TransactionID, verdict, "industry_mismatch"), nil
	case domain.MatchUnknown:
		return domain.MatchVerdictOf(tx.TransactionID, verdict, "missing_industry"), nil
	}
	return domain.MatchVerdictOf(tx.TransactionID, verdict), nil
}
