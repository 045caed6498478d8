package domain

import "strings"

// RiskLevel is the ordered risk category assigned to a transaction:
// LOW < MEDIUM < HIGH, with UNKNOWN reserved for scorer failure.
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskUnknown RiskLevel = "UNKNOWN"
)

// ParseRiskLevel maps a model-produced risk string onto the recognized
// vocabulary, case-insensitively. Unrecognized values default to MEDIUM, so a
// sloppy but parseable model answer never yields an out-of-vocabulary level.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow
	case RiskMedium:
		return RiskMedium
	case RiskHigh:
		return RiskHigh
	case RiskUnknown:
		return RiskUnknown
	}
	return RiskMedium
}

// MatchVerdict is the rule-table / classifier verdict on an industry pairing.
type MatchVerdict string

const (
	MatchValid    MatchVerdict = "Valid"
	MatchMismatch MatchVerdict = "Mismatch"
	MatchUnknown  MatchVerdict = "Unknown"
)

// ParseMatchVerdict maps a predicted label onto the verdict vocabulary.
// Unrecognized labels degrade to Unknown.
func ParseMatchVerdict(s string) MatchVerdict {
	switch MatchVerdict(strings.TrimSpace(s)) {
	case MatchValid:
		return MatchValid
	case MatchMismatch:
		return MatchMismatch
	}
	return MatchUnknown
}

// RiskLevel maps a match verdict onto the risk vocabulary: an allow-listed
// pairing is low risk, a mismatch is high, and absent industry data is UNKNOWN.
func (m MatchVerdict) RiskLevel() RiskLevel {
	switch m {
	case MatchValid:
		return RiskLow
	case MatchMismatch:
		return RiskHigh
	}
	return RiskUnknown
}

// ReasonParseError tags verdicts whose scorer output could not be parsed.
const ReasonParseError = "parse_error"

// Verdict is one scoring decision for one transaction.
//
// Label is the backend's native headline: the risk level for the generative
// backend, the match verdict for the rule/classifier backends. Histograms
// group by Label.
type Verdict struct {
	TransactionID string

	Label     string
	RiskLevel RiskLevel

	// Score is the plausibility score in [0,100]; 50 when the backend gave
	// none.
	Score int

	Reasons          []string
	SuggestedActions []string
}

// MatchVerdictOf builds a verdict from a rule/classifier match label.
func MatchVerdictOf(transactionID string, m MatchVerdict, reasons ...string) Verdict {
	return Verdict{
		TransactionID: transactionID,
		Label:         string(m),
		RiskLevel:     m.RiskLevel(),
		Score:         50,
		Reasons:       reasons,
	}
}
