package score

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dvloznov/fincrime-screener/internal/domain"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.Verdict
	}{
		{
			name: "well-formed verdict",
			raw:  `{"risk_level": "HIGH", "score": 12, "reasons": ["high-risk corridor", "amount anomaly"], "suggested_actions": ["escalate"]}`,
			want: domain.Verdict{
				TransactionID:    "t1",
				Label:            "HIGH",
				RiskLevel:        domain.RiskHigh,
				Score:            12,
				Reasons:          []string{"high-risk corridor", "amount anomaly"},
				SuggestedActions: []string{"escalate"},
			},
		},
		{
			name: "alternate risk key and lowercase vocabulary",
			raw:  `{"risk": "low", "score": 90, "reasons": []}`,
			want: domain.Verdict{
				TransactionID: "t1",
				Label:         "LOW",
				RiskLevel:     domain.RiskLow,
				Score:         90,
				Reasons:       []string{},
			},
		},
		{
			name: "not JSON at all",
			raw:  "I am sorry, I cannot help with that.",
			want: domain.Verdict{
				TransactionID: "t1",
				Label:         "UNKNOWN",
				RiskLevel:     domain.RiskUnknown,
				Score:         50,
				Reasons:       []string{"parse_error"},
			},
		},
		{
			name: "valid JSON but missing risk level",
			raw:  `{"score": 70, "reasons": ["looks fine"]}`,
			want: domain.Verdict{
				TransactionID: "t1",
				Label:         "UNKNOWN",
				RiskLevel:     domain.RiskUnknown,
				Score:         50,
				Reasons:       []string{"parse_error"},
			},
		},
		{
			name: "markdown fenced response",
			raw:  "```json\n{\"risk_level\": \"MEDIUM\", \"reasons\": [\"cross-border\"]}\n```",
			want: domain.Verdict{
				TransactionID: "t1",
				Label:         "MEDIUM",
				RiskLevel:     domain.RiskMedium,
				Score:         50,
				Reasons:       []string{"cross-border"},
			},
		},
		{
			name: "unrecognized risk string defaults to MEDIUM",
			raw:  `{"risk_level": "severe", "reasons": ["x"]}`,
			want: domain.Verdict{
				TransactionID: "t1",
				Label:         "MEDIUM",
				RiskLevel:     domain.RiskMedium,
				Score:         50,
				Reasons:       []string{"x"},
			},
		},
		{
			name: "score clamped to 100",
			raw:  `{"risk_level": "LOW", "score": 900, "reasons": ["ok"]}`,
			want: domain.Verdict{
				TransactionID: "t1",
				Label:         "LOW",
				RiskLevel:     domain.RiskLow,
				Score:         100,
				Reasons:       []string{"ok"},
			},
		},
		{
			name: "negative score clamped to 0",
			raw:  `{"risk_level": "HIGH", "score": -3, "reasons": ["bad"]}`,
			want: domain.Verdict{
				TransactionID: "t1",
				Label:         "HIGH",
				RiskLevel:     domain.RiskHigh,
				Score:         0,
				Reasons:       []string{"bad"},
			},
		},
		{
			name: "missing reasons is not a parse error",
			raw:  `{"risk_level": "LOW"}`,
			want: domain.Verdict{
				TransactionID: "t1",
				Label:         "LOW",
				RiskLevel:     domain.RiskLow,
				Score:         50,
			},
		},
		{
			name: "bare string reason coerced to list",
			raw:  `{"risk_level": "HIGH", "reasons": "sanctioned jurisdiction"}`,
			want: domain.Verdict{
				TransactionID: "t1",
				Label:         "HIGH",
				RiskLevel:     domain.RiskHigh,
				Score:         50,
				Reasons:       []string{"sanctioned jurisdiction"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseVerdict("t1", tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseVerdict() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prefixed prose", "Here is the verdict: {\"a\":1}", `{"a":1}`},
		{"trailing prose", "{\"a\":1} hope that helps", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
