package enrich

import "testing"

func TestNormalizeCompanyName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Acme Ltd", "ACME"},
		{"acme limited", "ACME"},
		{"Globex GmbH", "GLOBEX"},
		{"Soylent Corp S.A.", "SOYLENT CORP"}, // dotted suffix at end of input
		{"Banco Azul SA", "BANCO AZUL"},
		{"Smith & Sons LLC", "SMITH & SONS"},
		{"  Tesco   PLC  ", "TESCO"},
		{"Initech, Inc.", "INITECH"},
		{"USA Trading", "USA TRADING"}, // SA inside a word is not a suffix
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeCompanyName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeCompanyName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeCompanyNameIdempotent(t *testing.T) {
	inputs := []string{
		"Acme Ltd", "Soylent Corp S.A.", "Smith & Sons LLC", "Globex GmbH", "Hooli",
	}
	for _, input := range inputs {
		once := NormalizeCompanyName(input)
		twice := NormalizeCompanyName(once)
		if once != twice {
			t.Errorf("normalization not idempotent for %q: %q -> %q", input, once, twice)
		}
	}
}

func TestStubProfileHeuristics(t *testing.T) {
	p := StubProfile("Tesco PLC")
	if p.NACE != "4711" || p.IndustryLabel != "Supermarkets" {
		t.Errorf("StubProfile(Tesco PLC) = %+v, want NACE 4711 / Supermarkets", p)
	}
	if p.Source != "stub" {
		t.Errorf("provenance = %q, want stub", p.Source)
	}

	p = StubProfile("Totally Unknown Trading")
	if p.NACE != "" || p.SIC != "" || p.NAICS != "" || p.IndustryLabel != "" {
		t.Errorf("unmatched name should have empty classification fields, got %+v", p)
	}
	if p.Source != "stub" {
		t.Errorf("provenance = %q, want stub", p.Source)
	}
}
