package enrich

import (
	"strings"

	"github.com/dvloznov/fincrime-screener/internal/domain"
)

type stubIndustry struct {
	nace  string
	label string
}

// stubHeuristics keys on the first word of the normalized name. It exists so
// the pipeline still produces industry context when no registry is reachable.
var stubHeuristics = map[string]stubIndustry{
	"SHELL":     {"4731", "Wholesale of fuel"},
	"TESCO":     {"4711", "Supermarkets"},
	"MICROSOFT": {"6201", "Software development"},
	"APPLE":     {"4651", "Wholesale of computers"},
	"AMAZON":    {"4791", "E-commerce"},
}

// StubProfile builds a local fallback profile for a counterparty name. Names
// not matched by the heuristic yield a profile with every classification
// field empty; the provenance tag is always "stub".
func StubProfile(name string) domain.CompanyProfile {
	profile := domain.CompanyProfile{
		InputName:     name,
		CanonicalName: name,
		Source:        domain.SourceStub,
	}

	n := NormalizeCompanyName(name)
	first, _, _ := strings.Cut(n, " ")
	if ind, ok := stubHeuristics[first]; ok {
		profile.NACE = ind.nace
		profile.IndustryLabel = ind.label
	}
	return profile
}
