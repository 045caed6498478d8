package domain

// Profile provenance tags.
const (
	SourceStub     = "stub"
	SourceRegistry = "registry"
)

// CompanyProfile is the industry classification for one counterparty name.
// It is built once per distinct name per batch and exists only to be joined
// onto transaction rows; it is never persisted on its own.
type CompanyProfile struct {
	InputName     string
	CanonicalName string
	Jurisdiction  string
	RegistryURL   string

	// Industry classification codes, one per scheme. Any of these may be
	// empty when the registry (or the stub heuristic) had no answer.
	SIC   string // UK-style four-digit code
	NACE  string // EU-style four-digit code
	NAICS string // North-American six-digit code

	IndustryLabel string
	Source        string // SourceStub or SourceRegistry
}

// ClassificationKey returns the first non-empty industry code in
// scheme-priority order (SIC, NACE, NAICS), or "" when unclassified.
func (p CompanyProfile) ClassificationKey() string {
	switch {
	case p.SIC != "":
		return p.SIC
	case p.NACE != "":
		return p.NACE
	case p.NAICS != "":
		return p.NAICS
	}
	return ""
}

// EnrichedTransaction is a transaction with both counterparty profiles
// attached. Profile fields surface in output under originator_* and
// beneficiary_* column names.
type EnrichedTransaction struct {
	Transaction

	Originator  CompanyProfile
	Beneficiary CompanyProfile
}
