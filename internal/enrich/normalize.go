package enrich

import (
	"regexp"
	"strings"
)

var (
	// The dotted form precedes the alternation: a trailing \b cannot match
	// after the final dot, so S.A. gets its own unbounded alternative.
	legalSuffixRe = regexp.MustCompile(`\b(S\.A\.|(LTD|LIMITED|PLC|LLC|INC|INCORPORATED|GMBH|SAS|BV|OY|AB|AG|NV|PTY|PTE|KFT|SRL|SL|SA)\b)`)
	nonAlnumRe    = regexp.MustCompile(`[^A-Z0-9 &]+`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// NormalizeCompanyName canonicalizes a counterparty name for registry lookup
// and heuristic matching: uppercase, legal-entity suffixes stripped by
// whole-word match, non-alphanumeric characters (except &) collapsed to
// spaces, repeated whitespace collapsed. Normalization is idempotent.
func NormalizeCompanyName(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = legalSuffixRe.ReplaceAllString(n, "")
	n = nonAlnumRe.ReplaceAllString(n, " ")
	n = strings.TrimSpace(whitespaceRe.ReplaceAllString(n, " "))
	return n
}
