// Package score assigns a risk verdict to each enriched transaction through
// one of three interchangeable backends: a generative model, a trained
// classifier endpoint, or a static industry rule table.
package score

import (
	"context"

	"github.com/dvloznov/fincrime-screener/internal/domain"
)

// Scorer is the single contract every backend implements. A run picks
// exactly one backend at configuration time; there is no fallback chain.
//
// Per-row parse failures are absorbed into degraded verdicts (UNKNOWN risk
// with a parse_error reason). A returned error means the backend itself is
// broken and the run must stop.
type Scorer interface {
	// Name identifies the backend in logs and run records.
	Name() string

	// Score produces a verdict for one transaction.
	Score(ctx context.Context, tx domain.EnrichedTransaction) (domain.Verdict, error)
}
