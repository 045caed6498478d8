// Package enrich resolves counterparty names to industry profiles and joins
// them onto transaction rows.
package enrich

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincrime-screener/internal/domain"
)

// Enricher attaches company profiles to every transaction in a batch.
type Enricher struct {
	registry Registry
	pace     time.Duration
	log      zerolog.Logger
}

// New creates an Enricher. pace is the delay inserted between consecutive
// registry lookups; zero disables pacing.
func New(registry Registry, pace time.Duration, log zerolog.Logger) *Enricher {
	return &Enricher{registry: registry, pace: pace, log: log}
}

// EnrichBatch resolves each distinct counterparty name across both roles
// exactly once, then joins the profiles back onto every row. A failed or
// disabled lookup degrades to a stub profile and never fails the batch.
func (e *Enricher) EnrichBatch(ctx context.Context, batch *domain.Batch) ([]domain.EnrichedTransaction, error) {
	names := distinctNames(batch)
	profiles := make(map[string]domain.CompanyProfile, len(names))

	for i, name := range names {
		profile, err := e.registry.Lookup(ctx, name)
		if err != nil {
			e.log.Debug().Err(err).Str("name", name).Msg("Registry lookup degraded to stub profile")
			profile = StubProfile(name)
		}
		profiles[name] = profile

		// Pace external calls; no delay after the last lookup.
		if e.pace > 0 && i < len(names)-1 {
			select {
			case <-time.After(e.pace):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	// Blank names never reach the registry, but their rows still carry stub
	// provenance rather than a zero-value profile.
	profileFor := func(name string) domain.CompanyProfile {
		if p, ok := profiles[name]; ok {
			return p
		}
		return StubProfile(name)
	}

	rows := make([]domain.EnrichedTransaction, 0, len(batch.Transactions))
	for _, tx := range batch.Transactions {
		rows = append(rows, domain.EnrichedTransaction{
			Transaction: tx,
			Originator:  profileFor(tx.OriginatorName),
			Beneficiary: profileFor(tx.BeneficiaryName),
		})
	}

	e.log.Info().
		Int("transactions", len(rows)).
		Int("distinct_counterparties", len(names)).
		Msg("Batch enriched")
	return rows, nil
}

// distinctNames returns the union of originator and beneficiary names in
// first-seen order, skipping blanks.
func distinctNames(batch *domain.Batch) []string {
	seen := make(map[string]bool, len(batch.Transactions)*2)
	var names []string
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, tx := range batch.Transactions {
		add(tx.OriginatorName)
		add(tx.BeneficiaryName)
	}
	return names
}
