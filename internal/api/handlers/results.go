package handlers

import (
	"sync"

	"github.com/dvloznov/fincrime-screener/internal/report"
)

// Results holds completed screening output per job so the API can serve
// summaries without re-reading exports. Data is lost on restart, same as the
// in-memory job store it sits next to.
type Results struct {
	mu     sync.RWMutex
	byJob  map[string][]report.Decision
	latest string
}

func NewResults() *Results {
	return &Results{byJob: make(map[string][]report.Decision)}
}

// Put stores the decisions for a completed job and marks it as the most
// recent one.
func (r *Results) Put(jobID string, decisions []report.Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byJob[jobID] = decisions
	r.latest = jobID
}

// Get returns the decisions for a specific job.
func (r *Results) Get(jobID string) ([]report.Decision, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byJob[jobID]
	return d, ok
}

// Latest returns the decisions of the most recently completed job.
func (r *Results) Latest() (string, []report.Decision, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == "" {
		return "", nil, false
	}
	return r.latest, r.byJob[r.latest], true
}
