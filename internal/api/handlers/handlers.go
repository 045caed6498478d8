package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincrime-screener/internal/api/middleware"
	"github.com/dvloznov/fincrime-screener/internal/domain"
	"github.com/dvloznov/fincrime-screener/internal/jobs"
	"github.com/dvloznov/fincrime-screener/internal/report"
)

// RunsHandler handles screening-run endpoints.
type RunsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	backend   string
	log       zerolog.Logger
}

// NewRunsHandler creates a new runs handler. backend is the default scorer
// used when a submission does not name one.
func NewRunsHandler(publisher jobs.Publisher, store jobs.JobStore, backend string, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{
		publisher: publisher,
		store:     store,
		backend:   backend,
		log:       log,
	}
}

// SubmitRun handles POST /api/runs
func (h *RunsHandler) SubmitRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InputURI  string `json:"input_uri"`
		ExportURI string `json:"export_uri"`
		Backend   string `json:"backend"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.InputURI == "" || req.ExportURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "input_uri and export_uri are required")
		return
	}

	backend := req.Backend
	if backend == "" {
		backend = h.backend
	}

	ctx := r.Context()

	job := &jobs.ScreenBatchJob{
		InputURI:  req.InputURI,
		ExportURI: req.ExportURI,
		Backend:   backend,
	}

	if err := h.publisher.PublishScreenBatch(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue screening job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue screening job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("input_uri", req.InputURI).
		Str("backend", backend).
		Msg("Screening job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"backend": backend,
		"status":  string(job.Status),
	})
}

// GetRun handles GET /api/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListRuns handles GET /api/runs
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		InputURI: query.Get("input_uri"),
		Status:   jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	runs, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// SummaryHandler serves the aggregate views over a completed run.
type SummaryHandler struct {
	results *Results
	log     zerolog.Logger
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(results *Results, log zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{results: results, log: log}
}

func (h *SummaryHandler) decisionsFor(r *http.Request) (string, []report.Decision, bool) {
	if jobID := r.URL.Query().Get("run"); jobID != "" {
		decisions, ok := h.results.Get(jobID)
		return jobID, decisions, ok
	}
	return h.results.Latest()
}

// RiskSummary handles GET /api/summary/risk
func (h *SummaryHandler) RiskSummary(w http.ResponseWriter, r *http.Request) {
	jobID, decisions, ok := h.decisionsFor(r)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "No completed run available")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run":       jobID,
		"histogram": report.RiskHistogram(decisions),
	})
}

// ReasonSummary handles GET /api/summary/reasons
func (h *SummaryHandler) ReasonSummary(w http.ResponseWriter, r *http.Request) {
	jobID, decisions, ok := h.decisionsFor(r)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "No completed run available")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run":       jobID,
		"histogram": report.ReasonHistogram(decisions),
	})
}

// DecisionsHandler serves per-transaction decisions.
type DecisionsHandler struct {
	results *Results
	log     zerolog.Logger
}

// NewDecisionsHandler creates a new decisions handler.
func NewDecisionsHandler(results *Results, log zerolog.Logger) *DecisionsHandler {
	return &DecisionsHandler{results: results, log: log}
}

// riskRank orders risk levels most suspicious first. UNKNOWN sits above
// MEDIUM: an unscoreable transaction needs an analyst before a merely
// middling one does.
func riskRank(level domain.RiskLevel) int {
	switch level {
	case domain.RiskHigh:
		return 0
	case domain.RiskUnknown:
		return 1
	case domain.RiskMedium:
		return 2
	default:
		return 3
	}
}

// ListDecisions handles GET /api/decisions, most suspicious first.
func (h *DecisionsHandler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("run")
	var decisions []report.Decision
	var ok bool
	if jobID != "" {
		decisions, ok = h.results.Get(jobID)
	} else {
		jobID, decisions, ok = h.results.Latest()
	}
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "No completed run available")
		return
	}

	ordered := make([]report.Decision, len(decisions))
	copy(ordered, decisions)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := riskRank(ordered[i].Verdict.RiskLevel), riskRank(ordered[j].Verdict.RiskLevel)
		if ri != rj {
			return ri < rj
		}
		return ordered[i].Verdict.Score > ordered[j].Verdict.Score
	})

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit < len(ordered) {
			ordered = ordered[:limit]
		}
	}

	type decisionView struct {
		TransactionID    string   `json:"transaction_id"`
		OriginatorName   string   `json:"originator_name"`
		BeneficiaryName  string   `json:"beneficiary_name"`
		Amount           string   `json:"amount"`
		Currency         string   `json:"currency"`
		Label            string   `json:"label"`
		RiskLevel        string   `json:"risk_level"`
		Score            int      `json:"score"`
		Reasons          []string `json:"reasons"`
		SuggestedActions []string `json:"suggested_actions,omitempty"`
	}

	views := make([]decisionView, 0, len(ordered))
	for _, d := range ordered {
		views = append(views, decisionView{
			TransactionID:    d.Tx.TransactionID,
			OriginatorName:   d.Tx.OriginatorName,
			BeneficiaryName:  d.Tx.BeneficiaryName,
			Amount:           d.Tx.Amount.String(),
			Currency:         d.Tx.Currency,
			Label:            d.Verdict.Label,
			RiskLevel:        string(d.Verdict.RiskLevel),
			Score:            d.Verdict.Score,
			Reasons:          d.Verdict.Reasons,
			SuggestedActions: d.Verdict.SuggestedActions,
		})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run":       jobID,
		"decisions": views,
		"count":     len(views),
	})
}
