package score

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/fincrime-screener/internal/domain"
	"github.com/dvloznov/fincrime-screener/internal/feature"
)

// GeminiScorer scores transactions by asking a generative model for a
// strict-JSON verdict, one request per transaction.
type GeminiScorer struct {
	client          *genai.Client
	model           string
	optionalColumns []string
}

// NewGeminiScorer creates the generative backend. A configured project
// routes through Vertex AI in the given location; otherwise the client falls
// back to its environment-driven defaults. A client construction failure is
// a ModelUnavailableError: the run must not proceed.
func NewGeminiScorer(ctx context.Context, projectID, location, model string, optionalColumns []string) (*GeminiScorer, error) {
	cc := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	}
	if projectID != "" {
		cc.Backend = genai.BackendVertexAI
		cc.Project = projectID
		cc.Location = location
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &ModelUnavailableError{Backend: "gemini", Resource: model, Err: err}
	}
	return &GeminiScorer{client: client, model: model, optionalColumns: optionalColumns}, nil
}

func (s *GeminiScorer) Name() string { return "gemini" }

// Score sends the built prompt to the model. A transport failure is returned
// to the caller; a malformed response degrades to an UNKNOWN verdict and
// never raises.
func (s *GeminiScorer) Score(ctx context.Context, tx domain.EnrichedTransaction) (domain.Verdict, error) {
	prompt := feature.BuildPrompt(tx, s.optionalColumns)

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		MaxOutputTokens:  256,
		ResponseMIMEType: "application/json",
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, cfg)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("gemini: generate content for %s: %w", tx.TransactionID, err)
	}

	return ParseVerdict(tx.TransactionID, resp.Text()), nil
}

// ParseVerdict parses raw model output into a verdict. It never fails:
// output that is not a JSON object, or that lacks a risk level, yields
// UNKNOWN with a parse_error reason. Scores are clamped to [0,100] and
// default to 50; unrecognized risk strings default to MEDIUM.
func ParseVerdict(transactionID, raw string) domain.Verdict {
	degraded := domain.Verdict{
		TransactionID: transactionID,
		Label:         string(domain.RiskUnknown),
		RiskLevel:     domain.RiskUnknown,
		Score:         50,
		Reasons:       []string{domain.ReasonParseError},
	}

	clean := cleanModelJSON(raw)

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &obj); err != nil {
		return degraded
	}

	riskRaw, ok := stringField(obj, "risk_level")
	if !ok {
		// Some model revisions answer with "risk" instead.
		riskRaw, ok = stringField(obj, "risk")
	}
	if !ok {
		return degraded
	}

	level := domain.ParseRiskLevel(riskRaw)
	return domain.Verdict{
		TransactionID:    transactionID,
		Label:            string(level),
		RiskLevel:        level,
		Score:            scoreField(obj),
		Reasons:          stringListField(obj, "reasons"),
		SuggestedActions: stringListField(obj, "suggested_actions"),
	}
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignored the no-fences instruction, keeping the outermost JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

func stringField(obj map[string]interface{}, key string) (string, bool) {
	v, ok := obj[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// stringListField accepts a list of strings or a bare string; anything else
// (including absence) yields an empty list. Missing reasons on an otherwise
// valid verdict are not a parse error.
func stringListField(obj map[string]interface{}, key string) []string {
	switch v := obj[key].(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// scoreField coerces the plausibility score to an integer in [0,100],
// defaulting to 50 when absent or non-numeric.
func scoreField(obj map[string]interface{}) int {
	v, ok := obj["score"].(float64)
	if !ok {
		return 50
	}
	score := int(v)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
