// Package config defines process configuration and its loading.
//
// Defaults come from New; a YAML file (SCREENER_CONFIG) and environment
// variables (SCREENER_ prefix) layer on top, in that order of precedence.
package config

// Backend names a scoring strategy. Exactly one backend runs per batch;
// there is no fallback chain between them.
const (
	BackendGemini     = "gemini"
	BackendClassifier = "classifier"
	BackendRules      = "rules"
)

// Config contains process configuration for the screening pipeline.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// ProjectID and Location identify the GCP project for Vertex/BigQuery.
	ProjectID string `koanf:"project_id"`
	Location  string `koanf:"location"`

	// Backend selects the scoring strategy: gemini, classifier or rules.
	Backend string `koanf:"backend"`

	// Model is the generative model used by the gemini backend.
	Model string `koanf:"model"`

	// ClassifierEndpoint is the prediction URL for the classifier backend.
	ClassifierEndpoint string `koanf:"classifier_endpoint"`

	// RuleTablePath points at a YAML allow-list for the rules backend.
	// Empty means the embedded default table.
	RuleTablePath string `koanf:"rule_table_path"`

	// RegistryToken enables live corporate-registry lookups. Without it the
	// enricher runs on stub profiles only.
	RegistryToken   string `koanf:"registry_token"`
	RegistryBaseURL string `koanf:"registry_base_url"`

	// LookupMaxAttempts caps registry retries per name (first try included).
	LookupMaxAttempts int `koanf:"lookup_max_attempts"`

	// LookupPaceMS is the delay between consecutive registry lookups, to
	// respect third-party rate limits. A policy knob, not a correctness one.
	LookupPaceMS int `koanf:"lookup_pace_ms"`

	// Bucket is the GCS bucket used by cmd/upload and the API.
	Bucket string `koanf:"bucket"`

	// BigQueryDataset enables decision/run persistence when non-empty.
	BigQueryDataset string `koanf:"bigquery_dataset"`

	// Addr is the API listen address.
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory screening job queue.
	QueueSize int `koanf:"queue_size"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Location:          "us-central1",
		Backend:           BackendRules,
		Model:             "gemini-2.5-flash",
		RegistryBaseURL:   "https://api.opencorporates.com/v0.4",
		LookupMaxAttempts: 3,
		LookupPaceMS:      200,
		Addr:              ":8080",
		QueueSize:         100,
	}
}
