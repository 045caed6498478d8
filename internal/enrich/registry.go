package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dvloznov/fincrime-screener/internal/domain"
)

// Registry resolves a counterparty name to an industry profile. Lookup errors
// never abort a batch; the enricher degrades to a stub profile instead.
type Registry interface {
	Lookup(ctx context.Context, name string) (domain.CompanyProfile, error)
}

var (
	// ErrRegistryDisabled is returned when no API token is configured.
	ErrRegistryDisabled = errors.New("registry lookups disabled: no API token")

	// ErrNoMatch is returned when the registry has no company for the name.
	ErrNoMatch = errors.New("no registry match")
)

// OpenCorporatesClient looks up companies in the OpenCorporates v0.4 API.
// Transient failures (network errors, 429, 5xx) are retried with bounded
// exponential backoff; other HTTP failures fail immediately.
type OpenCorporatesClient struct {
	httpClient  *http.Client
	baseURL     string
	apiToken    string
	maxAttempts int

	// retryInterval seeds the exponential backoff between attempts.
	retryInterval time.Duration
}

// NewOpenCorporatesClient creates a registry client. maxAttempts counts the
// first try; values below 1 are treated as 1.
func NewOpenCorporatesClient(baseURL, apiToken string, maxAttempts int) *OpenCorporatesClient {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &OpenCorporatesClient{
		httpClient:    &http.Client{Timeout: 20 * time.Second},
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		apiToken:      apiToken,
		maxAttempts:   maxAttempts,
		retryInterval: 1 * time.Second,
	}
}

type searchResponse struct {
	Results struct {
		Companies []struct {
			Company companyRecord `json:"company"`
		} `json:"companies"`
	} `json:"results"`
}

type companyRecord struct {
	Name              string `json:"name"`
	JurisdictionCode  string `json:"jurisdiction_code"`
	OpencorporatesURL string `json:"opencorporates_url"`
	IndustryCodes     []struct {
		IndustryCode struct {
			Code        string `json:"code"`
			Description string `json:"description"`
			SchemeName  string `json:"industry_code_scheme_name"`
		} `json:"industry_code"`
	} `json:"industry_codes"`
}

// Lookup searches the registry by normalized name and extracts the first
// industry code found per scheme. The caller decides what to do on error;
// typically it falls back to StubProfile.
func (c *OpenCorporatesClient) Lookup(ctx context.Context, name string) (domain.CompanyProfile, error) {
	if c.apiToken == "" {
		return domain.CompanyProfile{}, ErrRegistryDisabled
	}

	query := NormalizeCompanyName(name)

	var result searchResponse
	operation := func() error {
		resp, err := c.search(ctx, query)
		if err != nil {
			// Network-level failures are transient by default.
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("registry returned %d", resp.StatusCode)
		default:
			// Other 4xx: not retryable, fail to the stub immediately.
			return backoff.Permanent(fmt.Errorf("registry returned %d", resp.StatusCode))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding registry response: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	bo.MaxInterval = 8 * time.Second
	if err := backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxAttempts-1)), ctx)); err != nil {
		return domain.CompanyProfile{}, fmt.Errorf("registry lookup %q: %w", name, err)
	}

	if len(result.Results.Companies) == 0 {
		return domain.CompanyProfile{}, fmt.Errorf("registry lookup %q: %w", name, ErrNoMatch)
	}
	return profileFromRecord(name, result.Results.Companies[0].Company), nil
}

func (c *OpenCorporatesClient) search(ctx context.Context, query string) (*http.Response, error) {
	u := fmt.Sprintf("%s/companies/search?q=%s&api_token=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(c.apiToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return c.httpClient.Do(req)
}

// profileFromRecord extracts the first industry code found per scheme.
// The label comes from whichever scheme yielded a code first.
func profileFromRecord(inputName string, rec companyRecord) domain.CompanyProfile {
	profile := domain.CompanyProfile{
		InputName:     inputName,
		CanonicalName: rec.Name,
		Jurisdiction:  rec.JurisdictionCode,
		RegistryURL:   rec.OpencorporatesURL,
		Source:        domain.SourceRegistry,
	}

	for _, ic := range rec.IndustryCodes {
		code := ic.IndustryCode.Code
		desc := ic.IndustryCode.Description
		scheme := strings.ToLower(ic.IndustryCode.SchemeName)
		switch {
		case strings.Contains(scheme, "sic") && profile.SIC == "":
			profile.SIC = code
		case strings.Contains(scheme, "nace") && profile.NACE == "":
			profile.NACE = code
		case strings.Contains(scheme, "naics") && profile.NAICS == "":
			profile.NAICS = code
		default:
			continue
		}
		if profile.IndustryLabel == "" && desc != "" {
			profile.IndustryLabel = desc
		}
	}
	return profile
}
