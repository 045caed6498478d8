package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dvloznov/fincrime-screener/internal/domain"
)

const searchBody = `{
	"results": {
		"companies": [{
			"company": {
				"name": "ACME TRADING LIMITED",
				"jurisdiction_code": "gb",
				"opencorporates_url": "https://opencorporates.com/companies/gb/001",
				"industry_codes": [
					{"industry_code": {"code": "2011", "description": "Chemical Manufacturing", "industry_code_scheme_name": "UK SIC Classification"}},
					{"industry_code": {"code": "20.11", "description": "Industrial gases", "industry_code_scheme_name": "NACE Rev 2"}}
				]
			}
		}]
	}
}`

func testClient(baseURL string, maxAttempts int) *OpenCorporatesClient {
	c := NewOpenCorporatesClient(baseURL, "test-token", maxAttempts)
	c.retryInterval = time.Millisecond
	return c
}

func TestLookupRetryPolicy(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		maxAttempts  int
		wantAttempts int
	}{
		{"rate limited retries to the ceiling", http.StatusTooManyRequests, 3, 3},
		{"server error retries to the ceiling", http.StatusInternalServerError, 3, 3},
		{"not found fails immediately", http.StatusNotFound, 3, 1},
		{"forbidden fails immediately", http.StatusForbidden, 3, 1},
		{"single attempt never retries", http.StatusTooManyRequests, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := testClient(server.URL, tt.maxAttempts).Lookup(context.Background(), "Acme Ltd")
			if err == nil {
				t.Fatal("Lookup() expected error")
			}
			if attempts != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", attempts, tt.wantAttempts)
			}
		})
	}
}

func TestLookupRecoversAfterTransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(searchBody))
	}))
	defer server.Close()

	profile, err := testClient(server.URL, 3).Lookup(context.Background(), "Acme Ltd")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if profile.Source != domain.SourceRegistry {
		t.Errorf("source = %q, want registry", profile.Source)
	}
	if profile.CanonicalName != "ACME TRADING LIMITED" || profile.SIC != "2011" || profile.NACE != "20.11" {
		t.Errorf("profile = %+v", profile)
	}
	if profile.IndustryLabel != "Chemical Manufacturing" {
		t.Errorf("label = %q, want first scheme's description", profile.IndustryLabel)
	}
}

func TestLookupQueriesNormalizedName(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		w.Write([]byte(searchBody))
	}))
	defer server.Close()

	if _, err := testClient(server.URL, 1).Lookup(context.Background(), "Acme Ltd"); err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if query != "ACME" {
		t.Errorf("search query = %q, want normalized name ACME", query)
	}
}

func TestLookupNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": {"companies": []}}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL, 1).Lookup(context.Background(), "Hooli")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("Lookup() error = %v, want ErrNoMatch", err)
	}
}

func TestLookupDisabledWithoutToken(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	c := NewOpenCorporatesClient(server.URL, "", 3)
	_, err := c.Lookup(context.Background(), "Acme Ltd")
	if !errors.Is(err, ErrRegistryDisabled) {
		t.Errorf("Lookup() error = %v, want ErrRegistryDisabled", err)
	}
	if calls != 0 {
		t.Errorf("registry hit %d times despite missing token", calls)
	}
}
