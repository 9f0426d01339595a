// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPProvider implements Searcher against a JSON search API reachable over
// plain HTTP(S) — the shape shared by most hosted web-search APIs (a query
// parameter, an API-key header, a results array). Specific providers differ
// only in endpoint/response field names, which ProviderConfig captures.
type HTTPProvider struct {
	name       string
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// ProviderConfig configures one HTTPProvider in the priority chain.
type ProviderConfig struct {
	Name     string
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// NewHTTPProvider creates a Searcher for one named web-search provider.
func NewHTTPProvider(config *ProviderConfig) *HTTPProvider {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		name:     config.Name,
		endpoint: config.Endpoint,
		apiKey:   config.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the provider's configured name, matching a
// SEARCH_PROVIDER_PRIORITY entry.
func (p *HTTPProvider) Name() string { return p.name }

type searchAPIResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

// Search issues one query to the provider's endpoint.
func (p *HTTPProvider) Search(ctx context.Context, query string) ([]Result, error) {
	reqURL := fmt.Sprintf("%s?q=%s", p.endpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", p.name, resp.StatusCode)
	}

	var parsed searchAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", p.name, err)
	}

	results := make([]Result, len(parsed.Results))
	for i, r := range parsed.Results {
		results[i] = Result{
			SourceID: fmt.Sprintf("%s:%d", p.name, i),
			Title:    r.Title,
			URL:      r.URL,
			Snippet:  r.Snippet,
		}
	}
	return results, nil
}
