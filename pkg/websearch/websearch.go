// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package websearch abstracts the external web-search collaborator and
// implements the provider-priority fallback chain: SEARCH_PROVIDER_PRIORITY
// lists providers in order, a failed provider is retried once, then the
// chain falls through to the next provider. Grounded on the multi-provider
// fallback idiom used for LLM providers elsewhere in the example pack,
// generalized here to search providers.
package websearch

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"test-smith/internal/telemetry"
)

// Result is a single web search hit.
type Result struct {
	SourceID string
	Title    string
	URL      string
	Snippet  string
}

// Searcher is the interface a single web-search provider implements.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
	Name() string
}

// ChainSearcher walks a priority-ordered list of Searchers, retrying each
// provider once before falling through to the next. If every provider
// fails, Search returns the accumulated errors rather than panicking; the
// web-search step turns that into the "web_search_unavailable" sentinel
// note rather than failing the run (spec §4.4, §7).
type ChainSearcher struct {
	providers []Searcher
	limiter   *rate.Limiter
	logger    *telemetry.Logger
}

// ChainConfig configures the provider chain's rate limit.
type ChainConfig struct {
	// RequestsPerSecond bounds outbound calls across all providers combined.
	RequestsPerSecond float64
	Burst             int
}

// NewChainSearcher builds a chain over providers in priority order (the
// order SEARCH_PROVIDER_PRIORITY names them).
func NewChainSearcher(providers []Searcher, config *ChainConfig, logger *telemetry.Logger) *ChainSearcher {
	if config == nil {
		config = &ChainConfig{RequestsPerSecond: 5, Burst: 5}
	}
	if logger == nil {
		logger = telemetry.Default()
	}
	return &ChainSearcher{
		providers: providers,
		limiter:   rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		logger:    logger,
	}
}

// Search tries each provider in order, retrying a failing provider once
// before moving to the next.
func (c *ChainSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	if len(c.providers) == 0 {
		return nil, fmt.Errorf("no web search providers configured")
	}

	var lastErr error
	for _, provider := range c.providers {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		results, err := provider.Search(ctx, query)
		if err == nil {
			return results, nil
		}
		c.logger.Warning("web search provider failed, retrying once", map[string]any{"provider": provider.Name(), "error": err.Error()})

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		results, err = provider.Search(ctx, query)
		if err == nil {
			return results, nil
		}
		c.logger.Warning("web search provider failed after retry, falling through", map[string]any{"provider": provider.Name(), "error": err.Error()})
		lastErr = fmt.Errorf("%s: %w", provider.Name(), err)
	}

	return nil, fmt.Errorf("all web search providers exhausted: %w", lastErr)
}
