// Package provider wraps the external data sources the collector fans out
// over: a full-text web-search API for industry news and a notices API for
// procurement/bidding records.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultSearchBaseURL = "https://api.bochaai.com"
	searchTimeout        = 30 * time.Second
)

// SearchResult is one normalized web-search hit.
type SearchResult struct {
	URL           string
	Title         string
	Summary       string
	Snippet       string
	SiteName      string
	DatePublished string
}

// WebSearchClient calls the web-search provider. Every failure mode is
// soft: transport errors, non-2xx statuses and malformed payloads all log
// and yield an empty result list, which callers treat the same as "no
// results for this keyword".
type WebSearchClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewWebSearchClient creates a search client. An empty API key is allowed
// but degrades every search to an empty result list.
func NewWebSearchClient(apiKey string, logger *slog.Logger) *WebSearchClient {
	if apiKey == "" {
		logger.Warn("search API key not configured, web search will return no results")
	}
	return &WebSearchClient{
		apiKey:  apiKey,
		baseURL: defaultSearchBaseURL,
		client:  &http.Client{Timeout: searchTimeout},
		logger:  logger,
	}
}

// SetBaseURL overrides the provider endpoint, used in tests.
func (c *WebSearchClient) SetBaseURL(url string) {
	c.baseURL = url
}

type searchRequest struct {
	Query   string `json:"query"`
	Summary bool   `json:"summary"`
	Count   int    `json:"count"`
	Page    int    `json:"page"`
}

type searchResponse struct {
	Data struct {
		WebPages struct {
			Value []struct {
				URL           string `json:"url"`
				Name          string `json:"name"`
				Snippet       string `json:"snippet"`
				Summary       string `json:"summary"`
				SiteName      string `json:"siteName"`
				DatePublished string `json:"datePublished"`
			} `json:"value"`
		} `json:"webPages"`
	} `json:"data"`
}

// Search performs one bounded search and returns normalized results.
// Results without a URL or without any text are dropped.
func (c *WebSearchClient) Search(ctx context.Context, query string, count int) []SearchResult {
	if c.apiKey == "" {
		return nil
	}

	payload, err := json.Marshal(searchRequest{
		Query:   query,
		Summary: true,
		Count:   count,
		Page:    1,
	})
	if err != nil {
		c.logger.Error("failed to encode search request", "query", query, "error", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/web-search", bytes.NewReader(payload))
	if err != nil {
		c.logger.Error("failed to build search request", "query", query, "error", err)
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("web search request failed", "query", query, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("web search returned non-2xx status",
			"query", query,
			"status", resp.StatusCode,
		)
		return nil
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Error("failed to decode search response", "query", query, "error", err)
		return nil
	}

	results := make([]SearchResult, 0, len(decoded.Data.WebPages.Value))
	for _, item := range decoded.Data.WebPages.Value {
		if item.URL == "" || (item.Snippet == "" && item.Summary == "") {
			continue
		}
		summary := item.Summary
		if summary == "" {
			summary = item.Snippet
		}
		results = append(results, SearchResult{
			URL:           item.URL,
			Title:         item.Name,
			Summary:       summary,
			Snippet:       item.Snippet,
			SiteName:      item.SiteName,
			DatePublished: item.DatePublished,
		})
	}

	c.logger.Debug("web search completed",
		"query", query,
		"requested", count,
		"returned", len(results),
	)
	return results
}

// String implements fmt.Stringer for logging.
func (c *WebSearchClient) String() string {
	return fmt.Sprintf("websearch(configured=%t)", c.apiKey != "")
}
