package provider

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newSearchTestClient(t *testing.T, handler http.HandlerFunc) *WebSearchClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewWebSearchClient("test-key", slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.SetBaseURL(srv.URL)
	return client
}

func TestSearchParsesResults(t *testing.T) {
	var gotAuth, gotPath string
	var gotPayload map[string]interface{}

	client := newSearchTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {"webPages": {"value": [
				{"url": "https://example.com/1", "name": "标题一", "snippet": "片段一", "summary": "摘要一", "siteName": "示例网", "datePublished": "2026-03-15"},
				{"url": "", "name": "没有链接", "snippet": "片段"},
				{"url": "https://example.com/3", "name": "没有文本"},
				{"url": "https://example.com/4", "name": "只有片段", "snippet": "片段四"}
			]}}
		}`))
	})

	results := client.Search(context.Background(), "智慧交通", 5)

	if gotPath != "/v1/web-search" {
		t.Errorf("path = %q, want /v1/web-search", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotPayload["query"] != "智慧交通" || gotPayload["summary"] != true {
		t.Errorf("unexpected payload: %v", gotPayload)
	}

	// Entries without a URL or without any text are dropped.
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Title != "标题一" || results[0].Summary != "摘要一" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	// Summary falls back to the snippet when absent.
	if results[1].Summary != "片段四" {
		t.Errorf("summary fallback = %q, want 片段四", results[1].Summary)
	}
}

func TestSearchSoftFailures(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		client := newSearchTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		if results := client.Search(context.Background(), "查询", 5); results != nil {
			t.Errorf("expected nil results, got %v", results)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		client := newSearchTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		})
		if results := client.Search(context.Background(), "查询", 5); results != nil {
			t.Errorf("expected nil results, got %v", results)
		}
	})
}

func TestSearchWithoutKeyReturnsNothing(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewWebSearchClient("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.SetBaseURL(srv.URL)

	if results := client.Search(context.Background(), "查询", 5); results != nil {
		t.Errorf("expected nil results, got %v", results)
	}
	if called {
		t.Error("request was sent despite missing API key")
	}
}
