package provider

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newBiddingTestClient(t *testing.T, handler http.HandlerFunc) *BiddingClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewBiddingClient("test-code", slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.SetBaseURL(srv.URL)
	return client
}

func TestSearchNoticesParsesResults(t *testing.T) {
	var gotAuth, gotPath, gotKeyword string

	client := newBiddingTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotKeyword = r.URL.Query().Get("keyword")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"results": [
				{"id": "bid-1", "title": "智慧交通招标公告", "notice_type": "招标公告", "province": "广东", "city": "深圳", "publish_time": "2026-03-10"},
				{"id": "bid-2", "title": "信号系统采购"}
			]
		}`))
	})

	result := client.SearchNotices(context.Background(), "智慧交通", 5)

	if gotPath != "/bid/notices" {
		t.Errorf("path = %q, want /bid/notices", gotPath)
	}
	if gotAuth != "APPCODE test-code" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotKeyword != "智慧交通" {
		t.Errorf("keyword = %q", gotKeyword)
	}

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(result.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(result.Results))
	}
	if result.Results[0].Province != "广东" {
		t.Errorf("province = %q, want 广东", result.Results[0].Province)
	}
}

func TestSearchAwardsPath(t *testing.T) {
	var gotPath string
	client := newBiddingTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"success": true, "results": []}`))
	})

	result := client.SearchAwards(context.Background(), "智慧交通", 5)
	if gotPath != "/bid/awards" {
		t.Errorf("path = %q, want /bid/awards", gotPath)
	}
	if !result.Success {
		t.Errorf("expected success, got %+v", result)
	}
}

func TestQuotaExhaustedSignal(t *testing.T) {
	client := newBiddingTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	result := client.SearchNotices(context.Background(), "智慧交通", 5)
	if !result.QuotaExhausted {
		t.Fatalf("expected quota exhausted, got %+v", result)
	}
	if result.Success {
		t.Error("quota exhaustion must not report success")
	}
}

func TestProviderErrorPropagated(t *testing.T) {
	client := newBiddingTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "error": "参数错误"}`))
	})

	result := client.SearchNotices(context.Background(), "智慧交通", 5)
	if result.Success || result.QuotaExhausted {
		t.Fatalf("expected plain failure, got %+v", result)
	}
	if result.Err != "参数错误" {
		t.Errorf("err = %q, want 参数错误", result.Err)
	}
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewBiddingClient("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if client.Configured() {
		t.Error("expected unconfigured")
	}
	result := client.SearchNotices(context.Background(), "关键词", 5)
	if result.Success {
		t.Errorf("expected failure, got %+v", result)
	}
}
