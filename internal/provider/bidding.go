package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBiddingBaseURL = "https://api.81api.com"
	biddingTimeout        = 30 * time.Second

	// DefaultBiddingSource is recorded on notices when the provider omits
	// a source of its own.
	DefaultBiddingSource = "81api"
)

// BiddingRecord is one raw notice as returned by the provider, before
// classification and persistence.
type BiddingRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	NoticeType  string `json:"notice_type"`
	Province    string `json:"province"`
	City        string `json:"city"`
	PublishTime string `json:"publish_time"`
	Source      string `json:"source"`
}

// BiddingResult is the outcome of one provider query. QuotaExhausted is a
// distinct signal from ordinary failure: it means the account is out of
// calls and further queries in the same run are pointless.
type BiddingResult struct {
	Success        bool
	Results        []BiddingRecord
	QuotaExhausted bool
	Err            string
}

// BiddingClient calls the procurement notices provider. Unlike web search
// the outcome is structured, because callers need to distinguish "this
// keyword failed" from "the quota is gone, stop the whole run".
type BiddingClient struct {
	appCode string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewBiddingClient creates a notices client. An empty app code is allowed;
// Configured reports it so callers can skip bidding collection entirely.
func NewBiddingClient(appCode string, logger *slog.Logger) *BiddingClient {
	if appCode == "" {
		logger.Warn("bidding app code not configured, bidding collection disabled")
	}
	return &BiddingClient{
		appCode: appCode,
		baseURL: defaultBiddingBaseURL,
		client:  &http.Client{Timeout: biddingTimeout},
		logger:  logger,
	}
}

// Configured reports whether the provider credential is present.
func (c *BiddingClient) Configured() bool {
	return c.appCode != ""
}

// SetBaseURL overrides the provider endpoint, used in tests.
func (c *BiddingClient) SetBaseURL(url string) {
	c.baseURL = url
}

// SearchNotices queries open tender/procurement notices for a keyword.
func (c *BiddingClient) SearchNotices(ctx context.Context, keyword string, limit int) BiddingResult {
	return c.search(ctx, "/bid/notices", keyword, limit)
}

// SearchAwards queries award/result notices for a keyword.
func (c *BiddingClient) SearchAwards(ctx context.Context, keyword string, limit int) BiddingResult {
	return c.search(ctx, "/bid/awards", keyword, limit)
}

type biddingResponse struct {
	Success bool            `json:"success"`
	Results []BiddingRecord `json:"results"`
	Error   string          `json:"error"`
}

func (c *BiddingClient) search(ctx context.Context, path, keyword string, limit int) BiddingResult {
	if c.appCode == "" {
		return BiddingResult{Err: "provider not configured"}
	}

	query := url.Values{}
	query.Set("keyword", keyword)
	query.Set("page_size", strconv.Itoa(limit))
	query.Set("page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return BiddingResult{Err: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Authorization", "APPCODE "+c.appCode)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("bidding request failed", "path", path, "keyword", keyword, "error", err)
		return BiddingResult{Err: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	// The gateway signals an exhausted call quota with 403.
	if resp.StatusCode == http.StatusForbidden {
		c.logger.Warn("bidding provider quota exhausted", "path", path, "keyword", keyword)
		return BiddingResult{QuotaExhausted: true, Err: "quota exhausted"}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("bidding provider returned non-2xx status",
			"path", path,
			"keyword", keyword,
			"status", resp.StatusCode,
		)
		return BiddingResult{Err: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var decoded biddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Error("failed to decode bidding response", "path", path, "keyword", keyword, "error", err)
		return BiddingResult{Err: fmt.Sprintf("failed to decode response: %v", err)}
	}
	if !decoded.Success {
		errMsg := decoded.Error
		if errMsg == "" {
			errMsg = "unknown error"
		}
		return BiddingResult{Err: errMsg}
	}

	c.logger.Debug("bidding search completed",
		"path", path,
		"keyword", keyword,
		"returned", len(decoded.Results),
	)
	return BiddingResult{Success: true, Results: decoded.Results}
}
