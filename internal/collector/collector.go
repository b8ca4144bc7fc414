// Package collector orchestrates scheduled and manual collection runs:
// keyword fan-out over the providers, per-item classification, dedup
// against the stores, and the task ledger that records every run.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sectorpulse/sectorpulse/internal/industry"
	"github.com/sectorpulse/sectorpulse/internal/metrics"
	"github.com/sectorpulse/sectorpulse/internal/models"
	"github.com/sectorpulse/sectorpulse/internal/provider"
)

const (
	// minNewsPerKeyword / minBiddingPerKeyword guarantee each keyword a
	// floor share of the run budget even when keywords outnumber it.
	minNewsPerKeyword    = 2
	minBiddingPerKeyword = 3

	// searchMargin is the overfetch added to each search request so that
	// duplicates dropped by dedup still leave enough fresh results.
	searchMargin = 2

	// ledgerErrorCap bounds the errors joined into the ledger error_message;
	// callerErrorCap bounds the errors returned from a run.
	ledgerErrorCap = 5
	callerErrorCap = 10

	defaultThrottle = 300 * time.Millisecond
)

// NewsStore persists collected news items.
type NewsStore interface {
	ExistsByURL(ctx context.Context, sourceURL string) (bool, error)
	InsertBatch(ctx context.Context, items []models.NewsItem) (int, error)
	List(ctx context.Context, q models.NewsQuery) ([]models.NewsItem, int, error)
	Stats(ctx context.Context, industryID string) (models.NewsStats, error)
	Count(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
}

// BiddingStore persists collected bidding notices.
type BiddingStore interface {
	ExistsByBidID(ctx context.Context, bidID string) (bool, error)
	InsertBatch(ctx context.Context, notices []models.BiddingNotice) (int, error)
	List(ctx context.Context, q models.BiddingQuery) ([]models.BiddingNotice, int, error)
	Stats(ctx context.Context, industryID string) (models.BiddingStats, error)
	Count(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
}

// TaskStore is the collection task ledger.
type TaskStore interface {
	Create(ctx context.Context, task models.CollectionTask) error
	Finish(ctx context.Context, id string, status models.TaskStatus, totalCollected int, errorMessage string) error
	List(ctx context.Context, limit int) ([]models.CollectionTask, error)
}

// SearchProvider performs one bounded web search.
type SearchProvider interface {
	Search(ctx context.Context, query string, count int) []provider.SearchResult
}

// BiddingProvider queries tender and award notices.
type BiddingProvider interface {
	Configured() bool
	SearchNotices(ctx context.Context, keyword string, limit int) provider.BiddingResult
	SearchAwards(ctx context.Context, keyword string, limit int) provider.BiddingResult
}

// Result is the outcome of one collection run.
type Result struct {
	Success   bool     `json:"success"`
	TaskID    string   `json:"task_id,omitempty"`
	Collected int      `json:"collected"`
	Errors    []string `json:"errors,omitempty"`
	Error     string   `json:"error,omitempty"`
	Skipped   string   `json:"skipped,omitempty"`
}

// CombinedResult bundles the two runs a full collection performs, tagged
// with the display name of the industry they fanned out over.
type CombinedResult struct {
	Success  bool   `json:"success"`
	Industry string `json:"industry"`
	News     Result `json:"news"`
	Bidding  Result `json:"bidding"`
}

// Collector runs collections and fronts the stores for queries. Runs of
// the same content type are serialized with a per-type lock; a news run
// and a bidding run may overlap.
type Collector struct {
	news    NewsStore
	bidding BiddingStore
	tasks   TaskStore
	search  SearchProvider
	notices BiddingProvider
	metrics *metrics.Collector
	logger  *slog.Logger

	throttle time.Duration

	newsMu    sync.Mutex
	biddingMu sync.Mutex
}

// New creates a collector.
func New(
	news NewsStore,
	bidding BiddingStore,
	tasks TaskStore,
	search SearchProvider,
	notices BiddingProvider,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Collector {
	return &Collector{
		news:     news,
		bidding:  bidding,
		tasks:    tasks,
		search:   search,
		notices:  notices,
		metrics:  collector,
		logger:   logger,
		throttle: defaultThrottle,
	}
}

// CollectNews fans the news keywords of the industry out over web search
// and stores the deduplicated results. Per-keyword failures are recorded
// and skipped; only ledger failures abort the run.
func (c *Collector) CollectNews(ctx context.Context, maxItems int, industryID string) Result {
	c.newsMu.Lock()
	defer c.newsMu.Unlock()

	profile := industry.Lookup(industryID, c.logger)
	keywords := profile.NewsKeywords
	resolvedIndustry := string(profile.ID)

	start := time.Now()
	taskID, err := c.startTask(ctx, models.TaskTypeNews)
	if err != nil {
		return Result{Error: err.Error()}
	}

	c.logger.Info("news collection started",
		"task_id", taskID,
		"industry", resolvedIndustry,
		"keywords", len(keywords),
		"max_items", maxItems,
	)

	perKeyword := minNewsPerKeyword
	if n := len(keywords); n > 0 && maxItems/n > perKeyword {
		perKeyword = maxItems / n
	}

	var (
		items   []models.NewsItem
		errors  []string
		seenURL = make(map[string]bool)
	)

	for _, keyword := range keywords {
		if len(items) >= maxItems {
			break
		}

		results := c.search.Search(ctx, keyword, perKeyword+searchMargin)
		if len(results) == 0 {
			errors = append(errors, fmt.Sprintf("search %q returned no results", keyword))
			continue
		}

		taken := 0
		for _, r := range results {
			if taken >= perKeyword || len(items) >= maxItems {
				break
			}
			if r.URL == "" || seenURL[r.URL] {
				continue
			}

			exists, err := c.news.ExistsByURL(ctx, r.URL)
			if err != nil {
				errors = append(errors, fmt.Sprintf("keyword %q: %v", keyword, err))
				break
			}
			if exists {
				continue
			}

			items = append(items, c.buildNewsItem(r, keyword, resolvedIndustry))
			seenURL[r.URL] = true
			taken++
		}

		if !c.pause(ctx) {
			errors = append(errors, "collection cancelled")
			break
		}
	}

	inserted, err := c.news.InsertBatch(ctx, items)
	if err != nil {
		return c.failTask(ctx, models.TaskTypeNews, taskID, start, len(items), err)
	}

	return c.completeTask(ctx, models.TaskTypeNews, taskID, start, inserted, errors)
}

func (c *Collector) buildNewsItem(r provider.SearchResult, keyword, industryID string) models.NewsItem {
	title := r.Title
	if title == "" {
		title = "无标题"
	}
	content := r.Summary
	if content == "" {
		content = r.Snippet
	}

	source := r.SiteName
	if source == "" {
		source = sourceFromURL(r.URL)
	}

	publishTime := parseDateTime(r.DatePublished)
	if publishTime == nil {
		publishTime = extractDateFromSnippet(r.Snippet)
	}

	return models.NewsItem{
		ID:          uuid.NewString(),
		IndustryID:  industryID,
		Title:       truncateTitle(title),
		Content:     content,
		Source:      source,
		SourceURL:   r.URL,
		Category:    categorize(title, content),
		Department:  extractDepartment(title, content),
		PublishTime: publishTime,
		Keyword:     keyword,
		CollectedAt: time.Now().UTC(),
	}
}

// CollectBidding fans the bidding keywords out over the notices provider,
// querying tenders and awards for each. A quota-exhaustion signal stops
// the fan-out immediately; what was gathered so far is still stored and
// the run finishes as completed.
func (c *Collector) CollectBidding(ctx context.Context, maxItems int, industryID string) Result {
	c.biddingMu.Lock()
	defer c.biddingMu.Unlock()

	profile := industry.Lookup(industryID, c.logger)
	keywords := profile.BiddingKeywords
	resolvedIndustry := string(profile.ID)

	start := time.Now()
	taskID, err := c.startTask(ctx, models.TaskTypeBidding)
	if err != nil {
		return Result{Error: err.Error()}
	}

	c.logger.Info("bidding collection started",
		"task_id", taskID,
		"industry", resolvedIndustry,
		"keywords", len(keywords),
		"max_items", maxItems,
	)

	perKeyword := minBiddingPerKeyword
	if n := len(keywords); n > 0 && maxItems/n > perKeyword {
		perKeyword = maxItems / n
	}

	var (
		notices        []models.BiddingNotice
		errors         []string
		quotaExhausted bool
		seenBidID      = make(map[string]bool)
	)

	queries := []struct {
		run         func(context.Context, string, int) provider.BiddingResult
		defaultType string
		label       string
	}{
		{c.notices.SearchNotices, "招标", "tender query"},
		{c.notices.SearchAwards, "中标", "award query"},
	}

fanout:
	for _, keyword := range keywords {
		if len(notices) >= maxItems {
			break
		}

		for _, q := range queries {
			result := q.run(ctx, keyword, perKeyword)

			if result.QuotaExhausted {
				c.logger.Warn("bidding quota exhausted, stopping collection", "task_id", taskID)
				c.metrics.ObserveQuotaExhausted()
				errors = append(errors, "bidding API quota exhausted, renew or wait for the quota to reset")
				quotaExhausted = true
				break fanout
			}

			if !result.Success {
				errMsg := result.Err
				if errMsg == "" {
					errMsg = "unknown error"
				}
				errors = append(errors, fmt.Sprintf("%s %q failed: %s", q.label, keyword, errMsg))
				continue
			}

			records := result.Results
			if len(records) > perKeyword {
				records = records[:perKeyword]
			}
			for _, record := range records {
				if len(notices) >= maxItems {
					break
				}
				if record.ID == "" || seenBidID[record.ID] {
					continue
				}

				exists, err := c.bidding.ExistsByBidID(ctx, record.ID)
				if err != nil {
					errors = append(errors, fmt.Sprintf("keyword %q: %v", keyword, err))
					break
				}
				if exists {
					continue
				}

				notices = append(notices, buildBiddingNotice(record, q.defaultType, resolvedIndustry))
				seenBidID[record.ID] = true
			}
		}

		if quotaExhausted {
			break
		}
		if !c.pause(ctx) {
			errors = append(errors, "collection cancelled")
			break
		}
	}

	inserted, err := c.bidding.InsertBatch(ctx, notices)
	if err != nil {
		return c.failTask(ctx, models.TaskTypeBidding, taskID, start, len(notices), err)
	}

	return c.completeTask(ctx, models.TaskTypeBidding, taskID, start, inserted, errors)
}

func buildBiddingNotice(record provider.BiddingRecord, defaultType, industryID string) models.BiddingNotice {
	noticeType := record.NoticeType
	if noticeType == "" {
		noticeType = defaultType
	}
	source := record.Source
	if source == "" {
		source = provider.DefaultBiddingSource
	}

	return models.BiddingNotice{
		ID:          uuid.NewString(),
		IndustryID:  industryID,
		BidID:       record.ID,
		Title:       truncateTitle(record.Title),
		NoticeType:  noticeType,
		Province:    record.Province,
		City:        record.City,
		PublishTime: parseDateTime(record.PublishTime),
		Source:      source,
		CollectedAt: time.Now().UTC(),
	}
}

// CollectAll runs a news collection and a bidding collection back to back.
// Bidding is skipped, not failed, when the provider credential is absent.
// The combined run succeeds when either half does.
func (c *Collector) CollectAll(ctx context.Context, maxNews, maxBidding int, industryID string) CombinedResult {
	profile := industry.Lookup(industryID, c.logger)

	newsResult := c.CollectNews(ctx, maxNews, industryID)

	var biddingResult Result
	if !c.notices.Configured() {
		c.logger.Info("bidding provider not configured, skipping bidding collection")
		biddingResult = Result{Skipped: "BID_APP_CODE not configured"}
	} else {
		biddingResult = c.CollectBidding(ctx, maxBidding, industryID)
	}

	return CombinedResult{
		Success:  newsResult.Success || biddingResult.Success,
		Industry: profile.Name,
		News:     newsResult,
		Bidding:  biddingResult,
	}
}

func (c *Collector) startTask(ctx context.Context, taskType models.TaskType) (string, error) {
	now := time.Now().UTC()
	task := models.CollectionTask{
		ID:        uuid.NewString(),
		Type:      taskType,
		Status:    models.TaskStatusRunning,
		StartedAt: &now,
	}
	if err := c.tasks.Create(ctx, task); err != nil {
		c.logger.Error("failed to create collection task", "type", taskType, "error", err)
		return "", fmt.Errorf("failed to start %s collection: %w", taskType, err)
	}
	return task.ID, nil
}

func (c *Collector) completeTask(ctx context.Context, taskType models.TaskType, taskID string, start time.Time, collected int, errors []string) Result {
	ledgerMsg := ""
	if len(errors) > 0 {
		capped := errors
		if len(capped) > ledgerErrorCap {
			capped = capped[:ledgerErrorCap]
		}
		ledgerMsg = strings.Join(capped, "; ")
	}

	if err := c.tasks.Finish(ctx, taskID, models.TaskStatusCompleted, collected, ledgerMsg); err != nil {
		c.logger.Error("failed to finalize collection task", "task_id", taskID, "error", err)
	}

	c.metrics.ObserveRun(string(taskType), string(models.TaskStatusCompleted), time.Since(start), collected)
	c.logger.Info("collection completed",
		"task_id", taskID,
		"type", taskType,
		"collected", collected,
		"errors", len(errors),
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)

	if len(errors) > callerErrorCap {
		errors = errors[:callerErrorCap]
	}
	return Result{
		Success:   true,
		TaskID:    taskID,
		Collected: collected,
		Errors:    errors,
	}
}

func (c *Collector) failTask(ctx context.Context, taskType models.TaskType, taskID string, start time.Time, collected int, cause error) Result {
	if err := c.tasks.Finish(ctx, taskID, models.TaskStatusFailed, 0, cause.Error()); err != nil {
		c.logger.Error("failed to finalize collection task", "task_id", taskID, "error", err)
	}

	c.metrics.ObserveRun(string(taskType), string(models.TaskStatusFailed), time.Since(start), 0)
	c.logger.Error("collection failed",
		"task_id", taskID,
		"type", taskType,
		"gathered", collected,
		"error", cause,
	)

	return Result{
		TaskID: taskID,
		Error:  cause.Error(),
	}
}

// pause sleeps the inter-keyword throttle. Returns false when the context
// was cancelled instead.
func (c *Collector) pause(ctx context.Context) bool {
	if c.throttle <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.throttle):
		return true
	}
}

// GetNewsList returns stored news matching the query plus the total count.
func (c *Collector) GetNewsList(ctx context.Context, q models.NewsQuery) ([]models.NewsItem, int, error) {
	return c.news.List(ctx, q)
}

// GetBiddingList returns stored notices matching the query plus the total count.
func (c *Collector) GetBiddingList(ctx context.Context, q models.BiddingQuery) ([]models.BiddingNotice, int, error) {
	return c.bidding.List(ctx, q)
}

// GetNewsStats aggregates news counts, optionally scoped to one industry.
func (c *Collector) GetNewsStats(ctx context.Context, industryID string) (models.NewsStats, error) {
	return c.news.Stats(ctx, industryID)
}

// GetBiddingStats aggregates bidding counts, optionally scoped to one industry.
func (c *Collector) GetBiddingStats(ctx context.Context, industryID string) (models.BiddingStats, error) {
	return c.bidding.Stats(ctx, industryID)
}

// ListTasks returns the most recent ledger entries.
func (c *Collector) ListTasks(ctx context.Context, limit int) ([]models.CollectionTask, error) {
	return c.tasks.List(ctx, limit)
}

// MarkNewsRead flags one news item as read.
func (c *Collector) MarkNewsRead(ctx context.Context, id string) error {
	return c.news.MarkRead(ctx, id)
}

// MarkBiddingRead flags one notice as read.
func (c *Collector) MarkBiddingRead(ctx context.Context, id string) error {
	return c.bidding.MarkRead(ctx, id)
}

// HasData reports whether any item of either type has ever been stored.
// The scheduler uses it to decide whether a bootstrap collection is needed.
func (c *Collector) HasData(ctx context.Context) (bool, error) {
	newsCount, err := c.news.Count(ctx)
	if err != nil {
		return false, err
	}
	if newsCount > 0 {
		return true, nil
	}
	biddingCount, err := c.bidding.Count(ctx)
	if err != nil {
		return false, err
	}
	return biddingCount > 0, nil
}
