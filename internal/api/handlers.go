package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/sectorpulse/sectorpulse/internal/collector"
	"github.com/sectorpulse/sectorpulse/internal/database"
	"github.com/sectorpulse/sectorpulse/internal/industry"
	"github.com/sectorpulse/sectorpulse/internal/models"
	"github.com/sectorpulse/sectorpulse/internal/scheduler"
)

const defaultTaskListLimit = 20

type Handler struct {
	collector *collector.Collector
	scheduler *scheduler.Scheduler
	db        *sql.DB
	logger    *slog.Logger
}

func NewHandler(c *collector.Collector, s *scheduler.Scheduler, db *sql.DB, logger *slog.Logger) *Handler {
	return &Handler{
		collector: c,
		scheduler: s,
		db:        db,
		logger:    logger,
	}
}

type collectRequest struct {
	Type       string `json:"type"`
	MaxNews    int    `json:"max_news"`
	MaxBidding int    `json:"max_bidding"`
	IndustryID string `json:"industry_id"`
}

// CollectHandler handles POST /api/collect. It runs the requested
// collection synchronously and returns the run result.
func (h *Handler) CollectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// An empty or absent body means "collect everything with defaults".
	var req collectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.MaxNews <= 0 {
		req.MaxNews = 20
	}
	if req.MaxBidding <= 0 {
		req.MaxBidding = 20
	}

	ctx := r.Context()
	var payload interface{}
	switch req.Type {
	case "news":
		payload = h.collector.CollectNews(ctx, req.MaxNews, req.IndustryID)
	case "bidding":
		payload = h.collector.CollectBidding(ctx, req.MaxBidding, req.IndustryID)
	case "", "all":
		payload = h.collector.CollectAll(ctx, req.MaxNews, req.MaxBidding, req.IndustryID)
	default:
		http.Error(w, "type must be one of news, bidding, all", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// TriggerHandler handles POST /api/scheduler/run. The collection runs in
// the background; the response only acknowledges the trigger.
func (h *Handler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.scheduler.RunNow()
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "collection triggered"})
}

// JobsHandler handles GET /api/scheduler/jobs
func (h *Handler) JobsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": h.scheduler.Jobs()})
}

// TasksHandler handles GET /api/collect/tasks
func (h *Handler) TasksHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := parseIntParam(r, "limit", defaultTaskListLimit)
	tasks, err := h.collector.ListTasks(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list collection tasks", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// NewsListHandler handles GET /api/news
func (h *Handler) NewsListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := models.NewsQuery{
		IndustryID: r.URL.Query().Get("industry_id"),
		Limit:      parseIntParam(r, "limit", 20),
		Offset:     parseIntParam(r, "offset", 0),
	}
	if category := r.URL.Query().Get("category"); category != "" {
		q.Category = models.NewsCategory(category)
		if !models.ValidCategory(q.Category) {
			http.Error(w, "unknown category", http.StatusBadRequest)
			return
		}
	}

	items, total, err := h.collector.GetNewsList(r.Context(), q)
	if err != nil {
		h.logger.Error("failed to list news", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
	})
}

// NewsStatsHandler handles GET /api/news/stats
func (h *Handler) NewsStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.collector.GetNewsStats(r.Context(), r.URL.Query().Get("industry_id"))
	if err != nil {
		h.logger.Error("failed to get news stats", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// NewsReadHandler handles POST /api/news/:id/read
func (h *Handler) NewsReadHandler(w http.ResponseWriter, r *http.Request) {
	h.markRead(w, r, h.collector.MarkNewsRead)
}

// BiddingListHandler handles GET /api/bidding
func (h *Handler) BiddingListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := models.BiddingQuery{
		IndustryID: r.URL.Query().Get("industry_id"),
		NoticeType: r.URL.Query().Get("notice_type"),
		Province:   r.URL.Query().Get("province"),
		Limit:      parseIntParam(r, "limit", 20),
		Offset:     parseIntParam(r, "offset", 0),
	}

	notices, total, err := h.collector.GetBiddingList(r.Context(), q)
	if err != nil {
		h.logger.Error("failed to list bidding notices", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":  notices,
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
	})
}

// BiddingStatsHandler handles GET /api/bidding/stats
func (h *Handler) BiddingStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.collector.GetBiddingStats(r.Context(), r.URL.Query().Get("industry_id"))
	if err != nil {
		h.logger.Error("failed to get bidding stats", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// BiddingReadHandler handles POST /api/bidding/:id/read
func (h *Handler) BiddingReadHandler(w http.ResponseWriter, r *http.Request) {
	h.markRead(w, r, h.collector.MarkBiddingRead)
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request, mark func(ctx context.Context, id string) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Path shape: /api/{news,bidding}/:id/read
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 || parts[3] != "read" || parts[2] == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	id := parts[2]

	if err := mark(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to mark item read", "id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "read"})
}

// IndustriesHandler handles GET /api/industries
func (h *Handler) IndustriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	profiles := industry.All()
	type industryInfo struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	out := make([]industryInfo, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, industryInfo{
			ID:          string(p.ID),
			Name:        p.Name,
			Description: p.Description,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"industries": out})
}

// HealthHandler handles GET /healthz
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := database.HealthCheck(r.Context(), h.db); err != nil {
		h.logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
