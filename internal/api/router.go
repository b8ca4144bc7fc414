package api

import (
	"database/sql"
	"net/http"
	"strings"

	"log/slog"

	"github.com/sectorpulse/sectorpulse/internal/collector"
	"github.com/sectorpulse/sectorpulse/internal/scheduler"
)

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, c *collector.Collector, s *scheduler.Scheduler, db *sql.DB, logger *slog.Logger) {
	handler := NewHandler(c, s, db, logger)

	mux.HandleFunc("/api/collect", handler.CollectHandler)
	mux.HandleFunc("/api/collect/tasks", handler.TasksHandler)

	mux.HandleFunc("/api/scheduler/run", handler.TriggerHandler)
	mux.HandleFunc("/api/scheduler/jobs", handler.JobsHandler)

	mux.HandleFunc("/api/news", handler.NewsListHandler)
	mux.HandleFunc("/api/news/stats", handler.NewsStatsHandler)
	mux.HandleFunc("/api/news/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/read") {
			handler.NewsReadHandler(w, r)
			return
		}
		http.Error(w, "Not found", http.StatusNotFound)
	})

	mux.HandleFunc("/api/bidding", handler.BiddingListHandler)
	mux.HandleFunc("/api/bidding/stats", handler.BiddingStatsHandler)
	mux.HandleFunc("/api/bidding/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/read") {
			handler.BiddingReadHandler(w, r)
			return
		}
		http.Error(w, "Not found", http.StatusNotFound)
	})

	mux.HandleFunc("/api/industries", handler.IndustriesHandler)

	mux.HandleFunc("/healthz", handler.HealthHandler)
}
