// Package scheduler owns the cron-driven and manual triggers for
// collection runs.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sectorpulse/sectorpulse/internal/collector"
)

const (
	dailyJobID   = "daily_collection"
	dailyJobName = "daily industry collection"

	// dailySpec fires the collection every day at noon server time.
	dailySpec = "0 12 * * *"
)

// CollectionRunner is the subset of the collector the scheduler drives.
type CollectionRunner interface {
	CollectAll(ctx context.Context, maxNews, maxBidding int, industryID string) collector.CombinedResult
	HasData(ctx context.Context) (bool, error)
}

// JobInfo describes one registered cron job for the introspection endpoint.
type JobInfo struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Spec    string     `json:"spec"`
	NextRun *time.Time `json:"next_run"`
}

// Scheduler registers the daily collection job and exposes a manual
// trigger. Overlap between a cron firing and a manual trigger is handled
// downstream: the collector serializes runs per content type.
type Scheduler struct {
	runner     CollectionRunner
	logger     *slog.Logger
	maxNews    int
	maxBidding int

	cron *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
	specs   map[string]string
	names   map[string]string
}

// New creates a scheduler with the daily job not yet registered.
func New(runner CollectionRunner, maxNews, maxBidding int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:     runner,
		logger:     logger,
		maxNews:    maxNews,
		maxBidding: maxBidding,
		cron:       cron.New(),
		entries:    make(map[string]cron.EntryID),
		specs:      make(map[string]string),
		names:      make(map[string]string),
	}
}

// Start registers the daily job and starts the cron loop. When the stores
// are empty it also fires a bootstrap collection in the background so a
// fresh deployment has data before the first scheduled run.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.register(dailyJobID, dailyJobName, dailySpec, func() {
		s.runCollection(context.Background(), "cron")
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "job_id", dailyJobID, "spec", dailySpec)

	hasData, err := s.runner.HasData(ctx)
	if err != nil {
		s.logger.Error("failed to check for existing data, skipping bootstrap", "error", err)
		return nil
	}
	if !hasData {
		s.logger.Info("no collected data found, starting bootstrap collection")
		go s.runCollection(context.Background(), "bootstrap")
	}

	return nil
}

// Stop halts the cron loop and waits for any in-flight job to return.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped")
}

// RunNow fires a collection in the background and returns immediately.
func (s *Scheduler) RunNow() {
	go s.runCollection(context.Background(), "manual")
}

// Jobs returns the registered jobs with their next fire time.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]JobInfo, 0, len(s.entries))
	for id, entryID := range s.entries {
		info := JobInfo{
			ID:   id,
			Name: s.names[id],
			Spec: s.specs[id],
		}
		entry := s.cron.Entry(entryID)
		if !entry.Next.IsZero() {
			next := entry.Next
			info.NextRun = &next
		}
		jobs = append(jobs, info)
	}
	return jobs
}

// register adds a cron job, replacing any previous registration under the
// same id.
func (s *Scheduler) register(id, name, spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.entries[id]; exists {
		s.cron.Remove(entryID)
		delete(s.entries, id)
	}

	entryID, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return err
	}
	s.entries[id] = entryID
	s.specs[id] = spec
	s.names[id] = name
	return nil
}

func (s *Scheduler) runCollection(ctx context.Context, trigger string) {
	s.logger.Info("collection triggered", "trigger", trigger)

	result := s.runner.CollectAll(ctx, s.maxNews, s.maxBidding, "")

	s.logger.Info("collection run finished",
		"trigger", trigger,
		"success", result.Success,
		"news_collected", result.News.Collected,
		"bidding_collected", result.Bidding.Collected,
	)
}
