package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sectorpulse/sectorpulse/internal/collector"
)

type fakeRunner struct {
	mu      sync.Mutex
	runs    int
	hasData bool
	done    chan struct{}
}

func (f *fakeRunner) CollectAll(_ context.Context, _, _ int, _ string) collector.CombinedResult {
	f.mu.Lock()
	f.runs++
	f.mu.Unlock()
	if f.done != nil {
		f.done <- struct{}{}
	}
	return collector.CombinedResult{Success: true}
}

func (f *fakeRunner) HasData(_ context.Context) (bool, error) {
	return f.hasData, nil
}

func (f *fakeRunner) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

func TestStartRegistersDailyJob(t *testing.T) {
	runner := &fakeRunner{hasData: true}
	s := New(runner, 20, 20, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer s.Stop()

	jobs := s.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	job := jobs[0]
	if job.ID != dailyJobID {
		t.Errorf("job id = %q, want %q", job.ID, dailyJobID)
	}
	if job.Spec != dailySpec {
		t.Errorf("job spec = %q, want %q", job.Spec, dailySpec)
	}
	if job.NextRun == nil {
		t.Fatal("expected next run to be scheduled")
	}
	if job.NextRun.Hour() != 12 || job.NextRun.Minute() != 0 {
		t.Errorf("next run = %v, want a 12:00 firing", job.NextRun)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	runner := &fakeRunner{hasData: true}
	s := New(runner, 20, 20, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("first Start returned error: %v", err)
	}
	defer s.Stop()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}

	if jobs := s.Jobs(); len(jobs) != 1 {
		t.Fatalf("expected 1 job after re-registration, got %d", len(jobs))
	}
}

func TestBootstrapCollectionWhenEmpty(t *testing.T) {
	runner := &fakeRunner{hasData: false, done: make(chan struct{}, 1)}
	s := New(runner, 20, 20, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer s.Stop()

	select {
	case <-runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("bootstrap collection did not run")
	}
	if runner.runCount() != 1 {
		t.Errorf("runs = %d, want 1", runner.runCount())
	}
}

func TestNoBootstrapWhenDataExists(t *testing.T) {
	runner := &fakeRunner{hasData: true, done: make(chan struct{}, 1)}
	s := New(runner, 20, 20, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer s.Stop()

	select {
	case <-runner.done:
		t.Fatal("bootstrap ran despite existing data")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRunNowTriggersCollection(t *testing.T) {
	runner := &fakeRunner{hasData: true, done: make(chan struct{}, 1)}
	s := New(runner, 20, 20, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer s.Stop()

	s.RunNow()

	select {
	case <-runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("manual trigger did not run")
	}
}
