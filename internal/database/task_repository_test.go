package database

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/sectorpulse/sectorpulse/internal/models"
)

func TestTaskCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewPostgresTaskRepository(db)

	now := time.Now().UTC()
	task := models.CollectionTask{
		ID:        "task-1",
		Type:      models.TaskTypeNews,
		Status:    models.TaskStatusRunning,
		StartedAt: &now,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO collection_tasks")).
		WithArgs("task-1", "news", "running", 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTaskFinishRejectsInvalidTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewPostgresTaskRepository(db)

	// Running tasks can only move to a terminal state.
	if err := repo.Finish(context.Background(), "task-1", models.TaskStatusPending, 0, ""); err == nil {
		t.Fatal("expected error for transition to pending")
	}
	if err := repo.Finish(context.Background(), "task-1", models.TaskStatusRunning, 0, ""); err == nil {
		t.Fatal("expected error for transition to running")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("database was touched for an invalid transition: %v", err)
	}
}

func TestTaskFinishCompleted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewPostgresTaskRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE collection_tasks")).
		WithArgs("task-1", "completed", 7, "search failed", sqlmock.AnyArg(), "running").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Finish(context.Background(), "task-1", models.TaskStatusCompleted, 7, "search failed"); err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTaskFinishNotRunning(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewPostgresTaskRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE collection_tasks")).
		WithArgs("task-1", "failed", 0, "boom", sqlmock.AnyArg(), "running").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Finish(context.Background(), "task-1", models.TaskStatusFailed, 0, "boom")
	if err == nil || !strings.Contains(err.Error(), "not running") {
		t.Fatalf("expected not-running error, got %v", err)
	}
}

func TestTaskList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewPostgresTaskRepository(db)

	started := time.Now().Add(-time.Minute)
	completed := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "task_type", "status", "total_collected", "error_message", "started_at", "completed_at", "created_at",
	}).
		AddRow("task-2", "bidding", "completed", 4, nil, started, completed, started).
		AddRow("task-1", "news", "failed", 0, "connection lost", started, completed, started)

	mock.ExpectQuery(regexp.QuoteMeta("FROM collection_tasks")).
		WithArgs(10).
		WillReturnRows(rows)

	tasks, err := repo.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].Type != models.TaskTypeBidding || tasks[0].TotalCollected != 4 {
		t.Errorf("unexpected first task: %+v", tasks[0])
	}
	if tasks[1].ErrorMessage != "connection lost" {
		t.Errorf("error message = %q", tasks[1].ErrorMessage)
	}
	if tasks[0].CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}
