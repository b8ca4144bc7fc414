package models

import "time"

// TaskType identifies which content type a collection run covers.
type TaskType string

const (
	TaskTypeNews    TaskType = "news"
	TaskTypeBidding TaskType = "bidding"
)

// TaskStatus is the lifecycle state of a collection run.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// CanTransitionTo reports whether a status change is legal. Transitions only
// move forward: pending -> running -> {completed, failed}.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	switch s {
	case TaskStatusPending:
		return next == TaskStatusRunning
	case TaskStatusRunning:
		return next == TaskStatusCompleted || next == TaskStatusFailed
	}
	return false
}

// Terminal reports whether the status is an end state.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// CollectionTask is the ledger entry for one collection run.
// CompletedAt is set if and only if the status is terminal, and StartedAt
// always precedes it.
type CollectionTask struct {
	ID             string     `json:"id"`
	Type           TaskType   `json:"type"`
	Status         TaskStatus `json:"status"`
	TotalCollected int        `json:"total_collected"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedAt      time.Time  `json:"created_at"`
}
