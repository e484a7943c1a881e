package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAssignmentsPrune removes role assignments whose validity window closed.
	TaskAssignmentsPrune = "rbac:prune_assignments"
	// TaskLoginEventsPrune trims old login audit events.
	TaskLoginEventsPrune = "audit:prune_login_events"
)

// AssignmentsPrunePayload carries scheduling metadata for the prune run.
type AssignmentsPrunePayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewAssignmentsPruneTask constructs an Asynq task for the assignment prune.
func NewAssignmentsPruneTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(AssignmentsPrunePayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAssignmentsPrune, body, asynq.Queue(QueueDefault)), nil
}

// LoginEventsPrunePayload configures retention for login events. A zero
// RetentionDays falls back to the worker default.
type LoginEventsPrunePayload struct {
	ScheduledFor  time.Time `json:"scheduled_for"`
	RetentionDays int       `json:"retention_days,omitempty"`
}

// NewLoginEventsPruneTask constructs an Asynq task for the audit prune.
func NewLoginEventsPruneTask(at time.Time, retentionDays int) (*asynq.Task, error) {
	body, err := json.Marshal(LoginEventsPrunePayload{ScheduledFor: at, RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLoginEventsPrune, body, asynq.Queue(QueueDefault)), nil
}
