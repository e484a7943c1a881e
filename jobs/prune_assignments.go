package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/savemo/identity/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AssignmentPruner deletes assignments whose validity window closed before
// the cutoff and returns the affected user IDs so caches can be dropped.
type AssignmentPruner interface {
	DeleteExpired(ctx context.Context, before time.Time) ([]uuid.UUID, error)
}

// PermissionInvalidator drops a user's cached permission set.
type PermissionInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// PruneAssignmentsJob removes expired role assignments and invalidates the
// permission cache for every user that lost one.
type PruneAssignmentsJob struct {
	Repo     AssignmentPruner
	Resolver PermissionInvalidator
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewPruneAssignmentsJob wires dependencies for the prune handler.
func NewPruneAssignmentsJob(repo AssignmentPruner, resolver PermissionInvalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) *PruneAssignmentsJob {
	return &PruneAssignmentsJob{
		Repo:     repo,
		Resolver: resolver,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes assignment prune tasks.
func (j *PruneAssignmentsJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Repo == nil {
		return errors.New("prune assignments: handler not configured")
	}
	var payload AssignmentsPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskAssignmentsPrune)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	now := j.now()
	userIDs, err := j.Repo.DeleteExpired(ctx, now)
	if err != nil {
		resultErr = err
		logger.Error("delete expired assignments", slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddPruned(TaskAssignmentsPrune, int64(len(userIDs)))
	if len(userIDs) == 0 {
		logger.Info("no expired assignments")
		return nil
	}

	for _, userID := range userIDs {
		if j.Resolver == nil {
			break
		}
		if err := j.Resolver.Invalidate(ctx, userID); err != nil {
			// The cached set still expires on its own TTL; log and move on.
			logger.Warn("invalidate permission cache", slog.String("user_id", userID.String()), slog.Any("error", err))
		}
	}

	logger.Info("pruned expired assignments", slog.Int("users", len(userIDs)))
	return nil
}

func (j *PruneAssignmentsJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *PruneAssignmentsJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAssignmentsPrune))
	}
	return slog.Default().With(slog.String("job", TaskAssignmentsPrune))
}

func (j *PruneAssignmentsJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
