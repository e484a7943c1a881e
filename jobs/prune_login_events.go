package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/savemo/identity/internal/jobs"
)

// DefaultLoginEventRetentionDays bounds how long login audit rows are kept
// when the task payload does not say otherwise.
const DefaultLoginEventRetentionDays = 90

// LoginEventPruner trims login events older than the cutoff.
type LoginEventPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneLoginEventsJob enforces the login audit retention window.
type PruneLoginEventsJob struct {
	Repo    LoginEventPruner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewPruneLoginEventsJob wires dependencies for the audit prune handler.
func NewPruneLoginEventsJob(repo LoginEventPruner, logger *slog.Logger, metrics *jobmetrics.Metrics) *PruneLoginEventsJob {
	return &PruneLoginEventsJob{
		Repo:    repo,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes login event prune tasks.
func (j *PruneLoginEventsJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Repo == nil {
		return errors.New("prune login events: handler not configured")
	}
	var payload LoginEventsPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := payload.RetentionDays
	if retention <= 0 {
		retention = DefaultLoginEventRetentionDays
	}

	tracker := j.metrics().Track(TaskLoginEventsPrune)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	cutoff := j.now().AddDate(0, 0, -retention)
	deleted, err := j.Repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		resultErr = err
		logger.Error("delete login events", slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddPruned(TaskLoginEventsPrune, deleted)
	logger.Info("pruned login events", slog.Int64("deleted", deleted), slog.Time("cutoff", cutoff))
	return nil
}

func (j *PruneLoginEventsJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *PruneLoginEventsJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLoginEventsPrune))
	}
	return slog.Default().With(slog.String("job", TaskLoginEventsPrune))
}

func (j *PruneLoginEventsJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
