package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	_ "github.com/savemo/identity/testing"
)

type fakePruner struct {
	cutoff  time.Time
	userIDs []uuid.UUID
}

func (f *fakePruner) DeleteExpired(ctx context.Context, before time.Time) ([]uuid.UUID, error) {
	f.cutoff = before
	return f.userIDs, nil
}

type fakeInvalidator struct {
	invalidated []uuid.UUID
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, userID uuid.UUID) error {
	f.invalidated = append(f.invalidated, userID)
	return nil
}

type fakeEventPruner struct {
	cutoff  time.Time
	deleted int64
}

func (f *fakeEventPruner) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, nil
}

func TestPruneAssignmentsInvalidatesAffectedUsers(t *testing.T) {
	affected := []uuid.UUID{uuid.New(), uuid.New()}
	repo := &fakePruner{userIDs: affected}
	invalidator := &fakeInvalidator{}

	job := NewPruneAssignmentsJob(repo, invalidator, nil, nil)
	now := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return now }

	task, err := NewAssignmentsPruneTask(now)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Equal(t, now, repo.cutoff)
	require.Equal(t, affected, invalidator.invalidated)
}

func TestPruneAssignmentsSkipsRetryOnBadPayload(t *testing.T) {
	job := NewPruneAssignmentsJob(&fakePruner{}, nil, nil, nil)
	task := asynq.NewTask(TaskAssignmentsPrune, []byte("not json"))
	require.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestPruneLoginEventsAppliesRetention(t *testing.T) {
	repo := &fakeEventPruner{deleted: 12}
	job := NewPruneLoginEventsJob(repo, nil, nil)
	now := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return now }

	task, err := NewLoginEventsPruneTask(now, 30)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, now.AddDate(0, 0, -30), repo.cutoff)

	task, err = NewLoginEventsPruneTask(now, 0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, now.AddDate(0, 0, -DefaultLoginEventRetentionDays), repo.cutoff)
}
