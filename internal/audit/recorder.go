// Package audit persists a trail of authentication events.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LoginEvent captures one login attempt. UserID is nil when the email did
// not match an account; the submitted email is kept either way so repeated
// probing is visible.
type LoginEvent struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	Email     string
	IP        string
	UserAgent string
	Success   bool
	CreatedAt time.Time
}

// RepositoryPort defines persistence for login events.
type RepositoryPort interface {
	Insert(ctx context.Context, event *LoginEvent) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a login event.
func (r *Repository) Insert(ctx context.Context, event *LoginEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO login_events (id, user_id, email, ip, user_agent, success, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.UserID, event.Email,
		pgtype.Text{String: event.IP, Valid: event.IP != ""},
		pgtype.Text{String: event.UserAgent, Valid: event.UserAgent != ""},
		event.Success, event.CreatedAt,
	)
	return err
}

// DeleteBefore removes events older than the cutoff and reports how many
// rows went away. Run periodically by the worker.
func (r *Repository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM login_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ RepositoryPort = (*Repository)(nil)

// Recorder writes login events through a RepositoryPort. A nil Recorder
// drops events silently.
type Recorder struct {
	repo RepositoryPort
}

// NewRecorder constructs a Recorder.
func NewRecorder(repo RepositoryPort) *Recorder {
	return &Recorder{repo: repo}
}

// RecordLogin persists one login attempt.
func (r *Recorder) RecordLogin(ctx context.Context, userID *uuid.UUID, email, ip, userAgent string, success bool) error {
	if r == nil || r.repo == nil {
		return nil
	}
	return r.repo.Insert(ctx, &LoginEvent{
		ID:        uuid.New(),
		UserID:    userID,
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Success:   success,
		CreatedAt: time.Now().UTC(),
	})
}
