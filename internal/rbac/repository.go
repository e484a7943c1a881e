package rbac

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/savemo/identity/internal/shared"
)

// PGRepository provides PostgreSQL backed persistence for role assignments.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const assignmentColumns = `a.id, a.user_id, a.role_id, a.scope_type, a.scope_id, a.starts_at, a.ends_at, a.created_at,
	r.id, r.name, r.description, r.permissions, r.is_system, r.created_at, r.updated_at`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var assignment Assignment
	var role Role
	err := row.Scan(
		&assignment.ID,
		&assignment.UserID,
		&assignment.RoleID,
		&assignment.ScopeType,
		&assignment.ScopeID,
		&assignment.StartsAt,
		&assignment.EndsAt,
		&assignment.CreatedAt,
		&role.ID,
		&role.Name,
		&role.Description,
		&role.Permissions,
		&role.IsSystem,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		return Assignment{}, err
	}
	assignment.Role = &role
	return assignment, nil
}

func (r *PGRepository) queryAssignments(ctx context.Context, sql string, args ...any) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// FindPlatformAssignments returns the user's platform-scoped assignments
// with roles joined in.
func (r *PGRepository) FindPlatformAssignments(ctx context.Context, userID uuid.UUID) ([]Assignment, error) {
	return r.queryAssignments(ctx,
		`SELECT `+assignmentColumns+`
		 FROM user_role_assignments a
		 JOIN roles r ON r.id = a.role_id
		 WHERE a.user_id = $1 AND a.scope_type = $2`,
		userID, ScopePlatform,
	)
}

// ListByUser returns every assignment for the user regardless of scope.
func (r *PGRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Assignment, error) {
	return r.queryAssignments(ctx,
		`SELECT `+assignmentColumns+`
		 FROM user_role_assignments a
		 JOIN roles r ON r.id = a.role_id
		 WHERE a.user_id = $1
		 ORDER BY a.created_at`,
		userID,
	)
}

// CreateAssignment persists a new grant. Missing user or role surfaces as
// shared.ErrNotFound through the foreign keys.
func (r *PGRepository) CreateAssignment(ctx context.Context, assignment *Assignment) error {
	assignment.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_role_assignments (id, user_id, role_id, scope_type, scope_id, starts_at, ends_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		assignment.ID, assignment.UserID, assignment.RoleID, assignment.ScopeType,
		assignment.ScopeID, assignment.StartsAt, assignment.EndsAt, assignment.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return shared.ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteAssignment revokes a grant and returns the affected user so the
// caller can invalidate the cached permission set.
func (r *PGRepository) DeleteAssignment(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`DELETE FROM user_role_assignments WHERE id = $1 RETURNING user_id`, id,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, shared.ErrNotFound
		}
		return uuid.Nil, err
	}
	return userID, nil
}

// DeleteExpired removes assignments whose window closed before the cutoff
// and returns the affected users. Run periodically by the worker.
func (r *PGRepository) DeleteExpired(ctx context.Context, before time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`DELETE FROM user_role_assignments WHERE ends_at IS NOT NULL AND ends_at < $1 RETURNING user_id`,
		before,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []uuid.UUID
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		users = append(users, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

var _ Repository = (*PGRepository)(nil)
