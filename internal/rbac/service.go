package rbac

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/savemo/identity/internal/shared"
)

// ManagementRepository covers assignment lifecycle operations.
type ManagementRepository interface {
	Repository
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Assignment, error)
	CreateAssignment(ctx context.Context, assignment *Assignment) error
	DeleteAssignment(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// Service manages the grant and revoke lifecycle of role assignments.
type Service struct {
	repo     ManagementRepository
	resolver *Resolver
}

// NewService constructs a Service.
func NewService(repo ManagementRepository, resolver *Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// GrantParams describes a new role assignment.
type GrantParams struct {
	UserID    uuid.UUID
	RoleID    uuid.UUID
	ScopeType string
	ScopeID   *uuid.UUID
	StartsAt  *time.Time
	EndsAt    *time.Time
}

// Grant assigns a role to a user, validating the scope and window before
// persisting, then drops the user's cached permission set.
func (s *Service) Grant(ctx context.Context, params GrantParams) (*Assignment, error) {
	switch params.ScopeType {
	case "":
		params.ScopeType = ScopePlatform
	case ScopePlatform, ScopeGroup:
	default:
		return nil, fmt.Errorf("%w: unknown scope type %q", shared.ErrValidation, params.ScopeType)
	}
	if params.ScopeType == ScopeGroup && params.ScopeID == nil {
		return nil, fmt.Errorf("%w: group scope requires a scope id", shared.ErrValidation)
	}
	if params.ScopeType == ScopePlatform && params.ScopeID != nil {
		return nil, fmt.Errorf("%w: platform scope does not take a scope id", shared.ErrValidation)
	}
	if params.StartsAt != nil && params.EndsAt != nil && params.EndsAt.Before(*params.StartsAt) {
		return nil, fmt.Errorf("%w: assignment window ends before it starts", shared.ErrValidation)
	}

	assignment := &Assignment{
		ID:        uuid.New(),
		UserID:    params.UserID,
		RoleID:    params.RoleID,
		ScopeType: params.ScopeType,
		ScopeID:   params.ScopeID,
		StartsAt:  params.StartsAt,
		EndsAt:    params.EndsAt,
	}
	if err := s.repo.CreateAssignment(ctx, assignment); err != nil {
		return nil, err
	}
	_ = s.resolver.Invalidate(ctx, params.UserID)
	return assignment, nil
}

// Revoke deletes an assignment and drops the affected user's cached set.
func (s *Service) Revoke(ctx context.Context, assignmentID uuid.UUID) error {
	userID, err := s.repo.DeleteAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	_ = s.resolver.Invalidate(ctx, userID)
	return nil
}

// ListUserAssignments returns every assignment for the user.
func (s *Service) ListUserAssignments(ctx context.Context, userID uuid.UUID) ([]Assignment, error) {
	return s.repo.ListByUser(ctx, userID)
}
