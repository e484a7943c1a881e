package roles

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/savemo/identity/internal/acl"
	"github.com/savemo/identity/internal/shared"
)

// Service handles role business logic. Permission lists are validated
// against the closed catalog at write time; unknown codes are rejected,
// never stored.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get fetches a single role.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Role, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a new role with a validated permission list.
func (s *Service) Create(ctx context.Context, name, description string, permissions []string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	normalized, err := normalizeCodes(permissions)
	if err != nil {
		return nil, err
	}
	role := &Role{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Permissions: normalized,
	}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// Update rewrites an existing role. System roles are immutable through
// this path.
func (s *Service) Update(ctx context.Context, id uuid.UUID, name, description string, permissions []string) (*Role, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, fmt.Errorf("%w: system roles cannot be modified", shared.ErrForbidden)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	normalized, err := normalizeCodes(permissions)
	if err != nil {
		return nil, err
	}
	role.Name = name
	role.Description = strings.TrimSpace(description)
	role.Permissions = normalized
	if err := s.repo.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// Delete removes a role unless it is system-reserved.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return fmt.Errorf("%w: system roles cannot be deleted", shared.ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}

func normalizeCodes(codes []string) ([]string, error) {
	unique := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if !acl.Valid(code) {
			return nil, fmt.Errorf("%w: unknown permission code %q", shared.ErrValidation, code)
		}
		unique[code] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for code := range unique {
		normalized = append(normalized, code)
	}
	sort.Strings(normalized)
	return normalized, nil
}
