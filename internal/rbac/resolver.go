// Package rbac resolves a user's effective permission set from time-scoped
// role assignments and enforces permission checks on HTTP routes.
package rbac

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/savemo/identity/internal/acl"
)

// Repository loads role assignments for the resolver.
type Repository interface {
	// FindPlatformAssignments returns every platform-scoped assignment for
	// the user, active or not, with the role eagerly loaded.
	FindPlatformAssignments(ctx context.Context, userID uuid.UUID) ([]Assignment, error)
}

// Resolver computes effective permission sets. It holds no mutable state of
// its own and is safe for concurrent use; concurrent resolutions for the
// same user are collapsed into a single repository read.
type Resolver struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
	now   func() time.Time
}

// NewResolver constructs a Resolver. cache may be nil.
func NewResolver(repo Repository, cache *Cache) *Resolver {
	return &Resolver{repo: repo, cache: cache, now: time.Now}
}

// WithClock overrides the time source. Used by tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// ResolvePermissions returns the union of permission codes granted by the
// user's platform-scoped assignments active now. Cached results may lag a
// grant, revocation or window boundary by at most the cache TTL.
func (r *Resolver) ResolvePermissions(ctx context.Context, userID uuid.UUID) (map[string]struct{}, error) {
	if perms, ok := r.cache.Get(ctx, userID); ok {
		return acl.Set(perms...), nil
	}
	result, err, _ := r.group.Do(userID.String(), func() (any, error) {
		perms, err := r.resolveAt(ctx, userID, r.now().UTC())
		if err != nil {
			return nil, err
		}
		_ = r.cache.Set(ctx, userID, perms)
		return perms, nil
	})
	if err != nil {
		return nil, err
	}
	return acl.Set(result.([]string)...), nil
}

// ResolvePermissionsAt computes the permission set as of an explicit
// instant, bypassing the cache.
func (r *Resolver) ResolvePermissionsAt(ctx context.Context, userID uuid.UUID, at time.Time) (map[string]struct{}, error) {
	perms, err := r.resolveAt(ctx, userID, at)
	if err != nil {
		return nil, err
	}
	return acl.Set(perms...), nil
}

// Invalidate drops any cached set for the user.
func (r *Resolver) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return r.cache.Invalidate(ctx, userID)
}

func (r *Resolver) resolveAt(ctx context.Context, userID uuid.UUID, at time.Time) ([]string, error) {
	assignments, err := r.repo.FindPlatformAssignments(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, assignment := range assignments {
		if !assignment.ActiveAt(at) {
			continue
		}
		if assignment.Role == nil {
			continue
		}
		for _, code := range assignment.Role.Permissions {
			set[code] = struct{}{}
		}
	}
	perms := make([]string, 0, len(set))
	for code := range set {
		perms = append(perms, code)
	}
	return perms, nil
}
