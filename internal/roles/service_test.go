package roles

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/savemo/identity/internal/acl"
	"github.com/savemo/identity/internal/shared"
	_ "github.com/savemo/identity/testing"
)

type memoryRoleRepo struct {
	roles map[uuid.UUID]*Role
}

func newMemoryRoleRepo() *memoryRoleRepo {
	return &memoryRoleRepo{roles: make(map[uuid.UUID]*Role)}
}

func (r *memoryRoleRepo) List(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (r *memoryRoleRepo) Get(ctx context.Context, id uuid.UUID) (*Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *role
	return &copied, nil
}

func (r *memoryRoleRepo) Create(ctx context.Context, role *Role) error {
	for _, existing := range r.roles {
		if existing.Name == role.Name {
			return shared.ErrDuplicate
		}
	}
	role.CreatedAt = time.Now().UTC()
	role.UpdatedAt = role.CreatedAt
	copied := *role
	r.roles[role.ID] = &copied
	return nil
}

func (r *memoryRoleRepo) Update(ctx context.Context, role *Role) error {
	if _, ok := r.roles[role.ID]; !ok {
		return shared.ErrNotFound
	}
	copied := *role
	r.roles[role.ID] = &copied
	return nil
}

func (r *memoryRoleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.roles[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.roles, id)
	return nil
}

func TestCreateRoleValidatesPermissionCodes(t *testing.T) {
	svc := NewService(newMemoryRoleRepo())

	role, err := svc.Create(context.Background(), "treasurer", "manages wallets",
		[]string{acl.PermWalletView, acl.PermWalletDebit, acl.PermWalletView})
	require.NoError(t, err)
	require.Equal(t, []string{acl.PermWalletDebit, acl.PermWalletView}, role.Permissions)

	_, err = svc.Create(context.Background(), "bogus", "", []string{"wallet.burn"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRoleRejectsDuplicateName(t *testing.T) {
	svc := NewService(newMemoryRoleRepo())

	_, err := svc.Create(context.Background(), "admin", "", []string{acl.PermissionAll})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "admin", "", nil)
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateRoleRequiresName(t *testing.T) {
	svc := NewService(newMemoryRoleRepo())

	_, err := svc.Create(context.Background(), "   ", "", nil)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateRoleRejectsUnknownCode(t *testing.T) {
	svc := NewService(newMemoryRoleRepo())

	role, err := svc.Create(context.Background(), "viewer", "", []string{acl.PermGroupView})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), role.ID, "viewer", "", []string{"group.rule"})
	require.ErrorIs(t, err, shared.ErrValidation)

	updated, err := svc.Update(context.Background(), role.ID, "viewer", "read only", []string{acl.PermGroupView, acl.PermWalletView})
	require.NoError(t, err)
	require.Equal(t, []string{acl.PermGroupView, acl.PermWalletView}, updated.Permissions)
}

func TestSystemRolesAreImmutable(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo)

	system := &Role{ID: uuid.New(), Name: "admin", Permissions: []string{acl.PermissionAll}, IsSystem: true}
	repo.roles[system.ID] = system

	_, err := svc.Update(context.Background(), system.ID, "admin", "", nil)
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.ErrorIs(t, svc.Delete(context.Background(), system.ID), shared.ErrForbidden)
}

func TestDeleteRole(t *testing.T) {
	svc := NewService(newMemoryRoleRepo())

	role, err := svc.Create(context.Background(), "temp", "", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), role.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), role.ID), shared.ErrNotFound)
}
