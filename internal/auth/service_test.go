package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/savemo/identity/internal/credential"
	"github.com/savemo/identity/internal/shared"
	"github.com/savemo/identity/internal/token"
	"github.com/savemo/identity/internal/users"
	_ "github.com/savemo/identity/testing"
)

type memoryUserRepo struct {
	byID    map[uuid.UUID]*users.User
	byEmail map[string]*users.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{
		byID:    make(map[uuid.UUID]*users.User),
		byEmail: make(map[string]*users.User),
	}
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memoryUserRepo) Create(ctx context.Context, user *users.User) error {
	if _, ok := r.byEmail[user.Email]; ok {
		return shared.ErrDuplicate
	}
	copied := *user
	r.byID[user.ID] = &copied
	r.byEmail[user.Email] = &copied
	return nil
}

func (r *memoryUserRepo) List(ctx context.Context) ([]users.User, error) {
	out := make([]users.User, 0, len(r.byID))
	for _, user := range r.byID {
		out = append(out, *user)
	}
	return out, nil
}

func (r *memoryUserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	user, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	user.IsActive = active
	return nil
}

func newAuthService(t *testing.T) (*Service, *memoryUserRepo, *token.Service) {
	t.Helper()
	tokens, err := token.NewService(token.Config{Secret: []byte("test-secret")})
	require.NoError(t, err)
	repo := newMemoryUserRepo()
	return NewService(repo, credential.NewHasher(4), tokens), repo, tokens
}

func seedUser(t *testing.T, svc *Service, repo *memoryUserRepo, email, password string, active bool) *users.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterParams{
		Email:    email,
		FullName: "Test User",
		Password: password,
	})
	require.NoError(t, err)
	if !active {
		require.NoError(t, repo.SetActive(context.Background(), user.ID, false))
	}
	return user
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, repo, tokens := newAuthService(t)
	seeded := seedUser(t, svc, repo, "user@test.local", "correctpass", true)

	user, pair, err := svc.Login(context.Background(), "user@test.local", "correctpass")
	require.NoError(t, err)
	require.Equal(t, seeded.ID, user.ID)
	require.Equal(t, "bearer", pair.TokenType)

	claims, err := tokens.DecodeAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, seeded.ID.String(), claims.Subject)
}

func TestLoginDoesNotDistinguishFailureCauses(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	seedUser(t, svc, repo, "user@test.local", "correctpass", true)
	seedUser(t, svc, repo, "inactive@test.local", "correctpass", false)

	_, _, wrongPassword := svc.Login(context.Background(), "user@test.local", "wrongpass")
	_, _, unknownEmail := svc.Login(context.Background(), "nobody@test.local", "correctpass")
	_, _, inactive := svc.Login(context.Background(), "inactive@test.local", "correctpass")

	require.ErrorIs(t, wrongPassword, shared.ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, shared.ErrInvalidCredentials)
	require.ErrorIs(t, inactive, shared.ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	seedUser(t, svc, repo, "user@test.local", "correctpass", true)

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "user@test.local",
		FullName: "Again",
		Password: "otherpass",
	})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestRefreshRotatesPair(t *testing.T) {
	svc, repo, tokens := newAuthService(t)
	seeded := seedUser(t, svc, repo, "user@test.local", "correctpass", true)

	_, pair, err := svc.Login(context.Background(), "user@test.local", "correctpass")
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	claims, err := tokens.DecodeAccess(rotated.AccessToken)
	require.NoError(t, err)
	require.Equal(t, seeded.ID.String(), claims.Subject)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	seedUser(t, svc, repo, "user@test.local", "correctpass", true)

	_, pair, err := svc.Login(context.Background(), "user@test.local", "correctpass")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	seeded := seedUser(t, svc, repo, "user@test.local", "correctpass", true)

	_, pair, err := svc.Login(context.Background(), "user@test.local", "correctpass")
	require.NoError(t, err)

	require.NoError(t, repo.SetActive(context.Background(), seeded.ID, false))
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestAuthenticateReturnsLiveUser(t *testing.T) {
	svc, repo, tokens := newAuthService(t)
	seeded := seedUser(t, svc, repo, "user@test.local", "correctpass", true)

	access, err := tokens.IssueAccess(seeded.ID)
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), access)
	require.NoError(t, err)
	require.Equal(t, seeded.Email, user.Email)
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	svc, repo, tokens := newAuthService(t)
	seeded := seedUser(t, svc, repo, "user@test.local", "correctpass", true)

	refresh, err := tokens.IssueRefresh(seeded.ID)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), refresh)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestAuthenticateRejectsInactiveUser(t *testing.T) {
	svc, repo, tokens := newAuthService(t)
	seeded := seedUser(t, svc, repo, "user@test.local", "correctpass", true)

	access, err := tokens.IssueAccess(seeded.ID)
	require.NoError(t, err)
	require.NoError(t, repo.SetActive(context.Background(), seeded.ID, false))

	_, err = svc.Authenticate(context.Background(), access)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestAuthenticateRejectsUnknownSubject(t *testing.T) {
	svc, _, tokens := newAuthService(t)

	access, err := tokens.IssueAccess(uuid.New())
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), access)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	svc, repo, _ := newAuthService(t)
	seeded := seedUser(t, svc, repo, "user@test.local", "correctpass", true)

	expired, err := token.NewService(token.Config{Secret: []byte("test-secret")})
	require.NoError(t, err)
	expired.WithClock(func() time.Time { return time.Now().Add(-48 * time.Hour) })
	stale, err := expired.IssueAccess(seeded.ID)
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), stale)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}
