package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/savemo/identity/internal/acl"
	"github.com/savemo/identity/internal/shared"
	_ "github.com/savemo/identity/testing"
)

func authedRequest(t *testing.T, userID uuid.UUID) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := shared.ContextWithPrincipal(req.Context(), &shared.Principal{ID: userID, Email: "user@test.local"})
	return req.WithContext(ctx)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAnyAllowsMatchingPermission(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	userID := uuid.New()
	repo.add(userID, treasurerRole(), ScopePlatform, nil, nil)

	mw := Middleware{Resolver: NewResolver(repo, nil)}
	handler := mw.RequireAny(acl.PermWalletDebit, acl.PermWalletCredit)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(t, userID))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAnyRejectsMissingPermission(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	userID := uuid.New()
	repo.add(userID, treasurerRole(), ScopePlatform, nil, nil)

	mw := Middleware{Resolver: NewResolver(repo, nil)}
	handler := mw.RequireAny(acl.PermSystemAdmin)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(t, userID))
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireAnyWildcardBypassesChecks(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	userID := uuid.New()
	repo.add(userID, adminRole(), ScopePlatform, nil, nil)

	mw := Middleware{Resolver: NewResolver(repo, nil)}
	handler := mw.RequireAll(acl.PermSystemAdmin, acl.PermWalletDebit, acl.PermEventsManage)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(t, userID))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAnyWithoutPrincipalIsUnauthorized(t *testing.T) {
	mw := Middleware{Resolver: NewResolver(newMemoryAssignmentRepo(), nil)}
	handler := mw.RequireAny(acl.PermGroupView)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestEmptyRequirementIsNoOpGuard(t *testing.T) {
	mw := Middleware{Resolver: NewResolver(newMemoryAssignmentRepo(), nil)}
	handler := mw.RequireAny()(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAllNeedsEveryPermission(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	userID := uuid.New()
	repo.add(userID, treasurerRole(), ScopePlatform, nil, nil)

	mw := Middleware{Resolver: NewResolver(repo, nil)}

	rr := httptest.NewRecorder()
	mw.RequireAll(acl.PermWalletView, acl.PermWalletDebit)(okHandler()).ServeHTTP(rr, authedRequest(t, userID))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	mw.RequireAll(acl.PermWalletView, acl.PermSystemAdmin)(okHandler()).ServeHTTP(rr, authedRequest(t, userID))
	require.Equal(t, http.StatusForbidden, rr.Code)
}
