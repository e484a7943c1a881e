package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/savemo/identity/internal/acl"
	"github.com/savemo/identity/internal/observability"
	"github.com/savemo/identity/internal/platform/httpx"
	"github.com/savemo/identity/internal/shared"
)

// Middleware wires permission checks for HTTP handlers. It expects the
// authentication middleware to have placed a principal in the request
// context; requests without one are rejected outright.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// RequireAny ensures the principal holds at least one of the required
// permissions. An empty requirement list passes every request through.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	required := acl.Set(normalizePermissions(perms)...)
	return m.require(required, acl.HasAny)
}

// RequireAll ensures the principal holds every required permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	required := acl.Set(normalizePermissions(perms)...)
	return m.require(required, acl.HasAll)
}

func (m Middleware) require(required map[string]struct{}, check func(granted, required map[string]struct{}) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(required) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			granted, err := m.Resolver.ResolvePermissions(r.Context(), principal.ID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("resolve permissions", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if check(granted, required) {
				next.ServeHTTP(w, r)
				return
			}
			m.Metrics.ObserveAuthzDenied()
			httpx.RespondError(w, shared.ErrForbidden)
		})
	}
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	return normalized
}
