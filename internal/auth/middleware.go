package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/savemo/identity/internal/platform/httpx"
	"github.com/savemo/identity/internal/shared"
	"github.com/savemo/identity/internal/users"
)

type userContextKey struct{}

// ContextWithUser stores the authenticated user record in context.
func ContextWithUser(ctx context.Context, user *users.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the authenticated user record from context.
func UserFromContext(ctx context.Context) *users.User {
	user, _ := ctx.Value(userContextKey{}).(*users.User)
	return user
}

// RequireUser authenticates the bearer token on every request and places
// both the full user record and a principal in the request context.
// Handlers behind this middleware can assume an authenticated, active user.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		user, err := h.service.Authenticate(r.Context(), tokenString)
		if err != nil {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		ctx := ContextWithUser(r.Context(), user)
		ctx = shared.ContextWithPrincipal(ctx, &shared.Principal{ID: user.ID, Email: user.Email})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
