package rbac

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/savemo/identity/internal/acl"
	"github.com/savemo/identity/internal/platform/httpx"
	"github.com/savemo/identity/internal/shared"
)

// PermissionsHandler exposes the permission catalog and assignment
// administration endpoints.
type PermissionsHandler struct {
	logger    *slog.Logger
	service   *Service
	resolver  *Resolver
	rbac      Middleware
	validator *validator.Validate
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service, resolver *Resolver, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{
		logger:    logger,
		service:   service,
		resolver:  resolver,
		rbac:      rbac,
		validator: validator.New(),
	}
}

// MountRoutes registers permission and assignment routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/permissions", h.listCatalog)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(acl.PermSystemAdmin))
		r.Get("/users/{id}/permissions", h.userPermissions)
		r.Get("/users/{id}/assignments", h.listAssignments)
		r.Post("/users/{id}/assignments", h.grant)
		r.Delete("/assignments/{id}", h.revoke)
	})
}

func (h *PermissionsHandler) listCatalog(w http.ResponseWriter, r *http.Request) {
	codes := make([]string, 0)
	for code := range acl.All() {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": codes})
}

func (h *PermissionsHandler) userPermissions(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	granted, err := h.resolver.ResolvePermissions(r.Context(), userID)
	if err != nil {
		h.logger.Error("resolve permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	codes := make([]string, 0, len(granted))
	for code := range granted {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": codes})
}

// AssignmentResponse is the wire representation of a role assignment.
type AssignmentResponse struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	RoleID    uuid.UUID  `json:"role_id"`
	RoleName  string     `json:"role_name,omitempty"`
	ScopeType string     `json:"scope_type"`
	ScopeID   *uuid.UUID `json:"scope_id,omitempty"`
	StartsAt  *time.Time `json:"starts_at,omitempty"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toAssignmentResponse(a Assignment) AssignmentResponse {
	out := AssignmentResponse{
		ID:        a.ID,
		UserID:    a.UserID,
		RoleID:    a.RoleID,
		ScopeType: a.ScopeType,
		ScopeID:   a.ScopeID,
		StartsAt:  a.StartsAt,
		EndsAt:    a.EndsAt,
		CreatedAt: a.CreatedAt,
	}
	if a.Role != nil {
		out.RoleName = a.Role.Name
	}
	return out
}

func (h *PermissionsHandler) listAssignments(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	assignments, err := h.service.ListUserAssignments(r.Context(), userID)
	if err != nil {
		h.logger.Error("list assignments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]AssignmentResponse, len(assignments))
	for i, a := range assignments {
		out[i] = toAssignmentResponse(a)
	}
	httpx.JSON(w, http.StatusOK, out)
}

type grantRequest struct {
	RoleID    uuid.UUID  `json:"role_id" validate:"required"`
	ScopeType string     `json:"scope_type" validate:"omitempty,oneof=platform group"`
	ScopeID   *uuid.UUID `json:"scope_id"`
	StartsAt  *time.Time `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
}

func (h *PermissionsHandler) grant(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req grantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	assignment, err := h.service.Grant(r.Context(), GrantParams{
		UserID:    userID,
		RoleID:    req.RoleID,
		ScopeType: req.ScopeType,
		ScopeID:   req.ScopeID,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
	})
	if err != nil {
		h.logger.Warn("grant role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAssignmentResponse(*assignment))
}

func (h *PermissionsHandler) revoke(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.Revoke(r.Context(), assignmentID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
