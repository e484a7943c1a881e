package auth

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/savemo/identity/internal/audit"
	"github.com/savemo/identity/internal/observability"
	"github.com/savemo/identity/internal/platform/httpx"
	"github.com/savemo/identity/internal/rbac"
	"github.com/savemo/identity/internal/shared"
	"github.com/savemo/identity/internal/users"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	resolver  *rbac.Resolver
	audit     *audit.Recorder
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, resolver *rbac.Resolver, recorder *audit.Recorder, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		resolver:  resolver,
		audit:     recorder,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		// Credential endpoints get a tighter per-IP budget than the global
		// limit since they are the brute-force surface.
		r.Use(httprate.LimitByIP(10, time.Minute))
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/login/form", h.handleLoginForm)
		r.Post("/refresh", h.handleRefresh)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.RequireUser)
		r.Get("/me", h.handleMe)
	})
}

type registerRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	FullName string  `json:"full_name" validate:"required"`
	Phone    *string `json:"phone" validate:"omitempty,e164"`
	Password string  `json:"password" validate:"required,min=8"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user, err := h.service.Register(r.Context(), RegisterParams{
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, users.ToResponse(user))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	h.login(w, r, req.Email, req.Password)
}

// handleLoginForm accepts application/x-www-form-urlencoded credentials
// with username=email, mirroring the OAuth2 password form convention.
func (h *Handler) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed form body")
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "username and password are required")
		return
	}
	h.login(w, r, email, password)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, email, password string) {
	user, pair, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		h.metrics.ObserveLogin(false)
		h.recordLogin(r, nil, email, false)
		httpx.RespondError(w, err)
		return
	}
	h.metrics.ObserveLogin(true)
	h.recordLogin(r, &user.ID, email, true)
	httpx.JSON(w, http.StatusOK, pair)
}

func (h *Handler) recordLogin(r *http.Request, userID *uuid.UUID, email string, success bool) {
	if err := h.audit.RecordLogin(r.Context(), userID, email, r.RemoteAddr, r.UserAgent(), success); err != nil {
		h.logger.Warn("record login event", slog.Any("error", err))
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pair)
}

type meResponse struct {
	users.UserResponse
	Permissions []string `json:"permissions"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	granted, err := h.resolver.ResolvePermissions(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("resolve permissions", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	codes := make([]string, 0, len(granted))
	for code := range granted {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	httpx.JSON(w, http.StatusOK, meResponse{
		UserResponse: users.ToResponse(user),
		Permissions:  codes,
	})
}
