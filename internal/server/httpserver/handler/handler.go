package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/secdesk-go/internal/admission"
	"github.com/yndnr/secdesk-go/internal/core/domain"
	"github.com/yndnr/secdesk-go/internal/core/service"
	"github.com/yndnr/secdesk-go/internal/telemetry/logger"
)

// CookieConfig describes the session cookie set on sign-in.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Config wires a Handler.
type Config struct {
	Auth   *service.AuthService
	Issues *service.IssueService
	Posts  *service.PostService
	Users  *service.UserService
	Gate   *admission.Gate
	Cookie CookieConfig

	// Ready reports whether dependencies can serve traffic. Nil means always ready.
	Ready func(context.Context) error

	Logger *slog.Logger
	Now    func() time.Time
}

// Handler serves the API routes.
type Handler struct {
	auth   *service.AuthService
	issues *service.IssueService
	posts  *service.PostService
	users  *service.UserService
	gate   *admission.Gate
	cookie CookieConfig
	ready  func(context.Context) error
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Handler.
func New(cfg Config) *Handler {
	h := &Handler{
		auth:   cfg.Auth,
		issues: cfg.Issues,
		posts:  cfg.Posts,
		users:  cfg.Users,
		gate:   cfg.Gate,
		cookie: cfg.Cookie,
		ready:  cfg.Ready,
		logger: cfg.Logger,
		now:    cfg.Now,
	}
	if h.cookie.Name == "" {
		h.cookie.Name = admission.DefaultCookieName
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Register adds every route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /ready", h.handleReady)

	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", h.handleLogout)
	mux.HandleFunc("POST /api/auth/forgot-password", h.handleForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", h.handleResetPassword)

	mux.HandleFunc("GET /api/issues", h.handleListIssues)
	mux.HandleFunc("POST /api/issues", h.handleCreateIssue)
	mux.HandleFunc("GET /api/issues/{id}", h.handleGetIssue)
	mux.HandleFunc("PUT /api/issues/{id}", h.handleUpdateIssue)
	mux.HandleFunc("DELETE /api/issues/{id}", h.handleDeleteIssue)

	mux.HandleFunc("GET /api/posts", h.handleFeed)
	mux.HandleFunc("POST /api/posts", h.handleCreatePost)
	mux.HandleFunc("POST /api/posts/{id}/like", h.handleToggleLike)

	mux.HandleFunc("GET /api/users/profile", h.handleGetProfile)
	mux.HandleFunc("PUT /api/users/profile", h.handleUpdateProfile)
}

// admit runs the admission pipeline for policy. On success the returned
// context carries the caller for logging.
func (h *Handler) admit(w http.ResponseWriter, r *http.Request, policy string) (admission.Admission, context.Context, bool) {
	adm, ok := h.gate.Admit(w, r, policy)
	if !ok {
		return adm, nil, false
	}
	ctx := r.Context()
	if adm.Subject != "" {
		ctx = logger.WithUserID(ctx, adm.Subject)
	}
	return adm, ctx, true
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.ErrBadRequest.WithMessage("Request body too large").WithCause(err)
		}
		return domain.ErrBadRequest.WithMessage("Invalid JSON body").WithCause(err)
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L(r.Context()).Warn("encode response failed", "error", err)
	}
}

// writeError maps err onto the error body. Server-side failures are logged
// with their cause; the caller only sees a generic message.
func (h *Handler) writeError(w http.ResponseWriter, ctx context.Context, err error) {
	de, ok := domain.AsDomainError(err)
	if !ok || de.Status() >= http.StatusInternalServerError {
		logger.L(ctx).Error("request failed", "error", err)
	} else {
		logger.L(ctx).Debug("request rejected", "code", domain.GetErrorCode(err))
	}
	admission.WriteError(w, err)
}

type messageResponse struct {
	Message string `json:"message"`
}
