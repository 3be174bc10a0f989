package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/secdesk-go/internal/admission"
	"github.com/yndnr/secdesk-go/internal/core/domain"
	"github.com/yndnr/secdesk-go/internal/core/service"
)

type authResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// handleRegister handles POST /api/auth/register.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	_, ctx, ok := h.admit(w, r, admission.PolicyAuthRegister)
	if !ok {
		return
	}

	var in domain.RegisterInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, ctx, err)
		return
	}
	sess, err := h.auth.Register(ctx, &in)
	if err != nil {
		h.writeError(w, ctx, err)
		return
	}
	h.signedIn(w, r, http.StatusCreated, sess)
}

// handleLogin handles POST /api/auth/login.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	_, ctx, ok := h.admit(w, r, admission.PolicyAuthLogin)
	if !ok {
		return
	}

	var in domain.LoginInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, ctx, err)
		return
	}
	sess, err := h.auth.Login(ctx, &in)
	if err != nil {
		h.writeError(w, ctx, err)
		return
	}
	h.signedIn(w, r, http.StatusOK, sess)
}

func (h *Handler) signedIn(w http.ResponseWriter, r *http.Request, status int, sess *service.Session) {
	maxAge := h.cookie.MaxAge
	if maxAge <= 0 {
		maxAge = sess.ExpiresAt.Sub(h.now())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	h.writeJSON(w, r, status, authResponse{User: sess.User, Token: sess.Token})
}

// handleLogout handles POST /api/auth/logout. Tokens are stateless, so
// logging out only clears the cookie.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	h.writeJSON(w, r, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

// handleForgotPassword handles POST /api/auth/forgot-password.
func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	_, ctx, ok := h.admit(w, r, admission.PolicyAuthPassword)
	if !ok {
		return
	}

	var in domain.ForgotPasswordInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, ctx, err)
		return
	}
	if err := h.auth.ForgotPassword(ctx, &in); err != nil {
		h.writeError(w, ctx, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, messageResponse{
		Message: "If an account exists for that email, a reset link has been sent.",
	})
}

// handleResetPassword handles POST /api/auth/reset-password.
func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	_, ctx, ok := h.admit(w, r, admission.PolicyAuthPassword)
	if !ok {
		return
	}

	var in domain.ResetPasswordInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, ctx, err)
		return
	}
	if err := h.auth.ResetPassword(ctx, &in); err != nil {
		h.writeError(w, ctx, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, messageResponse{Message: "Password has been reset successfully"})
}
