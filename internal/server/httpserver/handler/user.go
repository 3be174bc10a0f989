package handler

import (
	"net/http"

	"github.com/yndnr/secdesk-go/internal/admission"
	"github.com/yndnr/secdesk-go/internal/core/domain"
)

// handleGetProfile handles GET /api/users/profile.
func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	adm, ctx, ok := h.admit(w, r, admission.PolicyProfileRead)
	if !ok {
		return
	}

	user, err := h.users.Profile(ctx, adm.Subject)
	if err != nil {
		h.writeError(w, ctx, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, user)
}

// handleUpdateProfile handles PUT /api/users/profile. The gate runs before
// the body is decoded, so an invalid payload still uses up a quota slot.
func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	adm, ctx, ok := h.admit(w, r, admission.PolicyProfileUpdate)
	if !ok {
		return
	}

	var in domain.UpdateProfileInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, ctx, err)
		return
	}
	user, err := h.users.UpdateProfile(ctx, adm.Subject, &in)
	if err != nil {
		h.writeError(w, ctx, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, user)
}
