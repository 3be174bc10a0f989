package handler

import (
	"net/http"

	"github.com/yndnr/secdesk-go/internal/admission"
	"github.com/yndnr/secdesk-go/internal/core/domain"
)

type likeResponse struct {
	IsLiked bool `json:"is_liked"`
}

// handleFeed handles GET /api/posts.
func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	adm, ctx, ok := h.admit(w, r, admission.PolicyPostRead)
	if !ok {
		return
	}

	feed, err := h.posts.Feed(ctx, adm.Subject)
	if err != nil {
		h.writeError(w, ctx, err)
		return
	}
	if feed == nil {
		feed = []*domain.FeedItem{}
	}
	h.writeJSON(w, r, http.StatusOK, feed)
}

// handleCreatePost handles POST /api/posts.
func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	adm, ctx, ok := h.admit(w, r, admission.PolicyPostCreate)
	if !ok {
		return
	}

	var in domain.CreatePostInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, ctx, err)
		return
	}
	post, err := h.posts.Create(ctx, adm.Subject, &in)
	if err != nil {
		h.writeError(w, ctx, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, post)
}

// handleToggleLike handles POST /api/posts/{id}/like.
func (h *Handler) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	adm, ctx, ok := h.admit(w, r, admission.PolicyPostLike)
	if !ok {
		return
	}

	liked, err := h.posts.ToggleLike(ctx, r.PathValue("id"), adm.Subject)
	if err != nil {
		h.writeError(w, ctx, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, likeResponse{IsLiked: liked})
}
