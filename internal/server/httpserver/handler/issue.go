package handler

import (
	"net/http"

	"github.com/yndnr/secdesk-go/internal/admission"
	"github.com/yndnr/secdesk-go/internal/core/domain"
)

// handleListIssues handles GET /api/issues?type=&search=.
func (h *Handler) handleListIssues(w http.ResponseWriter, r *http.Request) {
	adm, ctx, ok := h.admit(w, r, admission.PolicyIssueRead)
	if !ok {
		return
	}

	q := r.URL.Query()
	issues, err := h.issues.List(ctx, adm.Subject, domain.IssueFilter{
		Type:   domain.IssueType(q.Get("type")),
		Search: q.Get("search"),
	})
	if err != nil {
		h.writeError(w, ctx, err)
		return
	}
	if issues == nil {
		issues = []*domain.Issue{}
	}
	h.writeJSON(w, r, http.StatusOK, issues)
}

// handleCreateIssue handles POST /api/issues.
func (h *Handler) handleCreateIssue(w http.ResponseWriter, r *http.Request) {
	adm, ctx, ok := h.admit(w, r, admission.PolicyIssueCreate)
	if !ok {
		return
	}

	var in domain.CreateIssueInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, ctx, err)
		return
	}
	issue, err := h.issues.Create(ctx, adm.Subject, &in)
	if err != nil {
		h.writeError(w, ctx, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, issue)
}

// handleGetIssue handles GET /api/issues/{id}.
func (h *Handler) handleGetIssue(w http.ResponseWriter, r *http.Request) {
	adm, ctx, ok := h.admit(w, r, admission.PolicyIssueRead)
	if !ok {
		return
	}

	issue, err := h.issues.Get(ctx, adm.Subject, r.PathValue("id"))
	if err != nil {
		h.writeError(w, ctx, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, issue)
}

// handleUpdateIssue handles PUT /api/issues/{id}.
func (h *Handler) handleUpdateIssue(w http.ResponseWriter, r *http.Request) {
	adm, ctx, ok := h.admit(w, r, admission.PolicyIssueUpdate)
	if !ok {
		return
	}

	var in domain.UpdateIssueInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, ctx, err)
		return
	}
	issue, err := h.issues.Update(ctx, adm.Subject, r.PathValue("id"), &in)
	if err != nil {
		h.writeError(w, ctx, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, issue)
}

// handleDeleteIssue handles DELETE /api/issues/{id}.
func (h *Handler) handleDeleteIssue(w http.ResponseWriter, r *http.Request) {
	adm, ctx, ok := h.admit(w, r, admission.PolicyIssueDelete)
	if !ok {
		return
	}

	if err := h.issues.Delete(ctx, adm.Subject, r.PathValue("id")); err != nil {
		h.writeError(w, ctx, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, messageResponse{Message: "Issue deleted successfully"})
}
