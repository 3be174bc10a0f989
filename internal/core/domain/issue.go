package domain

import (
	"strings"
	"time"
)

// IssueType classifies the engagement an issue came from.
type IssueType string

const (
	IssueTypeCloudSecurity IssueType = "Cloud Security"
	IssueTypeRedTeam       IssueType = "Reteam Assessment"
	IssueTypeVAPT          IssueType = "VAPT"
)

// IssuePriority ranks an issue on the dashboard.
type IssuePriority string

const (
	PriorityLow      IssuePriority = "Low"
	PriorityMedium   IssuePriority = "Medium"
	PriorityHigh     IssuePriority = "High"
	PriorityCritical IssuePriority = "Critical"
)

// IssueStatus is the remediation state of an issue.
type IssueStatus string

const (
	StatusOpen       IssueStatus = "Open"
	StatusInProgress IssueStatus = "In Progress"
	StatusResolved   IssueStatus = "Resolved"
	StatusClosed     IssueStatus = "Closed"
)

var (
	issueTypes      = []IssueType{IssueTypeCloudSecurity, IssueTypeRedTeam, IssueTypeVAPT}
	issuePriorities = []IssuePriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
	issueStatuses   = []IssueStatus{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}
)

// IsValid reports whether t is a known issue type.
func (t IssueType) IsValid() bool { return contains(issueTypes, t) }

// IsValid reports whether p is a known priority.
func (p IssuePriority) IsValid() bool { return contains(issuePriorities, p) }

// IsValid reports whether s is a known status.
func (s IssueStatus) IsValid() bool { return contains(issueStatuses, s) }

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Issue is a vulnerability record owned by one user.
type Issue struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Type        IssueType     `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Priority    IssuePriority `json:"priority"`
	Status      IssueStatus   `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Clone returns a copy of the issue.
func (i *Issue) Clone() *Issue {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// Matches reports whether the issue passes filter.
// Search is a case-insensitive substring match on title or description.
func (i *Issue) Matches(filter IssueFilter) bool {
	if filter.Type != "" && i.Type != filter.Type {
		return false
	}
	if filter.Search != "" {
		q := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(i.Title), q) && !strings.Contains(strings.ToLower(i.Description), q) {
			return false
		}
	}
	return true
}

// IssueFilter narrows an owner's issue list.
type IssueFilter struct {
	Type   IssueType
	Search string
}

const (
	msgIssueType     = "Type must be one of: Cloud Security, Reteam Assessment, VAPT"
	msgIssuePriority = "Priority must be one of: Low, Medium, High, Critical"
	msgIssueStatus   = "Status must be one of: Open, In Progress, Resolved, Closed"
	msgTitleShort    = "Title must be at least 3 characters"
	msgTitleLong     = "Title cannot exceed 100 characters"
	msgDescShort     = "Description must be at least 10 characters"
)

// CreateIssueInput is the payload of POST /api/issues.
type CreateIssueInput struct {
	Type        IssueType     `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Priority    IssuePriority `json:"priority,omitempty"`
	Status      IssueStatus   `json:"status,omitempty"`
}

// Validate reports every schema violation at once.
func (in *CreateIssueInput) Validate() error {
	var v Violations
	if !in.Type.IsValid() {
		v.Add("type", msgIssueType)
	}
	v.checkLength("title", in.Title, 3, 100, msgTitleShort, msgTitleLong)
	v.checkLength("description", in.Description, 10, 0, msgDescShort, "")
	if in.Priority != "" && !in.Priority.IsValid() {
		v.Add("priority", msgIssuePriority)
	}
	if in.Status != "" && !in.Status.IsValid() {
		v.Add("status", msgIssueStatus)
	}
	return v.Err()
}

// NewIssue builds an issue for owner from a validated input,
// defaulting priority to Low and status to Open.
func (in *CreateIssueInput) NewIssue(id, owner string, now time.Time) *Issue {
	issue := &Issue{
		ID:          id,
		UserID:      owner,
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if issue.Priority == "" {
		issue.Priority = PriorityLow
	}
	if issue.Status == "" {
		issue.Status = StatusOpen
	}
	return issue
}

// UpdateIssueInput is the payload of PUT /api/issues/{id}. Nil fields are left unchanged.
type UpdateIssueInput struct {
	Type        *IssueType     `json:"type,omitempty"`
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Priority    *IssuePriority `json:"priority,omitempty"`
	Status      *IssueStatus   `json:"status,omitempty"`
}

// Validate reports every schema violation at once.
func (in *UpdateIssueInput) Validate() error {
	var v Violations
	if in.Type != nil && !in.Type.IsValid() {
		v.Add("type", msgIssueType)
	}
	if in.Title != nil {
		v.checkLength("title", *in.Title, 3, 100, msgTitleShort, msgTitleLong)
	}
	if in.Description != nil {
		v.checkLength("description", *in.Description, 10, 0, msgDescShort, "")
	}
	if in.Priority != nil && !in.Priority.IsValid() {
		v.Add("priority", msgIssuePriority)
	}
	if in.Status != nil && !in.Status.IsValid() {
		v.Add("status", msgIssueStatus)
	}
	return v.Err()
}

// IsEmpty reports whether the input changes nothing.
func (in *UpdateIssueInput) IsEmpty() bool {
	return in.Type == nil && in.Title == nil && in.Description == nil && in.Priority == nil && in.Status == nil
}

// Apply copies the set fields onto issue.
func (in *UpdateIssueInput) Apply(issue *Issue) {
	if in.Type != nil {
		issue.Type = *in.Type
	}
	if in.Title != nil {
		issue.Title = *in.Title
	}
	if in.Description != nil {
		issue.Description = *in.Description
	}
	if in.Priority != nil {
		issue.Priority = *in.Priority
	}
	if in.Status != nil {
		issue.Status = *in.Status
	}
}
