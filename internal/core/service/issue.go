package service

import (
	"context"
	"sort"
	"time"

	"github.com/yndnr/secdesk-go/internal/core/domain"
	"github.com/yndnr/secdesk-go/internal/telemetry/logger"
)

// IssueService manages vulnerability records. Every operation is scoped to
// the calling owner; another owner's issue is reported as not found.
type IssueService struct {
	issues   IssueRepository
	users    UserRepository
	notifier Notifier
	now      Clock
}

// NewIssueService creates a new IssueService. users is only consulted for
// alert recipients and may be nil when notifications are not wanted.
func NewIssueService(issues IssueRepository, users UserRepository, notifier Notifier, clock Clock) *IssueService {
	if clock == nil {
		clock = time.Now
	}
	return &IssueService{
		issues:   issues,
		users:    users,
		notifier: orNop(notifier),
		now:      clock,
	}
}

// Create stores a new issue for owner and sends an alert to the owner.
func (s *IssueService) Create(ctx context.Context, owner string, in *domain.CreateIssueInput) (*domain.Issue, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	id, err := domain.NewID(domain.IssueIDPrefix)
	if err != nil {
		return nil, err
	}
	issue := in.NewIssue(id, owner, s.now())
	if err := s.issues.CreateIssue(ctx, issue); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("issue created", "issue_id", issue.ID, "user_id", owner, "type", issue.Type)
	s.alert(ctx, owner, issue)
	return issue, nil
}

func (s *IssueService) alert(ctx context.Context, owner string, issue *domain.Issue) {
	if s.users == nil {
		return
	}
	user, err := s.users.GetUser(ctx, owner)
	if err != nil {
		logger.L(ctx).Warn("issue alert skipped", "user_id", owner, "error", err)
		return
	}
	s.notifier.Notify(ctx, domain.Notification{
		Kind:       domain.NotifyIssueCreated,
		To:         user.Email,
		Name:       user.FullName,
		IssueTitle: issue.Title,
		IssueType:  issue.Type,
	})
}

// List returns owner's issues that pass filter, newest first.
func (s *IssueService) List(ctx context.Context, owner string, filter domain.IssueFilter) ([]*domain.Issue, error) {
	out, err := s.issues.ListIssues(ctx, owner, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get returns one of owner's issues.
func (s *IssueService) Get(ctx context.Context, owner, id string) (*domain.Issue, error) {
	if !domain.IsValidID(domain.IssueIDPrefix, id) {
		return nil, domain.ErrIssueNotFound
	}
	issue, err := s.issues.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if issue.UserID != owner {
		return nil, domain.ErrIssueNotFound
	}
	return issue, nil
}

// Update applies in to one of owner's issues.
func (s *IssueService) Update(ctx context.Context, owner, id string, in *domain.UpdateIssueInput) (*domain.Issue, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	issue, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if in.IsEmpty() {
		return issue, nil
	}

	in.Apply(issue)
	issue.UpdatedAt = s.now()
	if err := s.issues.UpdateIssue(ctx, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// Delete removes one of owner's issues.
func (s *IssueService) Delete(ctx context.Context, owner, id string) error {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}
	if err := s.issues.DeleteIssue(ctx, id); err != nil {
		return err
	}
	logger.L(ctx).Info("issue deleted", "issue_id", id, "user_id", owner)
	return nil
}
