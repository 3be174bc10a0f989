package service

import (
	"context"
	"time"

	"github.com/yndnr/secdesk-go/internal/core/domain"
)

// Clock returns the current time.
type Clock func() time.Time

// UserRepository defines the storage interface for accounts.
type UserRepository interface {
	// CreateUser stores a new user. Returns domain.ErrUserExists when the
	// email is already registered.
	CreateUser(ctx context.Context, user *domain.User) error

	// GetUser returns domain.ErrUserNotFound when id is unknown.
	GetUser(ctx context.Context, id string) (*domain.User, error)

	// GetUserByEmail looks up a normalized email address.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetUserByResetToken looks up the outstanding reset token hash.
	GetUserByResetToken(ctx context.Context, tokenHash string) (*domain.User, error)

	// UpdateUser replaces a stored user, keeping secondary indexes in step.
	UpdateUser(ctx context.Context, user *domain.User) error
}

// IssueRepository defines the storage interface for issues.
type IssueRepository interface {
	CreateIssue(ctx context.Context, issue *domain.Issue) error

	// GetIssue returns domain.ErrIssueNotFound when id is unknown.
	GetIssue(ctx context.Context, id string) (*domain.Issue, error)

	// ListIssues returns the issues owned by userID that pass filter, in
	// any order.
	ListIssues(ctx context.Context, userID string, filter domain.IssueFilter) ([]*domain.Issue, error)

	UpdateIssue(ctx context.Context, issue *domain.Issue) error
	DeleteIssue(ctx context.Context, id string) error
}

// PostRepository defines the storage interface for the feed.
type PostRepository interface {
	CreatePost(ctx context.Context, post *domain.Post) error

	// GetPost returns domain.ErrPostNotFound when id is unknown.
	GetPost(ctx context.Context, id string) (*domain.Post, error)

	// ListPosts returns every post in any order.
	ListPosts(ctx context.Context) ([]*domain.Post, error)

	// ListLikes returns the IDs of users who like postID.
	ListLikes(ctx context.Context, postID string) ([]string, error)

	// ToggleLike flips userID's like on postID and reports the new state.
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
}

// Notifier delivers best-effort notifications. Implementations must not
// block the caller on delivery.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Notification) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
