// Package repotest holds a conformance suite shared by the repository
// implementations.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/secdesk-go/internal/core/domain"
)

// Repository is the union of the service repository ports.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	CreateIssue(ctx context.Context, issue *domain.Issue) error
	GetIssue(ctx context.Context, id string) (*domain.Issue, error)
	ListIssues(ctx context.Context, userID string, filter domain.IssueFilter) ([]*domain.Issue, error)
	UpdateIssue(ctx context.Context, issue *domain.Issue) error
	DeleteIssue(ctx context.Context, id string) error

	CreatePost(ctx context.Context, post *domain.Post) error
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	ListPosts(ctx context.Context) ([]*domain.Post, error)
	ListLikes(ctx context.Context, postID string) ([]string, error)
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
}

var base = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func newUser(id, email string) *domain.User {
	return &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: "$2a$10$hash-" + id,
		FullName:     "User " + id,
		Role:         "Pentester",
		Sector:       "Finance",
		CreatedAt:    base,
		UpdatedAt:    base,
	}
}

// Run executes the suite. newRepo must return an empty repository.
func Run(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newRepo(t)) })
	t.Run("ResetTokenIndex", func(t *testing.T) { testResetIndex(t, newRepo(t)) })
	t.Run("Issues", func(t *testing.T) { testIssues(t, newRepo(t)) })
	t.Run("IssueFilter", func(t *testing.T) { testIssueFilter(t, newRepo(t)) })
	t.Run("Posts", func(t *testing.T) { testPosts(t, newRepo(t)) })
	t.Run("ConcurrentToggle", func(t *testing.T) { testConcurrentToggle(t, newRepo(t)) })
}

func testUsers(t *testing.T, repo Repository) {
	ctx := context.Background()

	u := newUser("usr-1", "Neo@Example.com")
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if err := repo.CreateUser(ctx, newUser("usr-2", "neo@example.com")); !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("CreateUser(duplicate email) error = %v, want ErrUserExists", err)
	}

	got, err := repo.GetUser(ctx, "usr-1")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.PasswordHash != u.PasswordHash || got.FullName != u.FullName || !got.CreatedAt.Equal(base) {
		t.Errorf("GetUser() = %+v", got)
	}

	byEmail, err := repo.GetUserByEmail(ctx, "NEO@example.com")
	if err != nil || byEmail.ID != "usr-1" {
		t.Errorf("GetUserByEmail() = %v, %v", byEmail, err)
	}

	if _, err := repo.GetUser(ctx, "usr-404"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("GetUser(unknown) error = %v", err)
	}
	if _, err := repo.GetUserByEmail(ctx, "ghost@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("GetUserByEmail(unknown) error = %v", err)
	}

	got.Bio = "red team lead"
	got.UpdatedAt = base.Add(time.Hour)
	if err := repo.UpdateUser(ctx, got); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	again, _ := repo.GetUser(ctx, "usr-1")
	if again.Bio != "red team lead" || !again.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("after UpdateUser() = %+v", again)
	}

	if err := repo.UpdateUser(ctx, newUser("usr-404", "x@example.com")); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("UpdateUser(unknown) error = %v", err)
	}
}

func testResetIndex(t *testing.T, repo Repository) {
	ctx := context.Background()
	u := newUser("usr-1", "trinity@example.com")
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.GetUserByResetToken(ctx, ""); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("GetUserByResetToken(\"\") error = %v", err)
	}

	exp := base.Add(time.Hour)
	u.ResetTokenHash = "hash-a"
	u.ResetTokenExpires = &exp
	if err := repo.UpdateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetUserByResetToken(ctx, "hash-a")
	if err != nil || got.ID != "usr-1" {
		t.Fatalf("GetUserByResetToken() = %v, %v", got, err)
	}
	if got.ResetTokenExpires == nil || !got.ResetTokenExpires.Equal(exp) {
		t.Errorf("ResetTokenExpires = %v, want %v", got.ResetTokenExpires, exp)
	}

	u.ResetTokenHash = "hash-b"
	if err := repo.UpdateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetUserByResetToken(ctx, "hash-a"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("replaced token still resolves: %v", err)
	}

	u.ResetTokenHash = ""
	u.ResetTokenExpires = nil
	if err := repo.UpdateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetUserByResetToken(ctx, "hash-b"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("cleared token still resolves: %v", err)
	}
}

func testIssues(t *testing.T, repo Repository) {
	ctx := context.Background()
	for _, id := range []string{"usr-1", "usr-2"} {
		if err := repo.CreateUser(ctx, newUser(id, id+"@example.com")); err != nil {
			t.Fatal(err)
		}
	}

	for i, owner := range []string{"usr-1", "usr-1", "usr-2"} {
		issue := &domain.Issue{
			ID:          fmt.Sprintf("iss-%d", i),
			UserID:      owner,
			Type:        domain.IssueTypeVAPT,
			Title:       fmt.Sprintf("Finding %d", i),
			Description: "Reflected XSS on login",
			Priority:    domain.PriorityHigh,
			Status:      domain.StatusOpen,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.CreateIssue(ctx, issue); err != nil {
			t.Fatalf("CreateIssue() error = %v", err)
		}
	}

	mine, err := repo.ListIssues(ctx, "usr-1", domain.IssueFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if got := issueIDs(mine); got != "[iss-0 iss-1]" {
		t.Errorf("ListIssues(usr-1) = %v", got)
	}

	got, err := repo.GetIssue(ctx, "iss-2")
	if err != nil || got.UserID != "usr-2" || got.Priority != domain.PriorityHigh {
		t.Errorf("GetIssue() = %+v, %v", got, err)
	}

	got.Status = domain.StatusResolved
	if err := repo.UpdateIssue(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, _ := repo.GetIssue(ctx, "iss-2")
	if again.Status != domain.StatusResolved {
		t.Errorf("Status = %q after update", again.Status)
	}

	if err := repo.DeleteIssue(ctx, "iss-0"); err != nil {
		t.Fatalf("DeleteIssue() error = %v", err)
	}
	if _, err := repo.GetIssue(ctx, "iss-0"); !errors.Is(err, domain.ErrIssueNotFound) {
		t.Errorf("GetIssue(deleted) error = %v", err)
	}
	mine, _ = repo.ListIssues(ctx, "usr-1", domain.IssueFilter{})
	if len(mine) != 1 {
		t.Errorf("len(ListIssues) = %d after delete, want 1", len(mine))
	}

	if err := repo.DeleteIssue(ctx, "iss-0"); !errors.Is(err, domain.ErrIssueNotFound) {
		t.Errorf("DeleteIssue(deleted) error = %v", err)
	}
	missing := *again
	missing.ID = "iss-404"
	if err := repo.UpdateIssue(ctx, &missing); !errors.Is(err, domain.ErrIssueNotFound) {
		t.Errorf("UpdateIssue(unknown) error = %v", err)
	}
}

func testIssueFilter(t *testing.T, repo Repository) {
	ctx := context.Background()
	for _, id := range []string{"usr-1", "usr-2"} {
		if err := repo.CreateUser(ctx, newUser(id, id+"@example.com")); err != nil {
			t.Fatal(err)
		}
	}

	seed := []*domain.Issue{
		{ID: "iss-0", UserID: "usr-1", Type: domain.IssueTypeVAPT, Title: "Stored XSS", Description: "Comment field renders raw HTML"},
		{ID: "iss-1", UserID: "usr-1", Type: domain.IssueTypeVAPT, Title: "Finding 1", Description: "Reflected xss on login"},
		{ID: "iss-2", UserID: "usr-1", Type: domain.IssueTypeCloudSecurity, Title: "100% exposed_bucket", Description: `Path C:\backups is public`},
		{ID: "iss-3", UserID: "usr-2", Type: domain.IssueTypeVAPT, Title: "Stored XSS", Description: "Another owner"},
	}
	for i, issue := range seed {
		issue.Priority = domain.PriorityLow
		issue.Status = domain.StatusOpen
		issue.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		issue.UpdatedAt = issue.CreatedAt
		if err := repo.CreateIssue(ctx, issue); err != nil {
			t.Fatalf("CreateIssue(%s) error = %v", issue.ID, err)
		}
	}

	tests := []struct {
		name   string
		filter domain.IssueFilter
		want   string
	}{
		{"type", domain.IssueFilter{Type: domain.IssueTypeCloudSecurity}, "[iss-2]"},
		{"search title and description ignoring case", domain.IssueFilter{Search: "XSS"}, "[iss-0 iss-1]"},
		{"type and search", domain.IssueFilter{Type: domain.IssueTypeVAPT, Search: "login"}, "[iss-1]"},
		{"percent is literal", domain.IssueFilter{Search: "%"}, "[iss-2]"},
		{"underscore is literal", domain.IssueFilter{Search: "d_x"}, "[]"},
		{"underscore matches itself", domain.IssueFilter{Search: "exposed_bucket"}, "[iss-2]"},
		{"backslash is literal", domain.IssueFilter{Search: `C:\backups`}, "[iss-2]"},
		{"no match", domain.IssueFilter{Search: "csrf"}, "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListIssues(ctx, "usr-1", tt.filter)
			if err != nil {
				t.Fatalf("ListIssues() error = %v", err)
			}
			if ids := issueIDs(got); ids != tt.want {
				t.Errorf("ListIssues(%+v) = %v, want %v", tt.filter, ids, tt.want)
			}
		})
	}
}

func issueIDs(issues []*domain.Issue) string {
	ids := make([]string, 0, len(issues))
	for _, i := range issues {
		ids = append(ids, i.ID)
	}
	sort.Strings(ids)
	return fmt.Sprint(ids)
}

func testPosts(t *testing.T, repo Repository) {
	ctx := context.Background()
	for _, id := range []string{"usr-1", "usr-2"} {
		if err := repo.CreateUser(ctx, newUser(id, id+"@example.com")); err != nil {
			t.Fatal(err)
		}
	}
	post := &domain.Post{ID: "pst-1", UserID: "usr-1", Content: "patched the VPN", CreatedAt: base}
	if err := repo.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}

	posts, err := repo.ListPosts(ctx)
	if err != nil || len(posts) != 1 || posts[0].Content != "patched the VPN" {
		t.Fatalf("ListPosts() = %v, %v", posts, err)
	}
	if _, err := repo.GetPost(ctx, "pst-404"); !errors.Is(err, domain.ErrPostNotFound) {
		t.Errorf("GetPost(unknown) error = %v", err)
	}

	steps := []struct {
		user string
		want bool
	}{
		{"usr-2", true},
		{"usr-1", true},
		{"usr-2", false},
		{"usr-2", true},
	}
	for i, s := range steps {
		liked, err := repo.ToggleLike(ctx, "pst-1", s.user)
		if err != nil {
			t.Fatalf("step %d: ToggleLike() error = %v", i, err)
		}
		if liked != s.want {
			t.Errorf("step %d: ToggleLike(%s) = %v, want %v", i, s.user, liked, s.want)
		}
	}

	likes, err := repo.ListLikes(ctx, "pst-1")
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(likes)
	if fmt.Sprint(likes) != "[usr-1 usr-2]" {
		t.Errorf("ListLikes() = %v", likes)
	}

	if _, err := repo.ToggleLike(ctx, "pst-404", "usr-1"); !errors.Is(err, domain.ErrPostNotFound) {
		t.Errorf("ToggleLike(unknown post) error = %v", err)
	}
}

func testConcurrentToggle(t *testing.T, repo Repository) {
	ctx := context.Background()
	if err := repo.CreateUser(ctx, newUser("usr-1", "a@example.com")); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreatePost(ctx, &domain.Post{ID: "pst-1", UserID: "usr-1", Content: "x", CreatedAt: base}); err != nil {
		t.Fatal(err)
	}

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.ToggleLike(ctx, "pst-1", "usr-1"); err != nil {
				t.Errorf("ToggleLike() error = %v", err)
			}
		}()
	}
	wg.Wait()

	likes, _ := repo.ListLikes(ctx, "pst-1")
	if len(likes) != 0 {
		t.Errorf("after %d toggles likes = %v, want none", n, likes)
	}
}
