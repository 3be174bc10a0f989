package service

import (
	"context"
	"sync"
	"time"

	"github.com/yndnr/secdesk-go/internal/core/domain"
)

// mockStore is an in-memory implementation of every repository port.
type mockStore struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	issues map[string]*domain.Issue
	posts  map[string]*domain.Post
	likes  map[string]map[string]bool

	// failWith, when set, is returned by every call.
	failWith error

	// listFilter is the filter passed to the last ListIssues call.
	listFilter domain.IssueFilter
}

func newMockStore() *mockStore {
	return &mockStore{
		users:  make(map[string]*domain.User),
		issues: make(map[string]*domain.Issue),
		posts:  make(map[string]*domain.Post),
		likes:  make(map[string]map[string]bool),
	}
}

func (m *mockStore) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrUserExists
		}
	}
	m.users[user.ID] = user.Clone()
	return nil
}

func (m *mockStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockStore) GetUserByResetToken(_ context.Context, hash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if hash != "" && u.ResetTokenHash == hash {
			return u.Clone(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockStore) UpdateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	m.users[user.ID] = user.Clone()
	return nil
}

func (m *mockStore) CreateIssue(_ context.Context, issue *domain.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.issues[issue.ID] = issue.Clone()
	return nil
}

func (m *mockStore) GetIssue(_ context.Context, id string) (*domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.issues[id]
	if !ok {
		return nil, domain.ErrIssueNotFound
	}
	return i.Clone(), nil
}

func (m *mockStore) ListIssues(_ context.Context, owner string, filter domain.IssueFilter) ([]*domain.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listFilter = filter
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []*domain.Issue
	for _, i := range m.issues {
		if i.UserID == owner && i.Matches(filter) {
			out = append(out, i.Clone())
		}
	}
	return out, nil
}

func (m *mockStore) UpdateIssue(_ context.Context, issue *domain.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.issues[issue.ID]; !ok {
		return domain.ErrIssueNotFound
	}
	m.issues[issue.ID] = issue.Clone()
	return nil
}

func (m *mockStore) DeleteIssue(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.issues[id]; !ok {
		return domain.ErrIssueNotFound
	}
	delete(m.issues, id)
	return nil
}

func (m *mockStore) CreatePost(_ context.Context, post *domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := *post
	m.posts[post.ID] = &p
	return nil
}

func (m *mockStore) GetPost(_ context.Context, id string) (*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	c := *p
	return &c, nil
}

func (m *mockStore) ListPosts(_ context.Context) ([]*domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Post, 0, len(m.posts))
	for _, p := range m.posts {
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

func (m *mockStore) ListLikes(_ context.Context, postID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for uid := range m.likes[postID] {
		out = append(out, uid)
	}
	return out, nil
}

func (m *mockStore) ToggleLike(_ context.Context, postID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.likes[postID] == nil {
		m.likes[postID] = make(map[string]bool)
	}
	if m.likes[postID][userID] {
		delete(m.likes[postID], userID)
		return false, nil
	}
	m.likes[postID][userID] = true
	return true, nil
}

// recordingNotifier captures notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) Sent() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.sent...)
}

// testClock is a manually advanced clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
