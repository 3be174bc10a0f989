package pgrepo

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yndnr/secdesk-go/internal/core/domain"
	"github.com/yndnr/secdesk-go/internal/core/service"
)

// Repository implements the user, issue and post repositories.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

var (
	_ service.UserRepository  = (*Repository)(nil)
	_ service.IssueRepository = (*Repository)(nil)
	_ service.PostRepository  = (*Repository)(nil)
)

// New wraps an open gorm handle. The schema must already be migrated.
func New(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

// CreateUser inserts user. A duplicate email maps to ErrUserExists.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	row := userModelFromEntity(user)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return r.fail("create_user", err, "user_id", user.ID)
	}
	return nil
}

// GetUser returns the user with id.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return r.firstUser(ctx, "get_user", "id = ?", id)
}

// GetUserByEmail looks up a normalized email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.firstUser(ctx, "get_user_by_email", "email = ?", domain.NormalizeEmail(email))
}

// GetUserByResetToken looks up an outstanding reset token hash.
func (r *Repository) GetUserByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	if tokenHash == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.firstUser(ctx, "get_user_by_reset_token", "reset_token_hash = ?", tokenHash)
}

func (r *Repository) firstUser(ctx context.Context, op, query string, arg any) (*domain.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, r.fail(op, err)
	}
	return row.toEntity(), nil
}

// UpdateUser writes every column of user.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	row := userModelFromEntity(user)
	res := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", row.ID).
		Select("*").Omit("id", "created_at").Updates(&row)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return domain.ErrUserExists
		}
		return r.fail("update_user", res.Error, "user_id", user.ID)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// CreateIssue inserts issue.
func (r *Repository) CreateIssue(ctx context.Context, issue *domain.Issue) error {
	row := issueModelFromEntity(issue)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.fail("create_issue", err, "issue_id", issue.ID)
	}
	return nil
}

// GetIssue returns the issue with id.
func (r *Repository) GetIssue(ctx context.Context, id string) (*domain.Issue, error) {
	var row issueModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrIssueNotFound
		}
		return nil, r.fail("get_issue", err, "issue_id", id)
	}
	return row.toEntity(), nil
}

// ListIssues returns the owner's issues passing filter, newest first.
// Search is a case-insensitive substring match on title or description.
func (r *Repository) ListIssues(ctx context.Context, userID string, filter domain.IssueFilter) ([]*domain.Issue, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		q = q.Where(`(title ILIKE ? ESCAPE '\' OR description ILIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var rows []issueModel
	err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	if err != nil {
		return nil, r.fail("list_issues", err, "user_id", userID)
	}
	issues := make([]*domain.Issue, 0, len(rows))
	for _, row := range rows {
		issues = append(issues, row.toEntity())
	}
	return issues, nil
}

// UpdateIssue writes every mutable column of issue.
func (r *Repository) UpdateIssue(ctx context.Context, issue *domain.Issue) error {
	row := issueModelFromEntity(issue)
	res := r.db.WithContext(ctx).Model(&issueModel{}).Where("id = ?", row.ID).
		Select("type", "title", "description", "priority", "status", "updated_at").Updates(&row)
	if res.Error != nil {
		return r.fail("update_issue", res.Error, "issue_id", issue.ID)
	}
	if res.RowsAffected == 0 {
		return domain.ErrIssueNotFound
	}
	return nil
}

// DeleteIssue removes the issue with id.
func (r *Repository) DeleteIssue(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&issueModel{})
	if res.Error != nil {
		return r.fail("delete_issue", res.Error, "issue_id", id)
	}
	if res.RowsAffected == 0 {
		return domain.ErrIssueNotFound
	}
	return nil
}

// CreatePost inserts post.
func (r *Repository) CreatePost(ctx context.Context, post *domain.Post) error {
	row := postModel{ID: post.ID, UserID: post.UserID, Content: post.Content, CreatedAt: post.CreatedAt.UTC()}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.fail("create_post", err, "post_id", post.ID)
	}
	return nil
}

// GetPost returns the post with id.
func (r *Repository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	var row postModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPostNotFound
		}
		return nil, r.fail("get_post", err, "post_id", id)
	}
	return row.toEntity(), nil
}

// ListPosts returns every post, newest first.
func (r *Repository) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	var rows []postModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, r.fail("list_posts", err)
	}
	posts := make([]*domain.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toEntity())
	}
	return posts, nil
}

// ListLikes returns the users who like postID.
func (r *Repository) ListLikes(ctx context.Context, postID string) ([]string, error) {
	var users []string
	err := r.db.WithContext(ctx).Model(&likeModel{}).
		Where("post_id = ?", postID).Pluck("user_id", &users).Error
	if err != nil {
		return nil, r.fail("list_likes", err, "post_id", postID)
	}
	return users, nil
}

// ToggleLike flips userID's like on postID. The post row is locked for the
// duration so concurrent toggles on one post apply in sequence.
func (r *Repository) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post postModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", postID).First(&post).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPostNotFound
			}
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&likeModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}

		liked = true
		return tx.Create(&likeModel{PostID: postID, UserID: userID, CreatedAt: time.Now().UTC()}).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return false, err
		}
		return false, r.fail("toggle_like", err, "post_id", postID, "user_id", userID)
	}
	return liked, nil
}

// fail logs err and wraps it as a storage error.
func (r *Repository) fail(op string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+4)
	fields = append(fields, "op", op, "error", err.Error())
	fields = append(fields, attrs...)
	r.logger.Error("postgres repository operation failed", fields...)
	return domain.ErrStorage.WithCause(err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes s match literally inside a LIKE pattern using '\' as the
// escape character.
func escapeLike(s string) string { return likeEscaper.Replace(s) }
