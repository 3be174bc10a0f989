package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/yndnr/secdesk-go/internal/core/domain"
)

// PostService manages the team feed.
type PostService struct {
	posts PostRepository
	users UserRepository
	now   Clock
}

// NewPostService creates a new PostService.
func NewPostService(posts PostRepository, users UserRepository, clock Clock) *PostService {
	if clock == nil {
		clock = time.Now
	}
	return &PostService{posts: posts, users: users, now: clock}
}

// Create publishes a post by author.
func (s *PostService) Create(ctx context.Context, author string, in *domain.CreatePostInput) (*domain.Post, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	id, err := domain.NewID(domain.PostIDPrefix)
	if err != nil {
		return nil, err
	}
	post := &domain.Post{
		ID:        id,
		UserID:    author,
		Content:   in.Content,
		CreatedAt: s.now(),
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Feed returns every post newest first, decorated for viewer.
func (s *PostService) Feed(ctx context.Context, viewer string) ([]*domain.FeedItem, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	authors := make(map[string]domain.Author)
	items := make([]*domain.FeedItem, 0, len(posts))
	for _, p := range posts {
		author, ok := authors[p.UserID]
		if !ok {
			author, err = s.author(ctx, p.UserID)
			if err != nil {
				return nil, err
			}
			authors[p.UserID] = author
		}

		likes, err := s.posts.ListLikes(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		item := &domain.FeedItem{Post: *p, Author: author, LikeCount: len(likes)}
		for _, uid := range likes {
			if uid == viewer {
				item.IsLiked = true
				break
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *PostService) author(ctx context.Context, id string) (domain.Author, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Author{}, nil
		}
		return domain.Author{}, err
	}
	return domain.Author{FullName: user.FullName, Role: user.Role}, nil
}

// ToggleLike flips viewer's like on postID and returns the new state.
func (s *PostService) ToggleLike(ctx context.Context, postID, viewer string) (bool, error) {
	if !domain.IsValidID(domain.PostIDPrefix, postID) {
		return false, domain.ErrPostNotFound
	}
	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return false, err
	}
	return s.posts.ToggleLike(ctx, postID, viewer)
}
