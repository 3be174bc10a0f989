package kvrepo

import (
	"context"
	"encoding/json"

	"github.com/yndnr/secdesk-go/internal/core/domain"
	"github.com/yndnr/secdesk-go/internal/storage"
)

// CreatePost stores post.
func (r *Repository) CreatePost(ctx context.Context, post *domain.Post) error {
	return storageErr(r.kv.Update(ctx, func(tx storage.KVTxn) error {
		return putJSON(tx, key(prefixPosts, post.ID), post)
	}))
}

// GetPost returns the post with id.
func (r *Repository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := r.getJSON(ctx, key(prefixPosts, id), &post, domain.ErrPostNotFound); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPosts returns every post.
func (r *Repository) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	var (
		posts  []*domain.Post
		decErr error
	)
	err := r.kv.Scan(ctx, []byte(prefixPosts), func(_, v []byte) bool {
		var p domain.Post
		if decErr = json.Unmarshal(v, &p); decErr != nil {
			return false
		}
		posts = append(posts, &p)
		return true
	})
	if err == nil {
		err = decErr
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return posts, nil
}

// ListLikes returns the users who like postID.
func (r *Repository) ListLikes(ctx context.Context, postID string) ([]string, error) {
	prefix := key(prefixLikes, postID, "")

	var users []string
	err := r.kv.Scan(ctx, prefix, func(k, _ []byte) bool {
		users = append(users, string(k[len(prefix):]))
		return true
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return users, nil
}

// ToggleLike flips the like marker and reports the new state.
func (r *Repository) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var liked bool
	err := r.kv.Update(ctx, func(tx storage.KVTxn) error {
		ok, err := exists(tx, key(prefixPosts, postID))
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrPostNotFound
		}

		k := key(prefixLikes, postID, userID)
		had, err := exists(tx, k)
		if err != nil {
			return err
		}
		if had {
			liked = false
			return tx.Delete(k)
		}
		liked = true
		return tx.Set(k, []byte{})
	})
	if err != nil {
		return false, storageErr(err)
	}
	return liked, nil
}
