// Package kvrepo implements the service repositories on an embedded
// key-value engine.
//
// Values are JSON documents. Key layout:
//
//	users/<id>                  user record
//	users_by_email/<email>      user id
//	users_by_reset/<hash>       user id
//	issues/<id>                 issue
//	issues_by_owner/<uid>/<id>  empty marker
//	posts/<id>                  post
//	likes/<post>/<user>         empty marker
package kvrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/yndnr/secdesk-go/internal/core/domain"
	"github.com/yndnr/secdesk-go/internal/core/service"
	"github.com/yndnr/secdesk-go/internal/storage"
)

const (
	prefixUsers         = "users/"
	prefixUsersByEmail  = "users_by_email/"
	prefixUsersByReset  = "users_by_reset/"
	prefixIssues        = "issues/"
	prefixIssuesByOwner = "issues_by_owner/"
	prefixPosts         = "posts/"
	prefixLikes         = "likes/"
)

// Repository implements the user, issue and post repositories.
type Repository struct {
	kv storage.KVEngine

	// mu serializes writes that touch more than one key so concurrent
	// transactions never conflict.
	mu sync.Mutex
}

var (
	_ service.UserRepository  = (*Repository)(nil)
	_ service.IssueRepository = (*Repository)(nil)
	_ service.PostRepository  = (*Repository)(nil)
)

// New creates a repository on kv.
func New(kv storage.KVEngine) *Repository {
	return &Repository{kv: kv}
}

func key(prefix string, parts ...string) []byte {
	k := prefix
	for i, p := range parts {
		if i > 0 {
			k += "/"
		}
		k += p
	}
	return []byte(k)
}

func (r *Repository) getJSON(ctx context.Context, k []byte, v any, notFound error) error {
	data, err := r.kv.Get(ctx, k)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return notFound
		}
		return storageErr(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return storageErr(fmt.Errorf("decode %s: %w", k, err))
	}
	return nil
}

func unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func putJSON(tx storage.KVTxn, k []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	return tx.Set(k, data)
}

func exists(tx storage.KVTxn, k []byte) (bool, error) {
	_, err := tx.Get(k)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// storageErr wraps engine failures. Domain errors pass through.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.ErrStorage.WithCause(err)
}
