package kvrepo

import (
	"context"
	"errors"

	"github.com/yndnr/secdesk-go/internal/core/domain"
	"github.com/yndnr/secdesk-go/internal/storage"
)

// CreateIssue stores issue and indexes it under its owner.
func (r *Repository) CreateIssue(ctx context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return storageErr(r.kv.Update(ctx, func(tx storage.KVTxn) error {
		if err := putJSON(tx, key(prefixIssues, issue.ID), issue); err != nil {
			return err
		}
		return tx.Set(key(prefixIssuesByOwner, issue.UserID, issue.ID), []byte{})
	}))
}

// GetIssue returns the issue with id.
func (r *Repository) GetIssue(ctx context.Context, id string) (*domain.Issue, error) {
	var issue domain.Issue
	if err := r.getJSON(ctx, key(prefixIssues, id), &issue, domain.ErrIssueNotFound); err != nil {
		return nil, err
	}
	return &issue, nil
}

// ListIssues walks the owner index and keeps the issues matching filter.
func (r *Repository) ListIssues(ctx context.Context, userID string, filter domain.IssueFilter) ([]*domain.Issue, error) {
	prefix := key(prefixIssuesByOwner, userID, "")

	var ids []string
	err := r.kv.Scan(ctx, prefix, func(k, _ []byte) bool {
		ids = append(ids, string(k[len(prefix):]))
		return true
	})
	if err != nil {
		return nil, storageErr(err)
	}

	issues := make([]*domain.Issue, 0, len(ids))
	for _, id := range ids {
		issue, err := r.GetIssue(ctx, id)
		if errors.Is(err, domain.ErrIssueNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if issue.Matches(filter) {
			issues = append(issues, issue)
		}
	}
	return issues, nil
}

// UpdateIssue replaces a stored issue.
func (r *Repository) UpdateIssue(ctx context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return storageErr(r.kv.Update(ctx, func(tx storage.KVTxn) error {
		ok, err := exists(tx, key(prefixIssues, issue.ID))
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrIssueNotFound
		}
		return putJSON(tx, key(prefixIssues, issue.ID), issue)
	}))
}

// DeleteIssue removes an issue and its owner index entry.
func (r *Repository) DeleteIssue(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return storageErr(r.kv.Update(ctx, func(tx storage.KVTxn) error {
		data, err := tx.Get(key(prefixIssues, id))
		if err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				return domain.ErrIssueNotFound
			}
			return err
		}
		var issue domain.Issue
		if err := unmarshal(data, &issue); err != nil {
			return err
		}
		if err := tx.Delete(key(prefixIssuesByOwner, issue.UserID, id)); err != nil {
			return err
		}
		return tx.Delete(key(prefixIssues, id))
	}))
}
