package kvrepo

import (
	"context"
	"errors"
	"time"

	"github.com/yndnr/secdesk-go/internal/core/domain"
	"github.com/yndnr/secdesk-go/internal/storage"
)

// userRecord is the stored form of domain.User, including the fields the
// API representation hides.
type userRecord struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"password_hash"`
	FullName          string     `json:"full_name,omitempty"`
	Role              string     `json:"role,omitempty"`
	Sector            string     `json:"sector,omitempty"`
	Bio               string     `json:"bio,omitempty"`
	Location          string     `json:"location,omitempty"`
	Status            string     `json:"status,omitempty"`
	ResetTokenHash    string     `json:"reset_token_hash,omitempty"`
	ResetTokenExpires *time.Time `json:"reset_token_expires,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toRecord(u *domain.User) *userRecord {
	c := u.Clone()
	return &userRecord{
		ID:                c.ID,
		Email:             c.Email,
		PasswordHash:      c.PasswordHash,
		FullName:          c.FullName,
		Role:              c.Role,
		Sector:            c.Sector,
		Bio:               c.Bio,
		Location:          c.Location,
		Status:            c.Status,
		ResetTokenHash:    c.ResetTokenHash,
		ResetTokenExpires: c.ResetTokenExpires,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func (rec *userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:                rec.ID,
		Email:             rec.Email,
		PasswordHash:      rec.PasswordHash,
		FullName:          rec.FullName,
		Role:              rec.Role,
		Sector:            rec.Sector,
		Bio:               rec.Bio,
		Location:          rec.Location,
		Status:            rec.Status,
		ResetTokenHash:    rec.ResetTokenHash,
		ResetTokenExpires: rec.ResetTokenExpires,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
}

// CreateUser stores user and its email index.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	email := domain.NormalizeEmail(user.Email)
	rec := toRecord(user)
	rec.Email = email

	r.mu.Lock()
	defer r.mu.Unlock()

	return storageErr(r.kv.Update(ctx, func(tx storage.KVTxn) error {
		taken, err := exists(tx, key(prefixUsersByEmail, email))
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrUserExists
		}
		if err := putJSON(tx, key(prefixUsers, rec.ID), rec); err != nil {
			return err
		}
		if err := tx.Set(key(prefixUsersByEmail, email), []byte(rec.ID)); err != nil {
			return err
		}
		if rec.ResetTokenHash != "" {
			return tx.Set(key(prefixUsersByReset, rec.ResetTokenHash), []byte(rec.ID))
		}
		return nil
	}))
}

// GetUser returns the user with id.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var rec userRecord
	if err := r.getJSON(ctx, key(prefixUsers, id), &rec, domain.ErrUserNotFound); err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

// GetUserByEmail resolves the email index.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.lookupUser(ctx, key(prefixUsersByEmail, domain.NormalizeEmail(email)))
}

// GetUserByResetToken resolves the reset token index.
func (r *Repository) GetUserByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	if tokenHash == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.lookupUser(ctx, key(prefixUsersByReset, tokenHash))
}

func (r *Repository) lookupUser(ctx context.Context, index []byte) (*domain.User, error) {
	id, err := r.kv.Get(ctx, index)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storageErr(err)
	}
	return r.GetUser(ctx, string(id))
}

// UpdateUser replaces the stored user and moves its email and reset token
// indexes when they changed.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	rec := toRecord(user)
	rec.Email = domain.NormalizeEmail(rec.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	return storageErr(r.kv.Update(ctx, func(tx storage.KVTxn) error {
		data, err := tx.Get(key(prefixUsers, rec.ID))
		if err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		var old userRecord
		if err := unmarshal(data, &old); err != nil {
			return err
		}

		if old.Email != rec.Email {
			taken, err := exists(tx, key(prefixUsersByEmail, rec.Email))
			if err != nil {
				return err
			}
			if taken {
				return domain.ErrUserExists
			}
			if err := tx.Delete(key(prefixUsersByEmail, old.Email)); err != nil {
				return err
			}
			if err := tx.Set(key(prefixUsersByEmail, rec.Email), []byte(rec.ID)); err != nil {
				return err
			}
		}

		if old.ResetTokenHash != rec.ResetTokenHash {
			if old.ResetTokenHash != "" {
				if err := tx.Delete(key(prefixUsersByReset, old.ResetTokenHash)); err != nil {
					return err
				}
			}
			if rec.ResetTokenHash != "" {
				if err := tx.Set(key(prefixUsersByReset, rec.ResetTokenHash), []byte(rec.ID)); err != nil {
					return err
				}
			}
		}

		return putJSON(tx, key(prefixUsers, rec.ID), rec)
	}))
}
