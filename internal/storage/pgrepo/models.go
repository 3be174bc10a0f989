package pgrepo

import (
	"time"

	"github.com/yndnr/secdesk-go/internal/core/domain"
)

type userModel struct {
	ID                string     `gorm:"column:id;primaryKey"`
	Email             string     `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash      string     `gorm:"column:password_hash;not null"`
	FullName          string     `gorm:"column:full_name"`
	Role              string     `gorm:"column:role"`
	Sector            string     `gorm:"column:sector"`
	Bio               string     `gorm:"column:bio"`
	Location          string     `gorm:"column:location"`
	Status            string     `gorm:"column:status"`
	ResetTokenHash    *string    `gorm:"column:reset_token_hash;uniqueIndex"`
	ResetTokenExpires *time.Time `gorm:"column:reset_token_expires"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (userModel) TableName() string { return "users" }

func userModelFromEntity(u *domain.User) userModel {
	row := userModel{
		ID:           u.ID,
		Email:        domain.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		Role:         u.Role,
		Sector:       u.Sector,
		Bio:          u.Bio,
		Location:     u.Location,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
	// NULLs keep the unique index from colliding on cleared tokens.
	if u.ResetTokenHash != "" {
		h := u.ResetTokenHash
		row.ResetTokenHash = &h
	}
	if u.ResetTokenExpires != nil {
		t := u.ResetTokenExpires.UTC()
		row.ResetTokenExpires = &t
	}
	return row
}

func (m userModel) toEntity() *domain.User {
	u := &domain.User{
		ID:                m.ID,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		FullName:          m.FullName,
		Role:              m.Role,
		Sector:            m.Sector,
		Bio:               m.Bio,
		Location:          m.Location,
		Status:            m.Status,
		ResetTokenExpires: m.ResetTokenExpires,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
	if m.ResetTokenHash != nil {
		u.ResetTokenHash = *m.ResetTokenHash
	}
	return u
}

type issueModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	UserID      string    `gorm:"column:user_id;index;not null"`
	Type        string    `gorm:"column:type;not null"`
	Title       string    `gorm:"column:title;size:100;not null"`
	Description string    `gorm:"column:description;not null"`
	Priority    string    `gorm:"column:priority;not null"`
	Status      string    `gorm:"column:status;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (issueModel) TableName() string { return "issues" }

func issueModelFromEntity(i *domain.Issue) issueModel {
	return issueModel{
		ID:          i.ID,
		UserID:      i.UserID,
		Type:        string(i.Type),
		Title:       i.Title,
		Description: i.Description,
		Priority:    string(i.Priority),
		Status:      string(i.Status),
		CreatedAt:   i.CreatedAt.UTC(),
		UpdatedAt:   i.UpdatedAt.UTC(),
	}
}

func (m issueModel) toEntity() *domain.Issue {
	return &domain.Issue{
		ID:          m.ID,
		UserID:      m.UserID,
		Type:        domain.IssueType(m.Type),
		Title:       m.Title,
		Description: m.Description,
		Priority:    domain.IssuePriority(m.Priority),
		Status:      domain.IssueStatus(m.Status),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type postModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	UserID    string    `gorm:"column:user_id;index;not null"`
	Content   string    `gorm:"column:content;size:280;not null"`
	CreatedAt time.Time `gorm:"column:created_at;index;autoCreateTime:false"`
}

func (postModel) TableName() string { return "posts" }

func (m postModel) toEntity() *domain.Post {
	return &domain.Post{
		ID:        m.ID,
		UserID:    m.UserID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type likeModel struct {
	PostID    string    `gorm:"column:post_id;primaryKey"`
	UserID    string    `gorm:"column:user_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime:false"`
}

func (likeModel) TableName() string { return "likes" }
