package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the ownership root for documents, study plans, and learning
// sessions. PasswordHash is empty for OAuth-only accounts and is never a
// plaintext credential.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`

	IsActive    bool `gorm:"column:is_active;not null;default:true" json:"is_active"`
	IsSuperuser bool `gorm:"column:is_superuser;not null;default:false" json:"is_superuser"`
	IsVerified  bool `gorm:"column:is_verified;not null;default:false" json:"is_verified"`

	Name      string  `gorm:"column:name" json:"name,omitempty"`
	Slug      *string `gorm:"column:slug;uniqueIndex" json:"slug,omitempty"`
	AvatarURL string  `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	Bio       string  `gorm:"column:bio;type:text" json:"bio,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string { return "user" }
