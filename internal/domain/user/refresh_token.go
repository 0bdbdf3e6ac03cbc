package user

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken stores only a SHA-256 digest of the issued token, so a DB
// dump never leaks usable credentials. Rows die with their user.
type RefreshToken struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	TokenHash string    `gorm:"column:token_hash;not null" json:"-"`
	IssuedAt  time.Time `gorm:"column:issued_at;not null;default:now()" json:"issued_at"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	Revoked   bool      `gorm:"column:revoked;not null;default:false" json:"revoked"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (RefreshToken) TableName() string { return "refresh_token" }

// Usable reports whether the token is neither revoked nor expired at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}
