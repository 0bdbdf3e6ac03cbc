package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var IdentityAggregateContract = Contract{
	Name:             "Identity.UserAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns user registration uniqueness, flag mutation, and the outward deletion cascade.",
}

// IdentityAggregate owns the user lifecycle. Register supports an explicit
// create-if-absent path: a duplicate email either returns the existing row
// untouched (IfAbsent) or a conflict error, never a silent overwrite.
type IdentityAggregate interface {
	Aggregate

	Register(ctx context.Context, in RegisterUserInput) (RegisterUserResult, error)
	SetFlags(ctx context.Context, in SetUserFlagsInput) error
	Delete(ctx context.Context, userID uuid.UUID) error

	StoreRefreshToken(ctx context.Context, in StoreRefreshTokenInput) (StoreRefreshTokenResult, error)
	RevokeRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

type RegisterUserInput struct {
	Email    string
	Password string // plaintext in, hashed before any write
	Name     string
	Slug     string
	// IfAbsent turns a duplicate email into a no-op returning the existing
	// user instead of a conflict.
	IfAbsent bool
}

type RegisterUserResult struct {
	UserID  uuid.UUID
	Created bool
}

// SetUserFlagsInput carries independently mutable booleans; nil means leave
// the flag unchanged.
type SetUserFlagsInput struct {
	UserID      uuid.UUID
	IsActive    *bool
	IsSuperuser *bool
	IsVerified  *bool
}

type StoreRefreshTokenInput struct {
	UserID    uuid.UUID
	TokenHash string // SHA-256 hex digest, never the raw token
	ExpiresAt time.Time
}

type StoreRefreshTokenResult struct {
	TokenID uuid.UUID
}
