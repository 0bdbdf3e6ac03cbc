package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	userrepo "github.com/studymesh/studymesh-backend/internal/data/repos/user"
	types "github.com/studymesh/studymesh-backend/internal/domain"
	domainagg "github.com/studymesh/studymesh-backend/internal/domain/aggregates"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
)

type IdentityAggregateDeps struct {
	Base BaseDeps

	Users         userrepo.UserRepo
	RefreshTokens userrepo.RefreshTokenRepo
}

type identityAggregate struct {
	deps IdentityAggregateDeps
}

func NewIdentityAggregate(deps IdentityAggregateDeps) domainagg.IdentityAggregate {
	deps.Base = deps.Base.withDefaults()
	return &identityAggregate{deps: deps}
}

func (a *identityAggregate) Contract() domainagg.Contract {
	return domainagg.IdentityAggregateContract
}

func (a *identityAggregate) Register(ctx context.Context, in domainagg.RegisterUserInput) (domainagg.RegisterUserResult, error) {
	const op = "Identity.User.Register"
	var out domainagg.RegisterUserResult

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "invalid email", nil)
	}
	if strings.TrimSpace(in.Password) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing password", nil)
	}
	if a.deps.Users == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "identity aggregate repos not configured", nil)
	}

	// Hash outside the tx; bcrypt is slow on purpose.
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "password hashing failed", err)
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		u := &types.User{
			Email:        email,
			PasswordHash: string(hash),
			IsActive:     true,
			Name:         strings.TrimSpace(in.Name),
		}
		if slug := strings.TrimSpace(in.Slug); slug != "" {
			u.Slug = &slug
		}

		if in.IfAbsent {
			created, err := a.deps.Users.CreateIfAbsent(dbc, u)
			if err != nil {
				return err
			}
			if !created {
				existing, err := a.deps.Users.GetByEmail(dbc, email)
				if err != nil {
					return err
				}
				out = domainagg.RegisterUserResult{UserID: existing.ID, Created: false}
				return nil
			}
			out = domainagg.RegisterUserResult{UserID: u.ID, Created: true}
			return nil
		}

		if _, err := a.deps.Users.Create(dbc, []*types.User{u}); err != nil {
			return err
		}
		out = domainagg.RegisterUserResult{UserID: u.ID, Created: true}
		return nil
	})
	return out, err
}

func (a *identityAggregate) SetFlags(ctx context.Context, in domainagg.SetUserFlagsInput) error {
	const op = "Identity.User.SetFlags"
	if in.UserID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.IsActive == nil && in.IsSuperuser == nil && in.IsVerified == nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "no flags to set", nil)
	}

	updates := map[string]any{}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.IsSuperuser != nil {
		updates["is_superuser"] = *in.IsSuperuser
	}
	if in.IsVerified != nil {
		updates["is_verified"] = *in.IsVerified
	}

	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		users, err := a.deps.Users.GetByIDs(dbc, []uuid.UUID{in.UserID})
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("user not found: %s", in.UserID), nil)
		}
		return a.deps.Users.UpdateFields(dbc, in.UserID, updates)
	})
}

func (a *identityAggregate) Delete(ctx context.Context, userID uuid.UUID) error {
	const op = "Identity.User.Delete"
	if userID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}

	// Documents, plans, sessions, progress rows and transcripts go with the
	// user via the FK cascade graph. Tool-call records survive.
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		n, err := a.deps.Users.Delete(dbc, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("user not found: %s", userID), nil)
		}
		return nil
	})
}

func (a *identityAggregate) StoreRefreshToken(ctx context.Context, in domainagg.StoreRefreshTokenInput) (domainagg.StoreRefreshTokenResult, error) {
	const op = "Identity.User.StoreRefreshToken"
	var out domainagg.StoreRefreshTokenResult

	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if strings.TrimSpace(in.TokenHash) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing token hash", nil)
	}
	if !in.ExpiresAt.After(time.Now().UTC()) {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "expires_at must be in the future", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row := &types.RefreshToken{
			UserID:    in.UserID,
			TokenHash: strings.TrimSpace(in.TokenHash),
			IssuedAt:  time.Now().UTC(),
			ExpiresAt: in.ExpiresAt.UTC(),
		}
		if _, err := a.deps.RefreshTokens.Create(dbc, []*types.RefreshToken{row}); err != nil {
			return err
		}
		out = domainagg.StoreRefreshTokenResult{TokenID: row.ID}
		return nil
	})
	return out, err
}

func (a *identityAggregate) RevokeRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	const op = "Identity.User.RevokeRefreshTokens"
	if userID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		_, err := a.deps.RefreshTokens.RevokeByUserID(dbc, userID)
		return err
	})
}
