package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studymesh/studymesh-backend/internal/domain"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
	"github.com/studymesh/studymesh-backend/internal/platform/logger"
)

type RefreshTokenRepo interface {
	Create(dbc dbctx.Context, rows []*types.RefreshToken) ([]*types.RefreshToken, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.RefreshToken, error)
	RevokeByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	DeleteExpired(dbc dbctx.Context, cutoff time.Time) (int64, error)
}

type refreshTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRefreshTokenRepo(db *gorm.DB, baseLog *logger.Logger) RefreshTokenRepo {
	return &refreshTokenRepo{db: db, log: baseLog.With("repo", "RefreshTokenRepo")}
}

func (r *refreshTokenRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *refreshTokenRepo) Create(dbc dbctx.Context, rows []*types.RefreshToken) ([]*types.RefreshToken, error) {
	if len(rows) == 0 {
		return []*types.RefreshToken{}, nil
	}
	if err := r.conn(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *refreshTokenRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.RefreshToken, error) {
	var rows []*types.RefreshToken
	if userID == uuid.Nil {
		return rows, nil
	}
	if err := r.conn(dbc).
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *refreshTokenRepo) RevokeByUserID(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, nil
	}
	res := r.conn(dbc).
		Model(&types.RefreshToken{}).
		Where("user_id = ? AND revoked = false", userID).
		Updates(map[string]any{
			"revoked":    true,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *refreshTokenRepo) DeleteExpired(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	res := r.conn(dbc).
		Where("expires_at < ?", cutoff).
		Delete(&types.RefreshToken{})
	return res.RowsAffected, res.Error
}
