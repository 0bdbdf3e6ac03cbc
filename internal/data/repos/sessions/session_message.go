package sessions

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studymesh/studymesh-backend/internal/domain"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
	"github.com/studymesh/studymesh-backend/internal/platform/logger"
)

type SessionMessageRepo interface {
	Create(dbc dbctx.Context, rows []*types.SessionMessage) ([]*types.SessionMessage, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SessionMessage, error)
	// ListBySession returns the transcript in insertion order.
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.SessionMessage, error)
	CountBySession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type sessionMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionMessageRepo(db *gorm.DB, baseLog *logger.Logger) SessionMessageRepo {
	return &sessionMessageRepo{db: db, log: baseLog.With("repo", "SessionMessageRepo")}
}

func (r *sessionMessageRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *sessionMessageRepo) Create(dbc dbctx.Context, rows []*types.SessionMessage) ([]*types.SessionMessage, error) {
	if len(rows) == 0 {
		return []*types.SessionMessage{}, nil
	}
	if err := r.conn(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sessionMessageRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SessionMessage, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing session_message_id")
	}
	var m types.SessionMessage
	if err := r.conn(dbc).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *sessionMessageRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.SessionMessage, error) {
	var rows []*types.SessionMessage
	if sessionID == uuid.Nil {
		return rows, nil
	}
	if err := r.conn(dbc).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sessionMessageRepo) CountBySession(dbc dbctx.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	if sessionID == uuid.Nil {
		return 0, nil
	}
	if err := r.conn(dbc).
		Model(&types.SessionMessage{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *sessionMessageRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	if id == uuid.Nil {
		return 0, nil
	}
	res := r.conn(dbc).Where("id = ?", id).Delete(&types.SessionMessage{})
	return res.RowsAffected, res.Error
}
