package sessions

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studymesh/studymesh-backend/internal/domain"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
	"github.com/studymesh/studymesh-backend/internal/platform/logger"
)

// ToolCallRepo is append-only on purpose. Call logs reference their message
// without a constraint, so they survive message and session deletion as an
// audit trail.
type ToolCallRepo interface {
	Create(dbc dbctx.Context, rows []*types.ToolCall) ([]*types.ToolCall, error)
	ListByMessageID(dbc dbctx.Context, messageID uuid.UUID) ([]*types.ToolCall, error)
	GetByMessageIDs(dbc dbctx.Context, messageIDs []uuid.UUID) ([]*types.ToolCall, error)
}

type toolCallRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewToolCallRepo(db *gorm.DB, baseLog *logger.Logger) ToolCallRepo {
	return &toolCallRepo{db: db, log: baseLog.With("repo", "ToolCallRepo")}
}

func (r *toolCallRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *toolCallRepo) Create(dbc dbctx.Context, rows []*types.ToolCall) ([]*types.ToolCall, error) {
	if len(rows) == 0 {
		return []*types.ToolCall{}, nil
	}
	if err := r.conn(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *toolCallRepo) ListByMessageID(dbc dbctx.Context, messageID uuid.UUID) ([]*types.ToolCall, error) {
	var rows []*types.ToolCall
	if messageID == uuid.Nil {
		return rows, nil
	}
	if err := r.conn(dbc).
		Where("session_message_id = ?", messageID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *toolCallRepo) GetByMessageIDs(dbc dbctx.Context, messageIDs []uuid.UUID) ([]*types.ToolCall, error) {
	var rows []*types.ToolCall
	if len(messageIDs) == 0 {
		return rows, nil
	}
	if err := r.conn(dbc).
		Where("session_message_id IN ?", messageIDs).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
