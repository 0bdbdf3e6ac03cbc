package sessions

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studymesh/studymesh-backend/internal/domain"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
	"github.com/studymesh/studymesh-backend/internal/platform/logger"
)

type LearningSessionRepo interface {
	Create(dbc dbctx.Context, rows []*types.LearningSession) ([]*types.LearningSession, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningSession, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningSession, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.LearningSession, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	UpdateStatusFrom(dbc dbctx.Context, id uuid.UUID, allowedFrom []types.SessionStatus, next types.SessionStatus, extra map[string]any) (bool, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type learningSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningSessionRepo(db *gorm.DB, baseLog *logger.Logger) LearningSessionRepo {
	return &learningSessionRepo{db: db, log: baseLog.With("repo", "LearningSessionRepo")}
}

func (r *learningSessionRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *learningSessionRepo) Create(dbc dbctx.Context, rows []*types.LearningSession) ([]*types.LearningSession, error) {
	if len(rows) == 0 {
		return []*types.LearningSession{}, nil
	}
	if err := r.conn(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *learningSessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningSession, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	var s types.LearningSession
	if err := r.conn(dbc).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *learningSessionRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningSession, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	var s types.LearningSession
	if err := r.conn(dbc).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *learningSessionRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.LearningSession, error) {
	var rows []*types.LearningSession
	if userID == uuid.Nil {
		return rows, nil
	}
	if err := r.conn(dbc).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *learningSessionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.conn(dbc).
		Model(&types.LearningSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateStatusFrom moves status only when the current value is in allowedFrom.
// extra carries fields that must land in the same write, e.g. ended_at on
// completion.
func (r *learningSessionRepo) UpdateStatusFrom(dbc dbctx.Context, id uuid.UUID, allowedFrom []types.SessionStatus, next types.SessionStatus, extra map[string]any) (bool, error) {
	if id == uuid.Nil || len(allowedFrom) == 0 {
		return false, fmt.Errorf("missing session_id or allowed statuses")
	}
	updates := map[string]any{
		"status":     next,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range extra {
		updates[k] = v
	}
	res := r.conn(dbc).
		Model(&types.LearningSession{}).
		Where("id = ? AND status IN ?", id, allowedFrom).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *learningSessionRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	if id == uuid.Nil {
		return 0, nil
	}
	res := r.conn(dbc).Where("id = ?", id).Delete(&types.LearningSession{})
	return res.RowsAffected, res.Error
}
