package sessions

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studymesh/studymesh-backend/internal/domain"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
	"github.com/studymesh/studymesh-backend/internal/platform/logger"
)

type SectionProgressRepo interface {
	Create(dbc dbctx.Context, rows []*types.SectionProgress) ([]*types.SectionProgress, error)
	GetBySessionID(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.SectionProgress, error)
	GetBySessionAndSection(dbc dbctx.Context, sessionID, sectionID uuid.UUID) (*types.SectionProgress, error)
	UpdateStatusFrom(dbc dbctx.Context, id uuid.UUID, allowedFrom []types.ProgressStatus, next types.ProgressStatus, extra map[string]any) (bool, error)
	CountBySessionAndStatus(dbc dbctx.Context, sessionID uuid.UUID, status types.ProgressStatus) (int64, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type sectionProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectionProgressRepo(db *gorm.DB, baseLog *logger.Logger) SectionProgressRepo {
	return &sectionProgressRepo{db: db, log: baseLog.With("repo", "SectionProgressRepo")}
}

func (r *sectionProgressRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *sectionProgressRepo) Create(dbc dbctx.Context, rows []*types.SectionProgress) ([]*types.SectionProgress, error) {
	if len(rows) == 0 {
		return []*types.SectionProgress{}, nil
	}
	if err := r.conn(dbc).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sectionProgressRepo) GetBySessionID(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.SectionProgress, error) {
	var rows []*types.SectionProgress
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

func (r *sectionProgressRepo) GetBySessionAndSection(dbc dbctx.Context, sessionID, sectionID uuid.UUID) (*types.SectionProgress, error) {
	if sessionID == uuid.Nil || sectionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id or section_id")
	}
	var row types.SectionProgress
	if err := r.conn(dbc).
		Where("session_id = ? AND section_id = ?", sessionID, sectionID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *sectionProgressRepo) UpdateStatusFrom(dbc dbctx.Context, id uuid.UUID, allowedFrom []types.ProgressStatus, next types.ProgressStatus, extra map[string]any) (bool, error) {
	if id == uuid.Nil || len(allowedFrom) == 0 {
		return false, fmt.Errorf("missing section_progress id or allowed statuses")
	}
	updates := map[string]any{
		"status":     next,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range extra {
		updates[k] = v
	}
	res := r.conn(dbc).
		Model(&types.SectionProgress{}).
		Where("id = ? AND status IN ?", id, allowedFrom).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sectionProgressRepo) CountBySessionAndStatus(dbc dbctx.Context, sessionID uuid.UUID, status types.ProgressStatus) (int64, error) {
	var count int64
	if sessionID == uuid.Nil {
		return 0, nil
	}
	if err := r.conn(dbc).
		Model(&types.SectionProgress{}).
		Where("session_id = ? AND status = ?", sessionID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *sectionProgressRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	if id == uuid.Nil {
		return 0, nil
	}
	res := r.conn(dbc).Where("id = ?", id).Delete(&types.SectionProgress{})
	return res.RowsAffected, res.Error
}
