package plans

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studymesh/studymesh-backend/internal/domain"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
	"github.com/studymesh/studymesh-backend/internal/platform/logger"
)

type StudyPlanSectionRepo interface {
	Create(dbc dbctx.Context, sections []*types.StudyPlanSection) ([]*types.StudyPlanSection, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.StudyPlanSection, error)
	GetByPlanID(dbc dbctx.Context, planID uuid.UUID) ([]*types.StudyPlanSection, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	// ShiftIndexes offsets every section index of a plan by delta. Reorders
	// shift out of range first so the final assignment never collides with
	// the (plan, index) uniqueness.
	ShiftIndexes(dbc dbctx.Context, planID uuid.UUID, delta int) error
	DeleteByPlanID(dbc dbctx.Context, planID uuid.UUID) (int64, error)
}

type studyPlanSectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudyPlanSectionRepo(db *gorm.DB, baseLog *logger.Logger) StudyPlanSectionRepo {
	return &studyPlanSectionRepo{db: db, log: baseLog.With("repo", "StudyPlanSectionRepo")}
}

func (r *studyPlanSectionRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *studyPlanSectionRepo) Create(dbc dbctx.Context, sections []*types.StudyPlanSection) ([]*types.StudyPlanSection, error) {
	if len(sections) == 0 {
		return []*types.StudyPlanSection{}, nil
	}
	if err := r.conn(dbc).Create(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *studyPlanSectionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.StudyPlanSection, error) {
	var rows []*types.StudyPlanSection
	if len(ids) == 0 {
		return rows, nil
	}
	if err := r.conn(dbc).
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *studyPlanSectionRepo) GetByPlanID(dbc dbctx.Context, planID uuid.UUID) ([]*types.StudyPlanSection, error) {
	var rows []*types.StudyPlanSection
	if planID == uuid.Nil {
		return rows, nil
	}
	if err := r.conn(dbc).
		Where("study_plan_id = ?", planID).
		Order(`"index" ASC`).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *studyPlanSectionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.conn(dbc).
		Model(&types.StudyPlanSection{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *studyPlanSectionRepo) ShiftIndexes(dbc dbctx.Context, planID uuid.UUID, delta int) error {
	if planID == uuid.Nil {
		return fmt.Errorf("missing study_plan_id")
	}
	if delta == 0 {
		return nil
	}
	return r.conn(dbc).
		Model(&types.StudyPlanSection{}).
		Where("study_plan_id = ?", planID).
		Update("index", gorm.Expr(`"index" + ?`, delta)).Error
}

func (r *studyPlanSectionRepo) DeleteByPlanID(dbc dbctx.Context, planID uuid.UUID) (int64, error) {
	if planID == uuid.Nil {
		return 0, nil
	}
	res := r.conn(dbc).
		Where("study_plan_id = ?", planID).
		Delete(&types.StudyPlanSection{})
	return res.RowsAffected, res.Error
}
