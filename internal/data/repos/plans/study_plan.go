package plans

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

type StudyPlanRepo interface {
	Create(dbc dbctx.Context, plans []*types.StudyPlan) ([]*types.StudyPlan, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.StudyPlan, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.StudyPlan, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.StudyPlan, error)
	GetByDocumentID(dbc dbctx.Context, documentID uuid.UUID) ([]*types.StudyPlan, error)
	// GetByLineage returns every version sharing a root plan, newest first.
	GetByLineage(dbc dbctx.Context, rootPlanID uuid.UUID) ([]*types.StudyPlan, error)
	// MaxVersionOfLineage reads the highest version under a root plan with a
	// row lock, so concurrent regenerations serialize on the lineage head.
	MaxVersionOfLineage(dbc dbctx.Context, rootPlanID uuid.UUID) (int, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	UpdateStatusFrom(dbc dbctx.Context, id uuid.UUID, allowedFrom []types.PlanStatus, next types.PlanStatus) (bool, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type studyPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudyPlanRepo(db *gorm.DB, baseLog *logger.Logger) StudyPlanRepo {
	return &studyPlanRepo{db: db, log: baseLog.With("repo", "StudyPlanRepo")}
}

func (r *studyPlanRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *studyPlanRepo) Create(dbc dbctx.Context, plans []*types.StudyPlan) ([]*types.StudyPlan, error) {
	if len(plans) == 0 {
		return []*types.StudyPlan{}, nil
	}
	if err := r.conn(dbc).Create(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *studyPlanRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.StudyPlan, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing study_plan_id")
	}
	var plan types.StudyPlan
	if err := r.conn(dbc).Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *studyPlanRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.StudyPlan, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing study_plan_id")
	}
	var plan types.StudyPlan
	if err := r.conn(dbc).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *studyPlanRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.StudyPlan, error) {
	var plans []*types.StudyPlan
	if userID == uuid.Nil {
		return plans, nil
	}
	if err := r.conn(dbc).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *studyPlanRepo) GetByDocumentID(dbc dbctx.Context, documentID uuid.UUID) ([]*types.StudyPlan, error) {
	var plans []*types.StudyPlan
	if documentID == uuid.Nil {
		return plans, nil
	}
	if err := r.conn(dbc).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *studyPlanRepo) GetByLineage(dbc dbctx.Context, rootPlanID uuid.UUID) ([]*types.StudyPlan, error) {
	var plans []*types.StudyPlan
	if rootPlanID == uuid.Nil {
		return plans, nil
	}
	if err := r.conn(dbc).
		Where("root_plan_id = ?", rootPlanID).
		Order("version DESC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *studyPlanRepo) MaxVersionOfLineage(dbc dbctx.Context, rootPlanID uuid.UUID) (int, error) {
	if rootPlanID == uuid.Nil {
		return 0, fmt.Errorf("missing root_plan_id")
	}
	var plans []*types.StudyPlan
	if err := r.conn(dbc).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("root_plan_id = ?", rootPlanID).
		Order("version DESC").
		Limit(1).
		Find(&plans).Error; err != nil {
		return 0, err
	}
	if len(plans) == 0 {
		return 0, nil
	}
	return plans[0].Version, nil
}

func (r *studyPlanRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.conn(dbc).
		Model(&types.StudyPlan{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *studyPlanRepo) UpdateStatusFrom(dbc dbctx.Context, id uuid.UUID, allowedFrom []types.PlanStatus, next types.PlanStatus) (bool, error) {
	if id == uuid.Nil || len(allowedFrom) == 0 {
		return false, fmt.Errorf("missing study_plan_id or allowed statuses")
	}
	res := r.conn(dbc).
		Model(&types.StudyPlan{}).
		Where("id = ? AND status IN ?", id, allowedFrom).
		Updates(map[string]any{
			"status":     next,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *studyPlanRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	if id == uuid.Nil {
		return 0, nil
	}
	res := r.conn(dbc).Where("id = ?", id).Delete(&types.StudyPlan{})
	return res.RowsAffected, res.Error
}
