package plans

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studymesh/studymesh-backend/internal/domain/documents"
	"github.com/studymesh/studymesh-backend/internal/domain/user"
)

// PlanStatus is the study-plan lifecycle. completed and archived are
// terminal; archived is reachable from any non-completed state.
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusArchived  PlanStatus = "archived"
)

func (s PlanStatus) Valid() bool {
	switch s {
	case PlanStatusDraft, PlanStatusActive, PlanStatusCompleted, PlanStatusArchived:
		return true
	}
	return false
}

func (s PlanStatus) CanTransitionTo(next PlanStatus) bool {
	switch s {
	case PlanStatusDraft:
		return next == PlanStatusActive || next == PlanStatusArchived
	case PlanStatusActive:
		return next == PlanStatusCompleted || next == PlanStatusArchived
	case PlanStatusCompleted, PlanStatusArchived:
		return false
	}
	return false
}

// StudyPlan is one immutable version of a generated plan. RootPlanID names
// the lineage: a v1 row points at itself, regenerated versions point at the
// same root. Payloads are never edited in place; a regeneration writes a new
// row with version = max(lineage)+1.
type StudyPlan struct {
	ID         uuid.UUID           `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID           `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *user.User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	DocumentID uuid.UUID           `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *documents.Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`

	// Lineage identity across versions. No FK: deleting the v1 row must not
	// disturb later versions.
	RootPlanID uuid.UUID `gorm:"type:uuid;not null;index" json:"root_plan_id"`

	Plan  datatypes.JSON `gorm:"column:plan;type:jsonb;not null" json:"plan"`
	Title string         `gorm:"column:title" json:"title,omitempty"`

	Familiarity string `gorm:"column:familiarity" json:"familiarity,omitempty"`
	Goal        string `gorm:"column:goal" json:"goal,omitempty"`

	Version int        `gorm:"column:version;not null;default:1" json:"version"`
	Status  PlanStatus `gorm:"column:status;not null;default:'draft';index" json:"status"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (StudyPlan) TableName() string { return "study_plan" }
