package plans

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// StudyPlanSection is an ordered child of a plan version. Index defines the
// traversal sequence and is unique within a plan; reordering replaces the
// whole assignment rather than swapping pairs.
type StudyPlanSection struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudyPlanID uuid.UUID  `gorm:"type:uuid;not null;index" json:"study_plan_id"`
	StudyPlan   *StudyPlan `gorm:"constraint:OnDelete:CASCADE;foreignKey:StudyPlanID;references:ID" json:"study_plan,omitempty"`

	Title       string `gorm:"column:title;not null" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description,omitempty"`
	Index       int    `gorm:"column:index;not null" json:"index"`

	EstimatedMinutes *int `gorm:"column:estimated_minutes" json:"estimated_minutes,omitempty"`

	Content datatypes.JSON `gorm:"column:content;type:jsonb;not null" json:"content"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (StudyPlanSection) TableName() string { return "study_plan_section" }
