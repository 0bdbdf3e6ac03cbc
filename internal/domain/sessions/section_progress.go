package sessions

import (
	"time"

	"github.com/google/uuid"

	"github.com/studymesh/studymesh-backend/internal/domain/plans"
)

// SectionProgress is the per-(session, section) ledger row. Exactly one row
// exists per pair; a missing row reads as pending. StartedAt is stamped on
// pending -> in_progress, CompletedAt only when status becomes completed.
type SectionProgress struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID        `gorm:"type:uuid;not null;index" json:"session_id"`
	Session   *LearningSession `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"session,omitempty"`

	SectionID uuid.UUID               `gorm:"type:uuid;not null;index" json:"section_id"`
	Section   *plans.StudyPlanSection `gorm:"constraint:OnDelete:CASCADE;foreignKey:SectionID;references:ID" json:"section,omitempty"`

	Status ProgressStatus `gorm:"column:status;not null;default:'pending'" json:"status"`

	StartedAt   *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SectionProgress) TableName() string { return "section_progress" }
