package sessions

import (
	"time"

	"github.com/google/uuid"

	"github.com/studymesh/studymesh-backend/internal/domain/plans"
	"github.com/studymesh/studymesh-backend/internal/domain/user"
)

// LearningSession is one bounded interaction period. The plan reference is
// weak: deleting the plan nullifies StudyPlanID and the session history
// survives. EndedAt is set exactly once, when status reaches completed.
type LearningSession struct {
	ID     uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	StudyPlanID *uuid.UUID       `gorm:"type:uuid;index" json:"study_plan_id,omitempty"`
	StudyPlan   *plans.StudyPlan `gorm:"constraint:OnDelete:SET NULL;foreignKey:StudyPlanID;references:ID" json:"study_plan,omitempty"`

	Status SessionStatus `gorm:"column:status;not null;default:'active';index" json:"status"`

	StartedAt time.Time  `gorm:"column:started_at;not null;default:now()" json:"started_at"`
	EndedAt   *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (LearningSession) TableName() string { return "learning_session" }
