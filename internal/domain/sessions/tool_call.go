package sessions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ToolCall is the audit record of one tool invocation. It deliberately has
// no FK to session_message: deleting a message must not erase the cost and
// audit history, so rows are orphaned-but-retained. The bigserial key keeps
// the log append-cheap and naturally ordered.
type ToolCall struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionMessageID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_message_id"`

	ToolName string         `gorm:"column:tool_name;not null" json:"tool_name"`
	Params   datatypes.JSON `gorm:"column:params;type:jsonb" json:"params,omitempty"`
	Response datatypes.JSON `gorm:"column:response;type:jsonb" json:"response,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ToolCall) TableName() string { return "tool_call" }
