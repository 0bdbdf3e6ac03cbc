package sessions

import (
	"time"

	"github.com/google/uuid"
)

// SessionMessage is one turn of the session transcript, ordered by creation
// time. Cost is stored in milli-dollars so the ledger never accumulates
// floating-point drift.
type SessionMessage struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID        `gorm:"type:uuid;not null;index" json:"session_id"`
	Session   *LearningSession `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"session,omitempty"`

	Role    MessageRole `gorm:"column:role;not null" json:"role"`
	Content string      `gorm:"column:content;type:text" json:"content,omitempty"`

	// Name of the tool the assistant invoked on this turn, if any. The call
	// payloads live in tool_call rows.
	ToolCalled string `gorm:"column:tool_called" json:"tool_called,omitempty"`

	LatencyMS     *int `gorm:"column:latency_ms" json:"latency_ms,omitempty"`
	TokensInput   *int `gorm:"column:tokens_input" json:"tokens_input,omitempty"`
	TokensOutput  *int `gorm:"column:tokens_output" json:"tokens_output,omitempty"`
	CostUSDMillis *int `gorm:"column:cost_usd_millis" json:"cost_usd_millis,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SessionMessage) TableName() string { return "session_message" }
