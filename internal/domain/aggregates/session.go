package aggregates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studymesh/studymesh-backend/internal/domain/sessions"
)

var SessionAggregateContract = Contract{
	Name:             "Sessions.SessionAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns the session status machine, the one-progress-row-per-section invariant, and transcript appends.",
}

// SessionAggregate owns the session lifecycle, the per-section progress
// ledger, and the append-only transcript.
type SessionAggregate interface {
	Aggregate

	// Start creates a session. With a plan reference it materializes a
	// pending progress row per section in the same transaction; ad-hoc
	// sessions have no rows and absence reads as pending.
	Start(ctx context.Context, in StartSessionInput) (StartSessionResult, error)

	Pause(ctx context.Context, sessionID uuid.UUID) error
	Resume(ctx context.Context, sessionID uuid.UUID) error
	// Complete is terminal and the only writer of ended_at.
	Complete(ctx context.Context, sessionID uuid.UUID) error

	StartSection(ctx context.Context, sessionID, sectionID uuid.UUID) error
	CompleteSection(ctx context.Context, sessionID, sectionID uuid.UUID) error
	SkipSection(ctx context.Context, sessionID, sectionID uuid.UUID) error

	// AppendMessage writes a transcript turn and its tool-call records in
	// one transaction.
	AppendMessage(ctx context.Context, in AppendMessageInput) (AppendMessageResult, error)

	// DeleteMessage removes a transcript row; tool-call records referencing
	// it are retained for the audit/cost history.
	DeleteMessage(ctx context.Context, messageID uuid.UUID) error

	Delete(ctx context.Context, sessionID uuid.UUID) error
}

type StartSessionInput struct {
	UserID      uuid.UUID
	StudyPlanID *uuid.UUID
	// Deferred starts the session in pending instead of active.
	Deferred bool
}

type StartSessionResult struct {
	SessionID   uuid.UUID
	Status      sessions.SessionStatus
	ProgressIDs []uuid.UUID
}

type ToolCallInput struct {
	ToolName string
	Params   datatypes.JSON
	Response datatypes.JSON
}

type AppendMessageInput struct {
	SessionID     uuid.UUID
	Role          sessions.MessageRole
	Content       string
	ToolCalled    string
	LatencyMS     *int
	TokensInput   *int
	TokensOutput  *int
	CostUSDMillis *int
	ToolCalls     []ToolCallInput
}

type AppendMessageResult struct {
	MessageID   uuid.UUID
	ToolCallIDs []int64
}
