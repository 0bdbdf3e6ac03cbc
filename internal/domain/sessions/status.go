package sessions

// SessionStatus is the learning-session state machine. active and paused
// swap freely; completed is terminal and the only state with ended_at set.
// pending exists for deferred-start sessions and moves to active once.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusPaused    SessionStatus = "paused"
	SessionStatusCompleted SessionStatus = "completed"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusPending, SessionStatusActive, SessionStatusPaused, SessionStatusCompleted:
		return true
	}
	return false
}

func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionStatusPending:
		return next == SessionStatusActive
	case SessionStatusActive:
		return next == SessionStatusPaused || next == SessionStatusCompleted
	case SessionStatusPaused:
		return next == SessionStatusActive || next == SessionStatusCompleted
	case SessionStatusCompleted:
		return false
	}
	return false
}

// ProgressStatus is the per-section ledger state. completed and skipped are
// terminal; a review pass after completion is a new semantic event, not a
// reopening of the record.
type ProgressStatus string

const (
	ProgressStatusPending    ProgressStatus = "pending"
	ProgressStatusInProgress ProgressStatus = "in_progress"
	ProgressStatusCompleted  ProgressStatus = "completed"
	ProgressStatusSkipped    ProgressStatus = "skipped"
)

func (s ProgressStatus) Valid() bool {
	switch s {
	case ProgressStatusPending, ProgressStatusInProgress, ProgressStatusCompleted, ProgressStatusSkipped:
		return true
	}
	return false
}

func (s ProgressStatus) CanTransitionTo(next ProgressStatus) bool {
	switch s {
	case ProgressStatusPending:
		return next == ProgressStatusInProgress || next == ProgressStatusSkipped
	case ProgressStatusInProgress:
		return next == ProgressStatusCompleted || next == ProgressStatusSkipped
	case ProgressStatusCompleted, ProgressStatusSkipped:
		return false
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s ProgressStatus) Terminal() bool {
	return s == ProgressStatusCompleted || s == ProgressStatusSkipped
}

// MessageRole tags a transcript turn.
type MessageRole string

const (
	MessageRoleUser MessageRole = "user"
	MessageRoleAI   MessageRole = "ai"
	MessageRoleTool MessageRole = "tool"
)

func (r MessageRole) Valid() bool {
	switch r {
	case MessageRoleUser, MessageRoleAI, MessageRoleTool:
		return true
	}
	return false
}
