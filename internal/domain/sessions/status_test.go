package sessions

import "testing"

func TestSessionStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to SessionStatus
		want     bool
	}{
		{SessionStatusPending, SessionStatusActive, true},
		{SessionStatusPending, SessionStatusPaused, false},
		{SessionStatusPending, SessionStatusCompleted, false},
		{SessionStatusActive, SessionStatusPaused, true},
		{SessionStatusActive, SessionStatusCompleted, true},
		{SessionStatusActive, SessionStatusPending, false},
		{SessionStatusPaused, SessionStatusActive, true},
		{SessionStatusPaused, SessionStatusCompleted, true},
		{SessionStatusCompleted, SessionStatusActive, false},
		{SessionStatusCompleted, SessionStatusPaused, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestProgressStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ProgressStatus
		want     bool
	}{
		{ProgressStatusPending, ProgressStatusInProgress, true},
		{ProgressStatusPending, ProgressStatusSkipped, true},
		{ProgressStatusPending, ProgressStatusCompleted, false},
		{ProgressStatusInProgress, ProgressStatusCompleted, true},
		{ProgressStatusInProgress, ProgressStatusSkipped, true},
		{ProgressStatusInProgress, ProgressStatusPending, false},
		{ProgressStatusCompleted, ProgressStatusInProgress, false},
		{ProgressStatusSkipped, ProgressStatusInProgress, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}

	if !ProgressStatusCompleted.Terminal() || !ProgressStatusSkipped.Terminal() {
		t.Error("completed and skipped are terminal")
	}
	if ProgressStatusPending.Terminal() || ProgressStatusInProgress.Terminal() {
		t.Error("pending and in_progress are not terminal")
	}
}

func TestMessageRoleValid(t *testing.T) {
	for _, r := range []MessageRole{MessageRoleUser, MessageRoleAI, MessageRoleTool} {
		if !r.Valid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if MessageRole("system").Valid() {
		t.Error("unknown role should be invalid")
	}
}
