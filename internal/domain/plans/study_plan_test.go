package plans

import "testing"

func TestPlanStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to PlanStatus
		want     bool
	}{
		{PlanStatusDraft, PlanStatusActive, true},
		{PlanStatusDraft, PlanStatusArchived, true},
		{PlanStatusDraft, PlanStatusCompleted, false},
		{PlanStatusActive, PlanStatusCompleted, true},
		{PlanStatusActive, PlanStatusArchived, true},
		{PlanStatusActive, PlanStatusDraft, false},
		{PlanStatusCompleted, PlanStatusActive, false},
		{PlanStatusCompleted, PlanStatusArchived, false},
		{PlanStatusArchived, PlanStatusDraft, false},
		{PlanStatusArchived, PlanStatusActive, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
