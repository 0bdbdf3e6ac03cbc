package aggregates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var PlanAggregateContract = Contract{
	Name:             "Plans.PlanAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns version immutability, lineage version uniqueness, and the contiguous section order invariant.",
}

// PlanAggregate owns plan-version creation and the plan status machine. A
// version's payload is never mutated in place; Regenerate writes a sibling
// row with the next version number on the same lineage.
type PlanAggregate interface {
	Aggregate

	// Create writes a v1 draft plan and its full ordered section set in one
	// transaction. Section orders must be contiguous from zero.
	Create(ctx context.Context, in CreatePlanInput) (CreatePlanResult, error)

	// Regenerate writes a new version on an existing lineage, preserving
	// every earlier version.
	Regenerate(ctx context.Context, in RegeneratePlanInput) (CreatePlanResult, error)

	Activate(ctx context.Context, planID uuid.UUID) error
	Complete(ctx context.Context, planID uuid.UUID) error
	Archive(ctx context.Context, planID uuid.UUID) error

	// ReorderSections replaces the whole order assignment for a plan's
	// sections so no transient duplicate order is ever observable.
	ReorderSections(ctx context.Context, in ReorderSectionsInput) error

	Delete(ctx context.Context, planID uuid.UUID) error
}

type SectionInput struct {
	Title            string
	Description      string
	Index            int
	EstimatedMinutes *int
	Content          datatypes.JSON
}

type CreatePlanInput struct {
	UserID      uuid.UUID
	DocumentID  uuid.UUID
	Plan        datatypes.JSON
	Title       string
	Familiarity string
	Goal        string
	Sections    []SectionInput
}

type RegeneratePlanInput struct {
	// RootPlanID identifies the lineage being regenerated.
	RootPlanID uuid.UUID
	Plan       datatypes.JSON
	Title      string
	Sections   []SectionInput
}

type CreatePlanResult struct {
	PlanID     uuid.UUID
	RootPlanID uuid.UUID
	Version    int
	SectionIDs []uuid.UUID
}

// ReorderSectionsInput maps every section of the plan to its new order
// value. Partial assignments are rejected.
type ReorderSectionsInput struct {
	PlanID uuid.UUID
	Order  map[uuid.UUID]int
}
