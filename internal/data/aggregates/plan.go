package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	planrepo "github.com/studymesh/studymesh-backend/internal/data/repos/plans"
	types "github.com/studymesh/studymesh-backend/internal/domain"
	domainagg "github.com/studymesh/studymesh-backend/internal/domain/aggregates"
	"github.com/studymesh/studymesh-backend/internal/domain/plans"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
)

type PlanAggregateDeps struct {
	Base BaseDeps

	Plans    planrepo.StudyPlanRepo
	Sections planrepo.StudyPlanSectionRepo
}

type planAggregate struct {
	deps PlanAggregateDeps
}

func NewPlanAggregate(deps PlanAggregateDeps) domainagg.PlanAggregate {
	deps.Base = deps.Base.withDefaults()
	return &planAggregate{deps: deps}
}

func (a *planAggregate) Contract() domainagg.Contract {
	return domainagg.PlanAggregateContract
}

func (a *planAggregate) Create(ctx context.Context, in domainagg.CreatePlanInput) (domainagg.CreatePlanResult, error) {
	const op = "Plans.Plan.Create"
	var out domainagg.CreatePlanResult

	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.DocumentID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing document_id", nil)
	}
	if len(in.Plan) == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing plan payload", nil)
	}
	if err := validateSectionSequence(in.Sections); err != nil {
		return out, MapError(op, err)
	}
	if a.deps.Plans == nil || a.deps.Sections == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "plan aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		plan := &types.StudyPlan{
			UserID:      in.UserID,
			DocumentID:  in.DocumentID,
			Plan:        in.Plan,
			Title:       strings.TrimSpace(in.Title),
			Familiarity: strings.TrimSpace(in.Familiarity),
			Goal:        strings.TrimSpace(in.Goal),
			Version:     1,
			Status:      plans.PlanStatusDraft,
		}
		if _, err := a.deps.Plans.Create(dbc, []*types.StudyPlan{plan}); err != nil {
			return err
		}

		// A v1 plan roots its own lineage; the id only exists after insert.
		if err := a.deps.Plans.UpdateFields(dbc, plan.ID, map[string]any{
			"root_plan_id": plan.ID,
		}); err != nil {
			return err
		}

		sectionIDs, err := a.createSections(dbc, plan.ID, in.Sections)
		if err != nil {
			return err
		}
		out = domainagg.CreatePlanResult{
			PlanID:     plan.ID,
			RootPlanID: plan.ID,
			Version:    1,
			SectionIDs: sectionIDs,
		}
		return nil
	})
	return out, err
}

func (a *planAggregate) Regenerate(ctx context.Context, in domainagg.RegeneratePlanInput) (domainagg.CreatePlanResult, error) {
	const op = "Plans.Plan.Regenerate"
	var out domainagg.CreatePlanResult

	if in.RootPlanID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing root_plan_id", nil)
	}
	if len(in.Plan) == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing plan payload", nil)
	}
	if err := validateSectionSequence(in.Sections); err != nil {
		return out, MapError(op, err)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		// The root row carries the lineage's user/document ownership and is
		// immutable, so read it rather than asking the caller again.
		root, err := a.deps.Plans.GetByID(dbc, in.RootPlanID)
		if err != nil {
			return err
		}
		if root.RootPlanID != root.ID {
			return InvariantError("root_plan_id does not name a lineage root")
		}

		maxVersion, err := a.deps.Plans.MaxVersionOfLineage(dbc, in.RootPlanID)
		if err != nil {
			return err
		}
		if maxVersion == 0 {
			return InvariantError("lineage has no versions")
		}

		title := strings.TrimSpace(in.Title)
		if title == "" {
			title = root.Title
		}
		plan := &types.StudyPlan{
			UserID:      root.UserID,
			DocumentID:  root.DocumentID,
			RootPlanID:  in.RootPlanID,
			Plan:        in.Plan,
			Title:       title,
			Familiarity: root.Familiarity,
			Goal:        root.Goal,
			Version:     maxVersion + 1,
			Status:      plans.PlanStatusDraft,
		}
		if _, err := a.deps.Plans.Create(dbc, []*types.StudyPlan{plan}); err != nil {
			return err
		}

		sectionIDs, err := a.createSections(dbc, plan.ID, in.Sections)
		if err != nil {
			return err
		}
		out = domainagg.CreatePlanResult{
			PlanID:     plan.ID,
			RootPlanID: in.RootPlanID,
			Version:    plan.Version,
			SectionIDs: sectionIDs,
		}
		return nil
	})
	return out, err
}

func (a *planAggregate) createSections(dbc dbctx.Context, planID uuid.UUID, sections []domainagg.SectionInput) ([]uuid.UUID, error) {
	if len(sections) == 0 {
		return []uuid.UUID{}, nil
	}
	rows := make([]*types.StudyPlanSection, 0, len(sections))
	for _, s := range sections {
		rows = append(rows, &types.StudyPlanSection{
			StudyPlanID:      planID,
			Title:            strings.TrimSpace(s.Title),
			Description:      strings.TrimSpace(s.Description),
			Index:            s.Index,
			EstimatedMinutes: s.EstimatedMinutes,
			Content:          s.Content,
		})
	}
	if _, err := a.deps.Sections.Create(dbc, rows); err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func validateSectionSequence(sections []domainagg.SectionInput) error {
	seen := make(map[int]bool, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s.Title) == "" {
			return ValidationError(fmt.Sprintf("section at order %d has no title", s.Index))
		}
		if len(s.Content) == 0 {
			return ValidationError(fmt.Sprintf("section at order %d has no content", s.Index))
		}
		if s.Index < 0 {
			return ValidationError(fmt.Sprintf("negative section order %d", s.Index))
		}
		if seen[s.Index] {
			return ConflictError(fmt.Sprintf("duplicate section order %d", s.Index))
		}
		seen[s.Index] = true
	}
	for i := 0; i < len(sections); i++ {
		if !seen[i] {
			return InvariantError(fmt.Sprintf("section orders not contiguous: missing %d", i))
		}
	}
	return nil
}

func (a *planAggregate) Activate(ctx context.Context, planID uuid.UUID) error {
	return a.transition(ctx, "Plans.Plan.Activate", planID,
		[]plans.PlanStatus{plans.PlanStatusDraft}, plans.PlanStatusActive)
}

func (a *planAggregate) Complete(ctx context.Context, planID uuid.UUID) error {
	return a.transition(ctx, "Plans.Plan.Complete", planID,
		[]plans.PlanStatus{plans.PlanStatusActive}, plans.PlanStatusCompleted)
}

func (a *planAggregate) Archive(ctx context.Context, planID uuid.UUID) error {
	return a.transition(ctx, "Plans.Plan.Archive", planID,
		[]plans.PlanStatus{plans.PlanStatusDraft, plans.PlanStatusActive}, plans.PlanStatusArchived)
}

func (a *planAggregate) transition(ctx context.Context, op string, planID uuid.UUID, from []plans.PlanStatus, to plans.PlanStatus) error {
	if planID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing study_plan_id", nil)
	}

	var prev plans.PlanStatus
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		plan, err := a.deps.Plans.LockByID(dbc, planID)
		if err != nil {
			return err
		}
		prev = plan.Status
		if !plan.Status.CanTransitionTo(to) {
			return InvariantError(fmt.Sprintf("cannot move plan %s -> %s", plan.Status, to))
		}
		ok, err := a.deps.Plans.UpdateStatusFrom(dbc, planID, from, to)
		if err != nil {
			return err
		}
		return RequireCASSuccess(ok, "plan status changed concurrently")
	})
	if err == nil {
		a.deps.Base.Hooks.EmitTransition("study_plan", planID, string(prev), string(to))
	}
	return err
}

// ReorderSections swaps in a full new order assignment. All indexes shift out
// of range first so the final per-row writes never trip the per-plan order
// uniqueness mid-flight.
func (a *planAggregate) ReorderSections(ctx context.Context, in domainagg.ReorderSectionsInput) error {
	const op = "Plans.Plan.ReorderSections"
	if in.PlanID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing study_plan_id", nil)
	}
	if len(in.Order) == 0 {
		return domainagg.NewError(domainagg.CodeValidation, op, "empty order assignment", nil)
	}

	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := a.deps.Plans.LockByID(dbc, in.PlanID); err != nil {
			return err
		}
		sections, err := a.deps.Sections.GetByPlanID(dbc, in.PlanID)
		if err != nil {
			return err
		}
		if len(sections) != len(in.Order) {
			return InvariantError(fmt.Sprintf("order assignment covers %d of %d sections", len(in.Order), len(sections)))
		}

		seen := make(map[int]bool, len(in.Order))
		for _, sec := range sections {
			idx, ok := in.Order[sec.ID]
			if !ok {
				return InvariantError(fmt.Sprintf("section %s missing from order assignment", sec.ID))
			}
			if idx < 0 {
				return ValidationError(fmt.Sprintf("negative section order %d", idx))
			}
			if seen[idx] {
				return ConflictError(fmt.Sprintf("duplicate section order %d", idx))
			}
			seen[idx] = true
		}
		for i := 0; i < len(sections); i++ {
			if !seen[i] {
				return InvariantError(fmt.Sprintf("section orders not contiguous: missing %d", i))
			}
		}

		if err := a.deps.Sections.ShiftIndexes(dbc, in.PlanID, len(sections)); err != nil {
			return err
		}
		for _, sec := range sections {
			if err := a.deps.Sections.UpdateFields(dbc, sec.ID, map[string]any{
				"index": in.Order[sec.ID],
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *planAggregate) Delete(ctx context.Context, planID uuid.UUID) error {
	const op = "Plans.Plan.Delete"
	if planID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing study_plan_id", nil)
	}

	// Sections and progress rows cascade; sessions keep running with a
	// nulled plan reference.
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		n, err := a.deps.Plans.Delete(dbc, planID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("study plan not found: %s", planID), nil)
		}
		return nil
	})
}
