package aggregates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	planrepo "github.com/studymesh/studymesh-backend/internal/data/repos/plans"
	sessrepo "github.com/studymesh/studymesh-backend/internal/data/repos/sessions"
	types "github.com/studymesh/studymesh-backend/internal/domain"
	domainagg "github.com/studymesh/studymesh-backend/internal/domain/aggregates"
	"github.com/studymesh/studymesh-backend/internal/domain/sessions"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
)

type SessionAggregateDeps struct {
	Base BaseDeps

	Sessions  sessrepo.LearningSessionRepo
	Progress  sessrepo.SectionProgressRepo
	Messages  sessrepo.SessionMessageRepo
	ToolCalls sessrepo.ToolCallRepo
	Plans     planrepo.StudyPlanRepo
	Sections  planrepo.StudyPlanSectionRepo
}

type sessionAggregate struct {
	deps SessionAggregateDeps
}

func NewSessionAggregate(deps SessionAggregateDeps) domainagg.SessionAggregate {
	deps.Base = deps.Base.withDefaults()
	return &sessionAggregate{deps: deps}
}

func (a *sessionAggregate) Contract() domainagg.Contract {
	return domainagg.SessionAggregateContract
}

func (a *sessionAggregate) Start(ctx context.Context, in domainagg.StartSessionInput) (domainagg.StartSessionResult, error) {
	const op = "Sessions.Session.Start"
	var out domainagg.StartSessionResult

	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.StudyPlanID != nil && *in.StudyPlanID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "study_plan_id set but nil", nil)
	}
	if a.deps.Sessions == nil || a.deps.Progress == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "session aggregate repos not configured", nil)
	}
	if in.StudyPlanID != nil && (a.deps.Plans == nil || a.deps.Sections == nil) {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "plan repos not configured for plan-backed session", nil)
	}

	status := sessions.SessionStatusActive
	if in.Deferred {
		status = sessions.SessionStatusPending
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if in.StudyPlanID != nil {
			// Resolve the plan up front so a dangling reference surfaces as a
			// precondition failure instead of a raw FK error.
			if _, err := a.deps.Plans.GetByID(dbc, *in.StudyPlanID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainagg.NewError(domainagg.CodePreconditionFailed, op,
						fmt.Sprintf("study plan not found: %s", *in.StudyPlanID), nil)
				}
				return err
			}
		}

		s := &types.LearningSession{
			UserID:      in.UserID,
			StudyPlanID: in.StudyPlanID,
			Status:      status,
			StartedAt:   time.Now().UTC(),
		}
		if _, err := a.deps.Sessions.Create(dbc, []*types.LearningSession{s}); err != nil {
			return err
		}

		var progressIDs []uuid.UUID
		if in.StudyPlanID != nil {
			// Plan-backed sessions get one pending progress row per section
			// up front, so dashboards see the whole outline immediately.
			sectionRows, err := a.deps.Sections.GetByPlanID(dbc, *in.StudyPlanID)
			if err != nil {
				return err
			}
			if len(sectionRows) > 0 {
				rows := make([]*types.SectionProgress, 0, len(sectionRows))
				for _, sec := range sectionRows {
					rows = append(rows, &types.SectionProgress{
						SessionID: s.ID,
						SectionID: sec.ID,
						Status:    sessions.ProgressStatusPending,
					})
				}
				if _, err := a.deps.Progress.Create(dbc, rows); err != nil {
					return err
				}
				for _, row := range rows {
					progressIDs = append(progressIDs, row.ID)
				}
			}
		}

		out = domainagg.StartSessionResult{
			SessionID:   s.ID,
			Status:      status,
			ProgressIDs: progressIDs,
		}
		return nil
	})
	if err == nil {
		a.deps.Base.Hooks.EmitTransition("learning_session", out.SessionID, "", string(status))
	}
	return out, err
}

func (a *sessionAggregate) Pause(ctx context.Context, sessionID uuid.UUID) error {
	return a.transition(ctx, "Sessions.Session.Pause", sessionID,
		[]sessions.SessionStatus{sessions.SessionStatusActive},
		sessions.SessionStatusPaused, nil)
}

func (a *sessionAggregate) Resume(ctx context.Context, sessionID uuid.UUID) error {
	return a.transition(ctx, "Sessions.Session.Resume", sessionID,
		[]sessions.SessionStatus{sessions.SessionStatusPaused, sessions.SessionStatusPending},
		sessions.SessionStatusActive, nil)
}

func (a *sessionAggregate) Complete(ctx context.Context, sessionID uuid.UUID) error {
	return a.transition(ctx, "Sessions.Session.Complete", sessionID,
		[]sessions.SessionStatus{sessions.SessionStatusActive, sessions.SessionStatusPaused},
		sessions.SessionStatusCompleted, func(s *types.LearningSession) map[string]any {
			endedAt := time.Now().UTC()
			if endedAt.Before(s.StartedAt) {
				endedAt = s.StartedAt
			}
			return map[string]any{"ended_at": endedAt}
		})
}

func (a *sessionAggregate) transition(ctx context.Context, op string, sessionID uuid.UUID, from []sessions.SessionStatus, to sessions.SessionStatus, extraFn func(s *types.LearningSession) map[string]any) error {
	if sessionID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing session_id", nil)
	}

	var prev sessions.SessionStatus
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		s, err := a.deps.Sessions.LockByID(dbc, sessionID)
		if err != nil {
			return err
		}
		prev = s.Status
		if !s.Status.CanTransitionTo(to) {
			return InvariantError(fmt.Sprintf("cannot move session %s -> %s", s.Status, to))
		}
		var extra map[string]any
		if extraFn != nil {
			extra = extraFn(s)
		}
		ok, err := a.deps.Sessions.UpdateStatusFrom(dbc, sessionID, from, to, extra)
		if err != nil {
			return err
		}
		return RequireCASSuccess(ok, "session status changed concurrently")
	})
	if err == nil {
		a.deps.Base.Hooks.EmitTransition("learning_session", sessionID, string(prev), string(to))
	}
	return err
}

func (a *sessionAggregate) StartSection(ctx context.Context, sessionID, sectionID uuid.UUID) error {
	return a.progressTransition(ctx, "Sessions.Session.StartSection", sessionID, sectionID,
		[]sessions.ProgressStatus{sessions.ProgressStatusPending},
		sessions.ProgressStatusInProgress,
		map[string]any{"started_at": time.Now().UTC()})
}

func (a *sessionAggregate) CompleteSection(ctx context.Context, sessionID, sectionID uuid.UUID) error {
	return a.progressTransition(ctx, "Sessions.Session.CompleteSection", sessionID, sectionID,
		[]sessions.ProgressStatus{sessions.ProgressStatusInProgress},
		sessions.ProgressStatusCompleted,
		map[string]any{"completed_at": time.Now().UTC()})
}

func (a *sessionAggregate) SkipSection(ctx context.Context, sessionID, sectionID uuid.UUID) error {
	return a.progressTransition(ctx, "Sessions.Session.SkipSection", sessionID, sectionID,
		[]sessions.ProgressStatus{sessions.ProgressStatusPending, sessions.ProgressStatusInProgress},
		sessions.ProgressStatusSkipped, nil)
}

func (a *sessionAggregate) progressTransition(ctx context.Context, op string, sessionID, sectionID uuid.UUID, from []sessions.ProgressStatus, to sessions.ProgressStatus, extra map[string]any) error {
	if sessionID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing session_id", nil)
	}
	if sectionID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing section_id", nil)
	}

	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		s, err := a.deps.Sessions.LockByID(dbc, sessionID)
		if err != nil {
			return err
		}
		if s.Status != sessions.SessionStatusActive {
			return InvariantError(fmt.Sprintf("section progress requires an active session, have %q", s.Status))
		}

		row, err := a.deps.Progress.GetBySessionAndSection(dbc, sessionID, sectionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Ad-hoc sessions have no materialized rows; absence reads as
			// pending, so create the row on first touch.
			row = &types.SectionProgress{
				SessionID: sessionID,
				SectionID: sectionID,
				Status:    sessions.ProgressStatusPending,
			}
			if _, err := a.deps.Progress.Create(dbc, []*types.SectionProgress{row}); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if !row.Status.CanTransitionTo(to) {
			return InvariantError(fmt.Sprintf("cannot move section progress %s -> %s", row.Status, to))
		}
		ok, err := a.deps.Progress.UpdateStatusFrom(dbc, row.ID, from, to, extra)
		if err != nil {
			return err
		}
		return RequireCASSuccess(ok, "section progress changed concurrently")
	})
}

func (a *sessionAggregate) AppendMessage(ctx context.Context, in domainagg.AppendMessageInput) (domainagg.AppendMessageResult, error) {
	const op = "Sessions.Session.AppendMessage"
	var out domainagg.AppendMessageResult

	if in.SessionID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing session_id", nil)
	}
	if !in.Role.Valid() {
		return out, domainagg.NewError(domainagg.CodeInvariantViolation, op, fmt.Sprintf("unknown message role %q", in.Role), nil)
	}
	if strings.TrimSpace(in.Content) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing content", nil)
	}
	for i, tc := range in.ToolCalls {
		if strings.TrimSpace(tc.ToolName) == "" {
			return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("tool call %d has no tool name", i), nil)
		}
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		s, err := a.deps.Sessions.LockByID(dbc, in.SessionID)
		if err != nil {
			return err
		}
		if s.Status != sessions.SessionStatusActive {
			return InvariantError(fmt.Sprintf("transcript appends require an active session, have %q", s.Status))
		}

		msg := &types.SessionMessage{
			SessionID:     in.SessionID,
			Role:          in.Role,
			Content:       in.Content,
			ToolCalled:    strings.TrimSpace(in.ToolCalled),
			LatencyMS:     in.LatencyMS,
			TokensInput:   in.TokensInput,
			TokensOutput:  in.TokensOutput,
			CostUSDMillis: in.CostUSDMillis,
		}
		if _, err := a.deps.Messages.Create(dbc, []*types.SessionMessage{msg}); err != nil {
			return err
		}

		var callIDs []int64
		if len(in.ToolCalls) > 0 {
			rows := make([]*types.ToolCall, 0, len(in.ToolCalls))
			for _, tc := range in.ToolCalls {
				rows = append(rows, &types.ToolCall{
					SessionMessageID: msg.ID,
					ToolName:         strings.TrimSpace(tc.ToolName),
					Params:           tc.Params,
					Response:         tc.Response,
				})
			}
			if _, err := a.deps.ToolCalls.Create(dbc, rows); err != nil {
				return err
			}
			for _, row := range rows {
				callIDs = append(callIDs, row.ID)
			}
		}

		out = domainagg.AppendMessageResult{MessageID: msg.ID, ToolCallIDs: callIDs}
		return nil
	})
	return out, err
}

func (a *sessionAggregate) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	const op = "Sessions.Session.DeleteMessage"
	if messageID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing session_message_id", nil)
	}

	// Tool-call rows referencing the message stay behind; they are the
	// audit and cost history.
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		n, err := a.deps.Messages.Delete(dbc, messageID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("session message not found: %s", messageID), nil)
		}
		return nil
	})
}

func (a *sessionAggregate) Delete(ctx context.Context, sessionID uuid.UUID) error {
	const op = "Sessions.Session.Delete"
	if sessionID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing session_id", nil)
	}

	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		n, err := a.deps.Sessions.Delete(dbc, sessionID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("session not found: %s", sessionID), nil)
		}
		return nil
	})
}
