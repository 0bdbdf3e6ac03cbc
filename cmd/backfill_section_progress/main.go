package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/studymesh/studymesh-backend/internal/app"
	types "github.com/studymesh/studymesh-backend/internal/domain"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
)

// Backfills the pending progress rows for plan-backed sessions created
// before progress materialization moved into session start.

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var sessionIDs idList
	var dryRun bool
	var limit int
	var workers int
	flag.Var(&sessionIDs, "session", "learning_session id to backfill (repeatable)")
	flag.BoolVar(&dryRun, "dry-run", false, "print planned rows without writing")
	flag.IntVar(&limit, "limit", 0, "limit number of sessions processed")
	flag.IntVar(&workers, "workers", 4, "concurrent sessions")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	var rows []*types.LearningSession
	if len(sessionIDs) > 0 {
		for _, s := range sessionIDs {
			id, err := uuid.Parse(strings.TrimSpace(s))
			if err != nil || id == uuid.Nil {
				continue
			}
			row, err := application.Repos.LearningSession.GetByID(dbc, id)
			if err != nil {
				fmt.Printf("load session %s: %v\n", id, err)
				continue
			}
			rows = append(rows, row)
		}
	} else {
		if err := application.DB.WithContext(ctx).
			Where("study_plan_id IS NOT NULL").
			Find(&rows).Error; err != nil {
			fmt.Printf("load sessions: %v\n", err)
			os.Exit(1)
		}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	if workers < 1 {
		workers = 1
	}
	var created atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, s := range rows {
		s := s
		if s == nil || s.ID == uuid.Nil || s.StudyPlanID == nil {
			continue
		}
		g.Go(func() error {
			gdbc := dbctx.Context{Ctx: gctx}

			sections, err := application.Repos.StudyPlanSection.GetByPlanID(gdbc, *s.StudyPlanID)
			if err != nil {
				return fmt.Errorf("load sections for session %s: %w", s.ID, err)
			}
			existing, err := application.Repos.SectionProgress.GetBySessionID(gdbc, s.ID)
			if err != nil {
				return fmt.Errorf("load progress for session %s: %w", s.ID, err)
			}
			have := make(map[uuid.UUID]bool, len(existing))
			for _, p := range existing {
				have[p.SectionID] = true
			}

			var missing []*types.SectionProgress
			for _, sec := range sections {
				if have[sec.ID] {
					continue
				}
				missing = append(missing, &types.SectionProgress{
					SessionID: s.ID,
					SectionID: sec.ID,
					Status:    types.ProgressStatusPending,
				})
			}
			if len(missing) == 0 {
				return nil
			}
			if dryRun {
				fmt.Printf("[dry-run] session %s missing %d progress rows\n", s.ID, len(missing))
				return nil
			}
			if _, err := application.Repos.SectionProgress.Create(gdbc, missing); err != nil {
				return fmt.Errorf("backfill session %s: %w", s.ID, err)
			}
			created.Add(int64(len(missing)))
			fmt.Printf("backfilled %d progress rows for session %s\n", len(missing), s.ID)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Printf("backfill failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("done; created=%d\n", created.Load())
}
