package plans

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/studymesh/studymesh-backend/internal/data/repos/testutil"
	types "github.com/studymesh/studymesh-backend/internal/domain"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
)

func TestStudyPlanRepoLineage(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewStudyPlanRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "studyplanrepo@example.com")
	d := testutil.SeedDocument(t, ctx, tx, u.ID, types.UploadStatusCompleted)
	v1 := testutil.SeedPlan(t, ctx, tx, u.ID, d.ID, types.PlanStatusActive)

	v2 := &types.StudyPlan{
		UserID:     u.ID,
		DocumentID: d.ID,
		RootPlanID: v1.ID,
		Plan:       datatypes.JSON([]byte(`{"outline":["revised"]}`)),
		Title:      v1.Title,
		Version:    2,
		Status:     types.PlanStatusDraft,
	}
	if _, err := repo.Create(dbc, []*types.StudyPlan{v2}); err != nil {
		t.Fatalf("Create v2: %v", err)
	}

	lineage, err := repo.GetByLineage(dbc, v1.ID)
	if err != nil || len(lineage) != 2 {
		t.Fatalf("GetByLineage: err=%v len=%d", err, len(lineage))
	}
	if lineage[0].Version != 2 || lineage[1].Version != 1 {
		t.Fatalf("lineage not newest first: %d, %d", lineage[0].Version, lineage[1].Version)
	}

	max, err := repo.MaxVersionOfLineage(dbc, v1.ID)
	if err != nil || max != 2 {
		t.Fatalf("MaxVersionOfLineage: err=%v max=%d", err, max)
	}

	byDoc, err := repo.GetByDocumentID(dbc, d.ID)
	if err != nil || len(byDoc) != 2 {
		t.Fatalf("GetByDocumentID: err=%v len=%d", err, len(byDoc))
	}

	ok, err := repo.UpdateStatusFrom(dbc, v2.ID,
		[]types.PlanStatus{types.PlanStatusDraft}, types.PlanStatusActive)
	if err != nil || !ok {
		t.Fatalf("UpdateStatusFrom draft->active: err=%v ok=%v", err, ok)
	}
	ok, err = repo.UpdateStatusFrom(dbc, v2.ID,
		[]types.PlanStatus{types.PlanStatusDraft}, types.PlanStatusActive)
	if err != nil {
		t.Fatalf("UpdateStatusFrom repeat: %v", err)
	}
	if ok {
		t.Fatal("guard must not match after status moved on")
	}
}

func TestStudyPlanSectionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewStudyPlanSectionRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "plansectionrepo@example.com")
	d := testutil.SeedDocument(t, ctx, tx, u.ID, types.UploadStatusCompleted)
	p := testutil.SeedPlan(t, ctx, tx, u.ID, d.ID, types.PlanStatusDraft)

	s0 := testutil.SeedSection(t, ctx, tx, p.ID, 0)
	s1 := testutil.SeedSection(t, ctx, tx, p.ID, 1)

	got, err := repo.GetByPlanID(dbc, p.ID)
	if err != nil || len(got) != 2 {
		t.Fatalf("GetByPlanID: err=%v len=%d", err, len(got))
	}
	if got[0].ID != s0.ID || got[1].ID != s1.ID {
		t.Fatal("sections not in order")
	}

	// Shift both out of range, then swap their final order slots.
	if err := repo.ShiftIndexes(dbc, p.ID, 2); err != nil {
		t.Fatalf("ShiftIndexes: %v", err)
	}
	if err := repo.UpdateFields(dbc, s0.ID, map[string]any{"index": 1}); err != nil {
		t.Fatalf("UpdateFields s0: %v", err)
	}
	if err := repo.UpdateFields(dbc, s1.ID, map[string]any{"index": 0}); err != nil {
		t.Fatalf("UpdateFields s1: %v", err)
	}

	got, err = repo.GetByPlanID(dbc, p.ID)
	if err != nil || len(got) != 2 {
		t.Fatalf("GetByPlanID after reorder: err=%v len=%d", err, len(got))
	}
	if got[0].ID != s1.ID || got[1].ID != s0.ID {
		t.Fatal("reorder not applied")
	}

	n, err := repo.DeleteByPlanID(dbc, p.ID)
	if err != nil || n != 2 {
		t.Fatalf("DeleteByPlanID: err=%v n=%d", err, n)
	}
}
