package aggregates

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	docrepo "github.com/studymesh/studymesh-backend/internal/data/repos/documents"
	planrepo "github.com/studymesh/studymesh-backend/internal/data/repos/plans"
	sessrepo "github.com/studymesh/studymesh-backend/internal/data/repos/sessions"
	"github.com/studymesh/studymesh-backend/internal/data/repos/testutil"
	userrepo "github.com/studymesh/studymesh-backend/internal/data/repos/user"
	types "github.com/studymesh/studymesh-backend/internal/domain"
	domainagg "github.com/studymesh/studymesh-backend/internal/domain/aggregates"
	"github.com/studymesh/studymesh-backend/internal/domain/documents"
	"github.com/studymesh/studymesh-backend/internal/domain/sessions"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
)

type testAggregates struct {
	identity domainagg.IdentityAggregate
	document domainagg.DocumentAggregate
	plan     domainagg.PlanAggregate
	session  domainagg.SessionAggregate
}

// Aggregates own their transactions, so these tests run against the shared
// test database and clean up through the user deletion cascade.
func wireTestAggregates(t *testing.T, db *gorm.DB) testAggregates {
	t.Helper()
	log := testutil.Logger(t)
	base := BaseDeps{DB: db, Log: log}

	users := userrepo.NewUserRepo(db, log)
	tokens := userrepo.NewRefreshTokenRepo(db, log)
	docs := docrepo.NewDocumentRepo(db, log)
	chunks := docrepo.NewDocumentChunkRepo(db, log)
	plans := planrepo.NewStudyPlanRepo(db, log)
	sections := planrepo.NewStudyPlanSectionRepo(db, log)
	sess := sessrepo.NewLearningSessionRepo(db, log)
	progress := sessrepo.NewSectionProgressRepo(db, log)
	messages := sessrepo.NewSessionMessageRepo(db, log)
	toolCalls := sessrepo.NewToolCallRepo(db, log)

	return testAggregates{
		identity: NewIdentityAggregate(IdentityAggregateDeps{Base: base, Users: users, RefreshTokens: tokens}),
		document: NewDocumentAggregate(DocumentAggregateDeps{Base: base, Documents: docs, Chunks: chunks}),
		plan:     NewPlanAggregate(PlanAggregateDeps{Base: base, Plans: plans, Sections: sections}),
		session: NewSessionAggregate(SessionAggregateDeps{
			Base: base, Sessions: sess, Progress: progress,
			Messages: messages, ToolCalls: toolCalls,
			Plans: plans, Sections: sections,
		}),
	}
}

func TestLifecycleEndToEnd(t *testing.T) {
	db := testutil.DB(t)
	agg := wireTestAggregates(t, db)
	ctx := context.Background()

	reg, err := agg.identity.Register(ctx, domainagg.RegisterUserInput{
		Email:    "lifecycle-" + uuid.NewString() + "@example.com",
		Password: "secret-pw",
		Name:     "Lifecycle",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	userID := reg.UserID
	t.Cleanup(func() {
		_ = agg.identity.Delete(ctx, userID)
	})

	// Document ingestion path.
	doc, err := agg.document.Register(ctx, domainagg.RegisterDocumentInput{
		UserID:           userID,
		StorageURL:       "https://cdn.example/" + uuid.NewString(),
		OriginalFilename: "paper.pdf",
	})
	if err != nil {
		t.Fatalf("Register document: %v", err)
	}
	if doc.Status != documents.UploadStatusPending {
		t.Fatalf("new document must be pending, got %q", doc.Status)
	}

	// pending -> completed must be rejected outright.
	if err := agg.document.MarkCompleted(ctx, doc.DocumentID); !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("pending->completed: want invariant violation, got %v", err)
	}
	if err := agg.document.MarkProcessing(ctx, doc.DocumentID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	ingest, err := agg.document.IngestChunks(ctx, domainagg.IngestChunksInput{
		DocumentID: doc.DocumentID,
		Chunks: []domainagg.ChunkInput{
			{ChunkIndex: 0, ContentType: documents.ContentTypeText, Text: "intro"},
			{ChunkIndex: 1, ContentType: documents.ContentTypeText, Text: "body"},
			{ChunkIndex: 2, ContentType: documents.ContentTypeImage, BlobURL: "https://cdn.example/fig.png",
				Bbox: &domainagg.Bbox{X0: 0, Y0: 0, X1: 120, Y1: 80}},
		},
		MarkCompleted: true,
	})
	if err != nil {
		t.Fatalf("IngestChunks: %v", err)
	}
	if len(ingest.ChunkIDs) != 3 {
		t.Fatalf("want 3 chunk ids, got %d", len(ingest.ChunkIDs))
	}

	// A second ingestion for the same document conflicts.
	_, err = agg.document.IngestChunks(ctx, domainagg.IngestChunksInput{
		DocumentID: doc.DocumentID,
		Chunks:     []domainagg.ChunkInput{{ChunkIndex: 0, ContentType: documents.ContentTypeText, Text: "again"}},
	})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) && !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("repeat ingest: want invariant or conflict, got %v", err)
	}

	// Plan creation and regeneration.
	created, err := agg.plan.Create(ctx, domainagg.CreatePlanInput{
		UserID:     userID,
		DocumentID: doc.DocumentID,
		Plan:       datatypes.JSON([]byte(`{"outline":["a","b"]}`)),
		Title:      "study plan",
		Sections: []domainagg.SectionInput{
			{Title: "Basics", Index: 0, Content: datatypes.JSON([]byte(`{"body":"x"}`))},
			{Title: "Advanced", Index: 1, Content: datatypes.JSON([]byte(`{"body":"y"}`))},
		},
	})
	if err != nil {
		t.Fatalf("Create plan: %v", err)
	}
	if created.Version != 1 || created.RootPlanID != created.PlanID {
		t.Fatalf("v1 must root its own lineage: version=%d root=%s plan=%s",
			created.Version, created.RootPlanID, created.PlanID)
	}
	if err := agg.plan.Activate(ctx, created.PlanID); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	regen, err := agg.plan.Regenerate(ctx, domainagg.RegeneratePlanInput{
		RootPlanID: created.RootPlanID,
		Plan:       datatypes.JSON([]byte(`{"outline":["a","b","c"]}`)),
		Sections: []domainagg.SectionInput{
			{Title: "Basics v2", Index: 0, Content: datatypes.JSON([]byte(`{"body":"x"}`))},
		},
	})
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if regen.Version != 2 || regen.RootPlanID != created.RootPlanID {
		t.Fatalf("regenerated plan: version=%d root=%s", regen.Version, regen.RootPlanID)
	}

	// Session lifecycle on the v1 plan.
	started, err := agg.session.Start(ctx, domainagg.StartSessionInput{
		UserID:      userID,
		StudyPlanID: &created.PlanID,
	})
	if err != nil {
		t.Fatalf("Start session: %v", err)
	}
	if started.Status != sessions.SessionStatusActive {
		t.Fatalf("session must start active, got %q", started.Status)
	}
	if len(started.ProgressIDs) != 2 {
		t.Fatalf("plan-backed session must materialize 2 progress rows, got %d", len(started.ProgressIDs))
	}

	secBasics := created.SectionIDs[0]
	secAdvanced := created.SectionIDs[1]

	if err := agg.session.StartSection(ctx, started.SessionID, secBasics); err != nil {
		t.Fatalf("StartSection: %v", err)
	}
	// pending -> completed skips in_progress and must be rejected.
	if err := agg.session.CompleteSection(ctx, started.SessionID, secAdvanced); !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("pending->completed section: want invariant violation, got %v", err)
	}
	if err := agg.session.CompleteSection(ctx, started.SessionID, secBasics); err != nil {
		t.Fatalf("CompleteSection: %v", err)
	}
	if err := agg.session.SkipSection(ctx, started.SessionID, secAdvanced); err != nil {
		t.Fatalf("SkipSection: %v", err)
	}

	// Transcript with tool calls.
	appended, err := agg.session.AppendMessage(ctx, domainagg.AppendMessageInput{
		SessionID: started.SessionID,
		Role:      sessions.MessageRoleAI,
		Content:   "here is the summary",
		ToolCalls: []domainagg.ToolCallInput{
			{ToolName: "retrieve_chunks", Params: datatypes.JSON([]byte(`{"k":4}`))},
		},
	})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if len(appended.ToolCallIDs) != 1 {
		t.Fatalf("want 1 tool call id, got %d", len(appended.ToolCallIDs))
	}

	if err := agg.session.DeleteMessage(ctx, appended.MessageID); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	var survivors int64
	if err := db.Model(&types.ToolCall{}).
		Where("session_message_id = ?", appended.MessageID).
		Count(&survivors).Error; err != nil {
		t.Fatalf("count surviving tool calls: %v", err)
	}
	if survivors != 1 {
		t.Fatalf("tool calls must survive message deletion, found %d", survivors)
	}
	t.Cleanup(func() {
		db.Where("session_message_id = ?", appended.MessageID).Delete(&types.ToolCall{})
	})

	if err := agg.session.Pause(ctx, started.SessionID); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := agg.session.Resume(ctx, started.SessionID); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := agg.session.Complete(ctx, started.SessionID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	var sessionRow types.LearningSession
	if err := db.Where("id = ?", started.SessionID).First(&sessionRow).Error; err != nil {
		t.Fatalf("load completed session: %v", err)
	}
	if sessionRow.EndedAt == nil || sessionRow.EndedAt.Before(sessionRow.StartedAt) {
		t.Fatal("completed session needs ended_at >= started_at")
	}
	if err := agg.session.Resume(ctx, started.SessionID); !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("resume completed session: want invariant violation, got %v", err)
	}

	// Deleting the plan nullifies the session reference but keeps the row.
	if err := agg.plan.Delete(ctx, created.PlanID); err != nil {
		t.Fatalf("Delete plan: %v", err)
	}
	if err := db.Where("id = ?", started.SessionID).First(&sessionRow).Error; err != nil {
		t.Fatalf("load session after plan delete: %v", err)
	}
	if sessionRow.StudyPlanID != nil {
		t.Fatal("plan deletion must null the session reference")
	}

	// User deletion sweeps everything owned; tool calls remain.
	if err := agg.identity.Delete(ctx, userID); err != nil {
		t.Fatalf("Delete user: %v", err)
	}
	for _, check := range []struct {
		name  string
		model any
		where string
		arg   any
	}{
		{"documents", &types.Document{}, "user_id = ?", userID},
		{"chunks", &types.DocumentChunk{}, "document_id = ?", doc.DocumentID},
		{"plans", &types.StudyPlan{}, "user_id = ?", userID},
		{"sessions", &types.LearningSession{}, "user_id = ?", userID},
		{"progress", &types.SectionProgress{}, "session_id = ?", started.SessionID},
		{"messages", &types.SessionMessage{}, "session_id = ?", started.SessionID},
	} {
		var n int64
		if err := db.Model(check.model).Where(check.where, check.arg).Count(&n).Error; err != nil {
			t.Fatalf("count %s: %v", check.name, err)
		}
		if n != 0 {
			t.Fatalf("%s must cascade with the user, found %d rows", check.name, n)
		}
	}
	var retained int64
	if err := db.Model(&types.ToolCall{}).
		Where("session_message_id = ?", appended.MessageID).
		Count(&retained).Error; err != nil {
		t.Fatalf("count retained tool calls: %v", err)
	}
	if retained != 1 {
		t.Fatalf("tool calls must survive the user cascade, found %d", retained)
	}
}

func TestDocumentRetryClearsChunks(t *testing.T) {
	db := testutil.DB(t)
	agg := wireTestAggregates(t, db)
	ctx := context.Background()

	reg, err := agg.identity.Register(ctx, domainagg.RegisterUserInput{
		Email:    "retry-" + uuid.NewString() + "@example.com",
		Password: "secret-pw",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	t.Cleanup(func() { _ = agg.identity.Delete(ctx, reg.UserID) })

	doc, err := agg.document.Register(ctx, domainagg.RegisterDocumentInput{
		UserID:     reg.UserID,
		StorageURL: "https://cdn.example/" + uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("Register document: %v", err)
	}
	if err := agg.document.MarkProcessing(ctx, doc.DocumentID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if _, err := agg.document.IngestChunks(ctx, domainagg.IngestChunksInput{
		DocumentID: doc.DocumentID,
		Chunks:     []domainagg.ChunkInput{{ChunkIndex: 0, ContentType: documents.ContentTypeText, Text: "partial"}},
	}); err != nil {
		t.Fatalf("IngestChunks: %v", err)
	}
	if err := agg.document.MarkFailed(ctx, doc.DocumentID); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	if err := agg.document.Retry(ctx, doc.DocumentID); err != nil {
		t.Fatalf("Retry: %v", err)
	}

	var chunkCount int64
	if err := db.Model(&types.DocumentChunk{}).
		Where("document_id = ?", doc.DocumentID).
		Count(&chunkCount).Error; err != nil {
		t.Fatalf("count chunks: %v", err)
	}
	if chunkCount != 0 {
		t.Fatalf("retry must clear stale chunks, found %d", chunkCount)
	}

	var row types.Document
	if err := db.Where("id = ?", doc.DocumentID).First(&row).Error; err != nil {
		t.Fatalf("load document: %v", err)
	}
	if row.Status != documents.UploadStatusPending {
		t.Fatalf("retry must land in pending, got %q", row.Status)
	}

	// Retrying a pending document is not a legal move.
	if err := agg.document.Retry(ctx, doc.DocumentID); !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("retry pending: want invariant violation, got %v", err)
	}
}

func TestStartSessionMissingPlan(t *testing.T) {
	db := testutil.DB(t)
	agg := wireTestAggregates(t, db)
	ctx := context.Background()

	reg, err := agg.identity.Register(ctx, domainagg.RegisterUserInput{
		Email:    "missingplan-" + uuid.NewString() + "@example.com",
		Password: "secret-pw",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	t.Cleanup(func() { _ = agg.identity.Delete(ctx, reg.UserID) })

	missing := uuid.New()
	_, err = agg.session.Start(ctx, domainagg.StartSessionInput{
		UserID:      reg.UserID,
		StudyPlanID: &missing,
	})
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("unknown plan: want precondition failure, got %v", err)
	}

	var n int64
	if err := db.Model(&types.LearningSession{}).
		Where("user_id = ?", reg.UserID).
		Count(&n).Error; err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if n != 0 {
		t.Fatalf("failed start must not leave a session row, found %d", n)
	}
}

func TestSectionProgressPairUnique(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	progress := sessrepo.NewSectionProgressRepo(db, log)

	u := testutil.SeedUser(t, ctx, db, "progresspair-"+uuid.NewString()+"@example.com")
	t.Cleanup(func() {
		db.Where("id = ?", u.ID).Delete(&types.User{})
	})
	d := testutil.SeedDocument(t, ctx, db, u.ID, types.UploadStatusCompleted)
	p := testutil.SeedPlan(t, ctx, db, u.ID, d.ID, types.PlanStatusActive)
	sec := testutil.SeedSection(t, ctx, db, p.ID, 0)
	s := testutil.SeedSession(t, ctx, db, u.ID, testutil.PtrUUID(p.ID), types.SessionStatusActive)

	first := &types.SectionProgress{SessionID: s.ID, SectionID: sec.ID, Status: sessions.ProgressStatusPending}
	if _, err := progress.Create(dbc, []*types.SectionProgress{first}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := &types.SectionProgress{SessionID: s.ID, SectionID: sec.ID, Status: sessions.ProgressStatusPending}
	_, err := progress.Create(dbc, []*types.SectionProgress{dup})
	if err == nil {
		t.Fatal("second progress row for the same session and section must be rejected")
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		t.Fatalf("want unique_violation, got %v", err)
	}
	if mapped := MapError("Sessions.Session.StartSection", err); !domainagg.IsCode(mapped, domainagg.CodeConflict) {
		t.Fatalf("duplicate pair must map to conflict, got %v", domainagg.CodeOf(mapped))
	}
}

func TestReorderSectionsFullReplacement(t *testing.T) {
	db := testutil.DB(t)
	agg := wireTestAggregates(t, db)
	ctx := context.Background()

	reg, err := agg.identity.Register(ctx, domainagg.RegisterUserInput{
		Email:    "reorder-" + uuid.NewString() + "@example.com",
		Password: "secret-pw",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	t.Cleanup(func() { _ = agg.identity.Delete(ctx, reg.UserID) })

	doc, err := agg.document.Register(ctx, domainagg.RegisterDocumentInput{
		UserID:     reg.UserID,
		StorageURL: "https://cdn.example/" + uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("Register document: %v", err)
	}

	created, err := agg.plan.Create(ctx, domainagg.CreatePlanInput{
		UserID:     reg.UserID,
		DocumentID: doc.DocumentID,
		Plan:       datatypes.JSON([]byte(`{}`)),
		Sections: []domainagg.SectionInput{
			{Title: "One", Index: 0, Content: datatypes.JSON([]byte(`{}`))},
			{Title: "Two", Index: 1, Content: datatypes.JSON([]byte(`{}`))},
			{Title: "Three", Index: 2, Content: datatypes.JSON([]byte(`{}`))},
		},
	})
	if err != nil {
		t.Fatalf("Create plan: %v", err)
	}

	// Rotate the order.
	order := map[uuid.UUID]int{
		created.SectionIDs[0]: 2,
		created.SectionIDs[1]: 0,
		created.SectionIDs[2]: 1,
	}
	if err := agg.plan.ReorderSections(ctx, domainagg.ReorderSectionsInput{
		PlanID: created.PlanID,
		Order:  order,
	}); err != nil {
		t.Fatalf("ReorderSections: %v", err)
	}

	var rows []*types.StudyPlanSection
	if err := db.Where("study_plan_id = ?", created.PlanID).
		Order(`"index" ASC`).Find(&rows).Error; err != nil {
		t.Fatalf("load sections: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("want 3 sections, got %d", len(rows))
	}
	if rows[0].ID != created.SectionIDs[1] || rows[1].ID != created.SectionIDs[2] || rows[2].ID != created.SectionIDs[0] {
		t.Fatal("rotation not applied")
	}

	// A partial assignment is rejected before any write.
	err = agg.plan.ReorderSections(ctx, domainagg.ReorderSectionsInput{
		PlanID: created.PlanID,
		Order:  map[uuid.UUID]int{created.SectionIDs[0]: 0},
	})
	if !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("partial reorder: want invariant violation, got %v", err)
	}
}
