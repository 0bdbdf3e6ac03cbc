package documents

import (
	"context"
	"testing"

	"github.com/studymesh/studymesh-backend/internal/data/repos/testutil"
	types "github.com/studymesh/studymesh-backend/internal/domain"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
)

func TestDocumentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewDocumentRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "documentrepo@example.com")
	d := testutil.SeedDocument(t, ctx, tx, u.ID, types.UploadStatusPending)

	got, err := repo.GetByID(dbc, d.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.UploadStatusPending {
		t.Fatalf("unexpected status %q", got.Status)
	}

	ok, err := repo.UpdateStatusFrom(dbc, d.ID,
		[]types.UploadStatus{types.UploadStatusPending}, types.UploadStatusProcessing)
	if err != nil || !ok {
		t.Fatalf("UpdateStatusFrom pending->processing: err=%v ok=%v", err, ok)
	}

	// Guard must reject a second move from the already-left status.
	ok, err = repo.UpdateStatusFrom(dbc, d.ID,
		[]types.UploadStatus{types.UploadStatusPending}, types.UploadStatusProcessing)
	if err != nil {
		t.Fatalf("UpdateStatusFrom repeat: %v", err)
	}
	if ok {
		t.Fatal("guard must not match after status moved on")
	}

	list, err := repo.GetByUserID(dbc, u.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("GetByUserID: err=%v len=%d", err, len(list))
	}
}

func TestDocumentChunkRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewDocumentChunkRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "documentchunkrepo@example.com")
	d := testutil.SeedDocument(t, ctx, tx, u.ID, types.UploadStatusProcessing)

	page1, page2 := 1, 2
	rows := []*types.DocumentChunk{
		{DocumentID: d.ID, ChunkIndex: 2, ContentType: types.ContentTypeText, TextContent: "chunk-2", PageNumber: &page2},
		{DocumentID: d.ID, ChunkIndex: 0, ContentType: types.ContentTypeText, TextContent: "chunk-0", PageNumber: &page1},
		{DocumentID: d.ID, ChunkIndex: 1, ContentType: types.ContentTypeImage, BlobURL: "https://cdn.example/i.png", PageNumber: &page1},
	}
	if _, err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByDocumentID(dbc, d.ID)
	if err != nil || len(got) != 3 {
		t.Fatalf("GetByDocumentID: err=%v len=%d", err, len(got))
	}
	for i, c := range got {
		if c.ChunkIndex != i {
			t.Fatalf("chunks not in index order: position %d has index %d", i, c.ChunkIndex)
		}
	}

	ranged, err := repo.GetByIndexRange(dbc, d.ID, 1, 2)
	if err != nil || len(ranged) != 2 {
		t.Fatalf("GetByIndexRange: err=%v len=%d", err, len(ranged))
	}
	if ranged[0].ChunkIndex != 1 {
		t.Fatalf("range must start at 1, got %d", ranged[0].ChunkIndex)
	}

	paged, err := repo.GetByPage(dbc, d.ID, 1)
	if err != nil || len(paged) != 2 {
		t.Fatalf("GetByPage: err=%v len=%d", err, len(paged))
	}

	visual, err := repo.GetByContentType(dbc, d.ID, types.ContentTypeImage)
	if err != nil || len(visual) != 1 {
		t.Fatalf("GetByContentType: err=%v len=%d", err, len(visual))
	}

	count, err := repo.CountByDocumentID(dbc, d.ID)
	if err != nil || count != 3 {
		t.Fatalf("CountByDocumentID: err=%v count=%d", err, count)
	}

	n, err := repo.DeleteByDocumentID(dbc, d.ID)
	if err != nil || n != 3 {
		t.Fatalf("DeleteByDocumentID: err=%v n=%d", err, n)
	}
}
