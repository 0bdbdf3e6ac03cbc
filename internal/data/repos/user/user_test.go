package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/studymesh/studymesh-backend/internal/data/repos/testutil"
	types "github.com/studymesh/studymesh-backend/internal/domain"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserRepo(db, testutil.Logger(t))

	u := &types.User{
		ID:           uuid.New(),
		Email:        "userrepo@example.com",
		PasswordHash: "hash",
		IsActive:     true,
		Name:         "User Repo",
	}
	if _, err := repo.Create(dbc, []*types.User{u}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByEmail(dbc, "userrepo@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("GetByEmail returned wrong row: %s", got.ID)
	}

	exists, err := repo.EmailExists(dbc, "userrepo@example.com")
	if err != nil || !exists {
		t.Fatalf("EmailExists: err=%v exists=%v", err, exists)
	}

	dup := &types.User{ID: uuid.New(), Email: "userrepo@example.com", PasswordHash: "other"}
	created, err := repo.CreateIfAbsent(dbc, dup)
	if err != nil {
		t.Fatalf("CreateIfAbsent: %v", err)
	}
	if created {
		t.Fatal("CreateIfAbsent must not insert a duplicate email")
	}

	if err := repo.UpdateFields(dbc, u.ID, map[string]any{"name": "Renamed"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	rows, err := repo.GetByIDs(dbc, []uuid.UUID{u.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	if rows[0].Name != "Renamed" {
		t.Fatalf("UpdateFields not applied, name=%q", rows[0].Name)
	}

	n, err := repo.Delete(dbc, u.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete: err=%v n=%d", err, n)
	}
}

func TestRefreshTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewRefreshTokenRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "refreshtokenrepo@example.com")

	now := time.Now().UTC()
	rows := []*types.RefreshToken{
		{ID: uuid.New(), UserID: u.ID, TokenHash: "a", IssuedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour)},
		{ID: uuid.New(), UserID: u.ID, TokenHash: "b", IssuedAt: now, ExpiresAt: now.Add(2 * time.Hour)},
	}
	if _, err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByUserID(dbc, u.ID)
	if err != nil || len(got) != 2 {
		t.Fatalf("GetByUserID: err=%v len=%d", err, len(got))
	}
	if got[0].TokenHash != "b" {
		t.Fatalf("expected newest first, got %q", got[0].TokenHash)
	}

	n, err := repo.RevokeByUserID(dbc, u.ID)
	if err != nil || n != 2 {
		t.Fatalf("RevokeByUserID: err=%v n=%d", err, n)
	}
	got, err = repo.GetByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID after revoke: %v", err)
	}
	for _, row := range got {
		if !row.Revoked {
			t.Fatalf("token %s not revoked", row.ID)
		}
		if row.Usable(now) {
			t.Fatalf("revoked token %s reported usable", row.ID)
		}
	}
}
