package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/studymesh/studymesh-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash",
		IsActive:     true,
		Name:         "Test User",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.UploadStatus) *types.Document {
	tb.Helper()
	d := &types.Document{
		ID:               uuid.New(),
		UserID:           userID,
		StorageProvider:  types.StorageProviderCloudinary,
		StorageURL:       "https://cdn.example/" + uuid.NewString(),
		OriginalFilename: "doc.pdf",
		Status:           status,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedChunk(tb testing.TB, ctx context.Context, tx *gorm.DB, documentID uuid.UUID, index int) *types.DocumentChunk {
	tb.Helper()
	c := &types.DocumentChunk{
		ID:          uuid.New(),
		DocumentID:  documentID,
		ChunkIndex:  index,
		ContentType: types.ContentTypeText,
		TextContent: "chunk",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed chunk: %v", err)
	}
	return c
}

// SeedPlan roots its own lineage, matching how v1 plans are written.
func SeedPlan(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, documentID uuid.UUID, status types.PlanStatus) *types.StudyPlan {
	tb.Helper()
	id := uuid.New()
	p := &types.StudyPlan{
		ID:         id,
		UserID:     userID,
		DocumentID: documentID,
		RootPlanID: id,
		Plan:       datatypes.JSON([]byte(`{"outline":[]}`)),
		Title:      "plan",
		Version:    1,
		Status:     status,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed plan: %v", err)
	}
	return p
}

func SeedSection(tb testing.TB, ctx context.Context, tx *gorm.DB, planID uuid.UUID, index int) *types.StudyPlanSection {
	tb.Helper()
	s := &types.StudyPlanSection{
		ID:          uuid.New(),
		StudyPlanID: planID,
		Title:       "section",
		Index:       index,
		Content:     datatypes.JSON([]byte(`{"body":"text"}`)),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed section: %v", err)
	}
	return s
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, planID *uuid.UUID, status types.SessionStatus) *types.LearningSession {
	tb.Helper()
	s := &types.LearningSession{
		ID:          uuid.New(),
		UserID:      userID,
		StudyPlanID: planID,
		Status:      status,
		StartedAt:   time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrInt(v int) *int { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
