package documents

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/studymesh/studymesh-backend/internal/domain"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
	"github.com/studymesh/studymesh-backend/internal/platform/logger"
)

type DocumentRepo interface {
	Create(dbc dbctx.Context, docs []*types.Document) ([]*types.Document, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error)
	// LockByID takes a row lock for status-machine decisions inside a tx.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Document, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	// UpdateStatusFrom moves status only when the current value is in
	// allowedFrom; reports whether a row changed.
	UpdateStatusFrom(dbc dbctx.Context, id uuid.UUID, allowedFrom []types.UploadStatus, next types.UploadStatus) (bool, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *documentRepo) Create(dbc dbctx.Context, docs []*types.Document) ([]*types.Document, error) {
	if len(docs) == 0 {
		return []*types.Document{}, nil
	}
	if err := r.conn(dbc).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing document_id")
	}
	var doc types.Document
	if err := r.conn(dbc).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing document_id")
	}
	var doc types.Document
	if err := r.conn(dbc).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Document, error) {
	var docs []*types.Document
	if userID == uuid.Nil {
		return docs, nil
	}
	if err := r.conn(dbc).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.conn(dbc).
		Model(&types.Document{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *documentRepo) UpdateStatusFrom(dbc dbctx.Context, id uuid.UUID, allowedFrom []types.UploadStatus, next types.UploadStatus) (bool, error) {
	if id == uuid.Nil || len(allowedFrom) == 0 {
		return false, fmt.Errorf("missing document_id or allowed statuses")
	}
	res := r.conn(dbc).
		Model(&types.Document{}).
		Where("id = ? AND status IN ?", id, allowedFrom).
		Updates(map[string]any{
			"status":     next,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *documentRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	if id == uuid.Nil {
		return 0, nil
	}
	res := r.conn(dbc).Where("id = ?", id).Delete(&types.Document{})
	return res.RowsAffected, res.Error
}
