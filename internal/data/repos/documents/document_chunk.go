package documents

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/studymesh/studymesh-backend/internal/domain"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
	"github.com/studymesh/studymesh-backend/internal/platform/logger"
)

type DocumentChunkRepo interface {
	Create(dbc dbctx.Context, chunks []*types.DocumentChunk) ([]*types.DocumentChunk, error)
	GetByDocumentID(dbc dbctx.Context, documentID uuid.UUID) ([]*types.DocumentChunk, error)
	GetByIndexRange(dbc dbctx.Context, documentID uuid.UUID, from, to int) ([]*types.DocumentChunk, error)
	GetByPage(dbc dbctx.Context, documentID uuid.UUID, pageNumber int) ([]*types.DocumentChunk, error)
	GetByContentType(dbc dbctx.Context, documentID uuid.UUID, ct types.ContentType) ([]*types.DocumentChunk, error)
	CountByDocumentID(dbc dbctx.Context, documentID uuid.UUID) (int64, error)
	DeleteByDocumentID(dbc dbctx.Context, documentID uuid.UUID) (int64, error)
}

type documentChunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentChunkRepo(db *gorm.DB, baseLog *logger.Logger) DocumentChunkRepo {
	return &documentChunkRepo{db: db, log: baseLog.With("repo", "DocumentChunkRepo")}
}

func (r *documentChunkRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *documentChunkRepo) Create(dbc dbctx.Context, chunks []*types.DocumentChunk) ([]*types.DocumentChunk, error) {
	if len(chunks) == 0 {
		return []*types.DocumentChunk{}, nil
	}

	// Keep batches small because TextContent is large.
	const batchSize = 100

	if err := r.conn(dbc).CreateInBatches(chunks, batchSize).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *documentChunkRepo) GetByDocumentID(dbc dbctx.Context, documentID uuid.UUID) ([]*types.DocumentChunk, error) {
	var rows []*types.DocumentChunk
	if documentID == uuid.Nil {
		return rows, nil
	}
	if err := r.conn(dbc).
		Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *documentChunkRepo) GetByIndexRange(dbc dbctx.Context, documentID uuid.UUID, from, to int) ([]*types.DocumentChunk, error) {
	if documentID == uuid.Nil {
		return nil, fmt.Errorf("missing document_id")
	}
	if to < from {
		return nil, fmt.Errorf("invalid index range [%d, %d]", from, to)
	}
	var rows []*types.DocumentChunk
	if err := r.conn(dbc).
		Where("document_id = ? AND chunk_index BETWEEN ? AND ?", documentID, from, to).
		Order("chunk_index ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *documentChunkRepo) GetByPage(dbc dbctx.Context, documentID uuid.UUID, pageNumber int) ([]*types.DocumentChunk, error) {
	if documentID == uuid.Nil {
		return nil, fmt.Errorf("missing document_id")
	}
	var rows []*types.DocumentChunk
	if err := r.conn(dbc).
		Where("document_id = ? AND page_number = ?", documentID, pageNumber).
		Order("chunk_index ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *documentChunkRepo) GetByContentType(dbc dbctx.Context, documentID uuid.UUID, ct types.ContentType) ([]*types.DocumentChunk, error) {
	if documentID == uuid.Nil {
		return nil, fmt.Errorf("missing document_id")
	}
	var rows []*types.DocumentChunk
	if err := r.conn(dbc).
		Where("document_id = ? AND content_type = ?", documentID, ct).
		Order("chunk_index ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *documentChunkRepo) CountByDocumentID(dbc dbctx.Context, documentID uuid.UUID) (int64, error) {
	var count int64
	if documentID == uuid.Nil {
		return 0, nil
	}
	if err := r.conn(dbc).
		Model(&types.DocumentChunk{}).
		Where("document_id = ?", documentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *documentChunkRepo) DeleteByDocumentID(dbc dbctx.Context, documentID uuid.UUID) (int64, error) {
	if documentID == uuid.Nil {
		return 0, nil
	}
	res := r.conn(dbc).
		Where("document_id = ?", documentID).
		Delete(&types.DocumentChunk{})
	return res.RowsAffected, res.Error
}
