package documents

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DocumentChunk is the smallest retrievable unit of a document. ChunkIndex
// is zero-based and contiguous within a document; a gap is a data-integrity
// defect, not a permitted state. Bounding-box coordinates are normalised
// (0-1) against the page media box and only present for visual chunks.
type DocumentChunk struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`

	ChunkIndex int  `gorm:"column:chunk_index;not null" json:"chunk_index"`
	PageNumber *int `gorm:"column:page_number" json:"page_number,omitempty"`
	CharStart  *int `gorm:"column:char_start" json:"char_start,omitempty"`
	CharEnd    *int `gorm:"column:char_end" json:"char_end,omitempty"`

	BboxX0 *float64 `gorm:"column:bbox_x0" json:"bbox_x0,omitempty"`
	BboxY0 *float64 `gorm:"column:bbox_y0" json:"bbox_y0,omitempty"`
	BboxX1 *float64 `gorm:"column:bbox_x1" json:"bbox_x1,omitempty"`
	BboxY1 *float64 `gorm:"column:bbox_y1" json:"bbox_y1,omitempty"`

	ContentType ContentType `gorm:"column:content_type;not null;default:'text'" json:"content_type"`
	TextContent string      `gorm:"column:text_content;type:text" json:"text_content,omitempty"`
	BlobURL     string      `gorm:"column:blob_url" json:"blob_url,omitempty"`
	TokenCount  *int        `gorm:"column:token_count" json:"token_count,omitempty"`

	Embedding datatypes.JSON `gorm:"column:embedding;type:jsonb" json:"embedding,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (DocumentChunk) TableName() string { return "document_chunk" }

// Coords returns the bounding box when all four coordinates are present.
func (c *DocumentChunk) Coords() (x0, y0, x1, y1 float64, ok bool) {
	if c.BboxX0 == nil || c.BboxY0 == nil || c.BboxX1 == nil || c.BboxY1 == nil {
		return 0, 0, 0, 0, false
	}
	return *c.BboxX0, *c.BboxY0, *c.BboxX1, *c.BboxY1, true
}

// HasBbox reports whether any bounding-box coordinate is set.
func (c *DocumentChunk) HasBbox() bool {
	return c.BboxX0 != nil || c.BboxY0 != nil || c.BboxX1 != nil || c.BboxY1 != nil
}
