package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/studymesh/studymesh-backend/internal/domain/user"
)

// Document is an uploaded source file. The binary lives with the storage
// provider; this row is the source of truth for ownership and ingestion
// state. Metadata fields are filled in as ingestion discovers them.
type Document struct {
	ID     uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	StorageProvider StorageProvider `gorm:"column:storage_provider;not null;default:'cloudinary'" json:"storage_provider"`
	StorageURL      string          `gorm:"column:storage_url;not null" json:"storage_url"`
	StoragePublicID string          `gorm:"column:storage_public_id;not null" json:"storage_public_id"`

	OriginalFilename string `gorm:"column:original_filename;not null" json:"original_filename"`
	MimeType         string `gorm:"column:mime_type" json:"mime_type,omitempty"`
	SizeBytes        *int64 `gorm:"column:size_bytes" json:"size_bytes,omitempty"`
	Pages            *int   `gorm:"column:pages" json:"pages,omitempty"`
	Title            string `gorm:"column:title" json:"title,omitempty"`

	// Namespace in the external vector index holding this document's
	// embeddings. The index itself is not this layer's concern.
	SearchNamespace string `gorm:"column:search_namespace" json:"search_namespace,omitempty"`

	Status UploadStatus `gorm:"column:status;not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Document) TableName() string { return "document" }
