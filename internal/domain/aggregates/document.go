package aggregates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/studymesh/studymesh-backend/internal/domain/documents"
)

var DocumentAggregateContract = Contract{
	Name:             "Documents.DocumentAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns upload-status progression and the contiguous chunk index invariant.",
}

// DocumentAggregate owns document registration, the ingestion status
// machine, and atomic chunk ingestion. It records state; it never drives
// retries or ingestion itself.
type DocumentAggregate interface {
	Aggregate

	Register(ctx context.Context, in RegisterDocumentInput) (RegisterDocumentResult, error)
	UpdateMetadata(ctx context.Context, in UpdateDocumentMetadataInput) error

	MarkProcessing(ctx context.Context, documentID uuid.UUID) error
	MarkCompleted(ctx context.Context, documentID uuid.UUID) error
	MarkFailed(ctx context.Context, documentID uuid.UUID) error
	// Retry records an externally decided failed -> pending move and clears
	// any chunks left by the failed run, in one transaction.
	Retry(ctx context.Context, documentID uuid.UUID) error

	// IngestChunks bulk-inserts the full ordered chunk sequence for a
	// processing document. Indexes must be contiguous from zero.
	IngestChunks(ctx context.Context, in IngestChunksInput) (IngestChunksResult, error)

	Delete(ctx context.Context, documentID uuid.UUID) error
}

type RegisterDocumentInput struct {
	UserID           uuid.UUID
	StorageProvider  documents.StorageProvider
	StorageURL       string
	StoragePublicID  string
	OriginalFilename string
}

type RegisterDocumentResult struct {
	DocumentID uuid.UUID
	Status     documents.UploadStatus
}

// UpdateDocumentMetadataInput carries fields ingestion discovers
// incrementally; nil/empty means leave unchanged.
type UpdateDocumentMetadataInput struct {
	DocumentID      uuid.UUID
	MimeType        string
	SizeBytes       *int64
	Pages           *int
	Title           string
	SearchNamespace string
}

// ChunkInput is one chunk in document order. The aggregate assigns no
// defaults: ContentType decides whether Text or BlobURL is authoritative,
// and a bounding box is only legal on image/table chunks.
type ChunkInput struct {
	ChunkIndex  int
	PageNumber  *int
	CharStart   *int
	CharEnd     *int
	Bbox        *Bbox
	ContentType documents.ContentType
	Text        string
	BlobURL     string
	TokenCount  *int
	Embedding   datatypes.JSON
}

type Bbox struct {
	X0, Y0, X1, Y1 float64
}

type IngestChunksInput struct {
	DocumentID uuid.UUID
	Chunks     []ChunkInput
	// MarkCompleted also moves the document processing -> completed in the
	// same transaction once the chunks are in.
	MarkCompleted bool
}

type IngestChunksResult struct {
	DocumentID uuid.UUID
	ChunkIDs   []uuid.UUID
}
