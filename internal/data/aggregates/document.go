package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	docrepo "github.com/studymesh/studymesh-backend/internal/data/repos/documents"
	types "github.com/studymesh/studymesh-backend/internal/domain"
	domainagg "github.com/studymesh/studymesh-backend/internal/domain/aggregates"
	"github.com/studymesh/studymesh-backend/internal/domain/documents"
	"github.com/studymesh/studymesh-backend/internal/platform/dbctx"
)

type DocumentAggregateDeps struct {
	Base BaseDeps

	Documents docrepo.DocumentRepo
	Chunks    docrepo.DocumentChunkRepo
}

type documentAggregate struct {
	deps DocumentAggregateDeps
}

func NewDocumentAggregate(deps DocumentAggregateDeps) domainagg.DocumentAggregate {
	deps.Base = deps.Base.withDefaults()
	return &documentAggregate{deps: deps}
}

func (a *documentAggregate) Contract() domainagg.Contract {
	return domainagg.DocumentAggregateContract
}

func (a *documentAggregate) Register(ctx context.Context, in domainagg.RegisterDocumentInput) (domainagg.RegisterDocumentResult, error) {
	const op = "Documents.Document.Register"
	var out domainagg.RegisterDocumentResult

	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if strings.TrimSpace(in.StorageURL) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing storage_url", nil)
	}
	provider := in.StorageProvider
	if provider == "" {
		provider = documents.StorageProviderCloudinary
	}
	if !provider.Valid() {
		return out, domainagg.NewError(domainagg.CodeInvariantViolation, op, fmt.Sprintf("unknown storage provider %q", provider), nil)
	}
	if a.deps.Documents == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "document aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		doc := &types.Document{
			UserID:           in.UserID,
			StorageProvider:  provider,
			StorageURL:       strings.TrimSpace(in.StorageURL),
			StoragePublicID:  strings.TrimSpace(in.StoragePublicID),
			OriginalFilename: strings.TrimSpace(in.OriginalFilename),
			Status:           documents.UploadStatusPending,
		}
		if _, err := a.deps.Documents.Create(dbc, []*types.Document{doc}); err != nil {
			return err
		}
		out = domainagg.RegisterDocumentResult{DocumentID: doc.ID, Status: doc.Status}
		return nil
	})
	return out, err
}

func (a *documentAggregate) UpdateMetadata(ctx context.Context, in domainagg.UpdateDocumentMetadataInput) error {
	const op = "Documents.Document.UpdateMetadata"
	if in.DocumentID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing document_id", nil)
	}

	updates := map[string]any{}
	if mt := strings.TrimSpace(in.MimeType); mt != "" {
		updates["mime_type"] = mt
	}
	if in.SizeBytes != nil {
		if *in.SizeBytes < 0 {
			return domainagg.NewError(domainagg.CodeValidation, op, "size_bytes must be >= 0", nil)
		}
		updates["size_bytes"] = *in.SizeBytes
	}
	if in.Pages != nil {
		if *in.Pages < 0 {
			return domainagg.NewError(domainagg.CodeValidation, op, "pages must be >= 0", nil)
		}
		updates["pages"] = *in.Pages
	}
	if t := strings.TrimSpace(in.Title); t != "" {
		updates["title"] = t
	}
	if ns := strings.TrimSpace(in.SearchNamespace); ns != "" {
		updates["search_namespace"] = ns
	}
	if len(updates) == 0 {
		return domainagg.NewError(domainagg.CodeValidation, op, "no metadata to update", nil)
	}

	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if _, err := a.deps.Documents.GetByID(dbc, in.DocumentID); err != nil {
			return err
		}
		return a.deps.Documents.UpdateFields(dbc, in.DocumentID, updates)
	})
}

func (a *documentAggregate) MarkProcessing(ctx context.Context, documentID uuid.UUID) error {
	return a.transition(ctx, "Documents.Document.MarkProcessing", documentID,
		[]documents.UploadStatus{documents.UploadStatusPending},
		documents.UploadStatusProcessing)
}

func (a *documentAggregate) MarkCompleted(ctx context.Context, documentID uuid.UUID) error {
	return a.transition(ctx, "Documents.Document.MarkCompleted", documentID,
		[]documents.UploadStatus{documents.UploadStatusProcessing},
		documents.UploadStatusCompleted)
}

func (a *documentAggregate) MarkFailed(ctx context.Context, documentID uuid.UUID) error {
	return a.transition(ctx, "Documents.Document.MarkFailed", documentID,
		[]documents.UploadStatus{documents.UploadStatusProcessing},
		documents.UploadStatusFailed)
}

func (a *documentAggregate) transition(ctx context.Context, op string, documentID uuid.UUID, from []documents.UploadStatus, to documents.UploadStatus) error {
	if documentID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing document_id", nil)
	}

	var prev documents.UploadStatus
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		doc, err := a.deps.Documents.LockByID(dbc, documentID)
		if err != nil {
			return err
		}
		prev = doc.Status
		if !doc.Status.CanTransitionTo(to) {
			return InvariantError(fmt.Sprintf("cannot move document %s -> %s", doc.Status, to))
		}
		ok, err := a.deps.Documents.UpdateStatusFrom(dbc, documentID, from, to)
		if err != nil {
			return err
		}
		return RequireCASSuccess(ok, "document status changed concurrently")
	})
	if err == nil {
		a.deps.Base.Hooks.EmitTransition("document", documentID, string(prev), string(to))
	}
	return err
}

// Retry clears the chunks of a failed run and moves the document back to
// pending in one transaction, so a re-ingestion starts from a clean slate.
func (a *documentAggregate) Retry(ctx context.Context, documentID uuid.UUID) error {
	const op = "Documents.Document.Retry"
	if documentID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing document_id", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		doc, err := a.deps.Documents.LockByID(dbc, documentID)
		if err != nil {
			return err
		}
		if doc.Status != documents.UploadStatusFailed {
			return InvariantError(fmt.Sprintf("cannot retry document in status %q", doc.Status))
		}
		if _, err := a.deps.Chunks.DeleteByDocumentID(dbc, documentID); err != nil {
			return err
		}
		ok, err := a.deps.Documents.UpdateStatusFrom(dbc, documentID,
			[]documents.UploadStatus{documents.UploadStatusFailed},
			documents.UploadStatusPending)
		if err != nil {
			return err
		}
		return RequireCASSuccess(ok, "document status changed concurrently")
	})
	if err == nil {
		a.deps.Base.Hooks.EmitTransition("document", documentID,
			string(documents.UploadStatusFailed), string(documents.UploadStatusPending))
	}
	return err
}

func (a *documentAggregate) IngestChunks(ctx context.Context, in domainagg.IngestChunksInput) (domainagg.IngestChunksResult, error) {
	const op = "Documents.Document.IngestChunks"
	var out domainagg.IngestChunksResult

	if in.DocumentID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing document_id", nil)
	}
	if len(in.Chunks) == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "no chunks to ingest", nil)
	}
	if err := validateChunkSequence(in.Chunks); err != nil {
		return out, MapError(op, err)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		doc, err := a.deps.Documents.LockByID(dbc, in.DocumentID)
		if err != nil {
			return err
		}
		if doc.Status != documents.UploadStatusProcessing {
			return InvariantError(fmt.Sprintf("cannot ingest chunks in status %q", doc.Status))
		}

		existing, err := a.deps.Chunks.CountByDocumentID(dbc, in.DocumentID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return ConflictError("document already has chunks")
		}

		rows := make([]*types.DocumentChunk, 0, len(in.Chunks))
		for _, c := range in.Chunks {
			row := &types.DocumentChunk{
				DocumentID:  in.DocumentID,
				ChunkIndex:  c.ChunkIndex,
				PageNumber:  c.PageNumber,
				CharStart:   c.CharStart,
				CharEnd:     c.CharEnd,
				ContentType: c.ContentType,
				TextContent: c.Text,
				BlobURL:     strings.TrimSpace(c.BlobURL),
				TokenCount:  c.TokenCount,
				Embedding:   c.Embedding,
			}
			if c.Bbox != nil {
				row.BboxX0 = &c.Bbox.X0
				row.BboxY0 = &c.Bbox.Y0
				row.BboxX1 = &c.Bbox.X1
				row.BboxY1 = &c.Bbox.Y1
			}
			rows = append(rows, row)
		}
		if _, err := a.deps.Chunks.Create(dbc, rows); err != nil {
			return err
		}

		if in.MarkCompleted {
			ok, err := a.deps.Documents.UpdateStatusFrom(dbc, in.DocumentID,
				[]documents.UploadStatus{documents.UploadStatusProcessing},
				documents.UploadStatusCompleted)
			if err != nil {
				return err
			}
			if err := RequireCASSuccess(ok, "document status changed concurrently"); err != nil {
				return err
			}
		}

		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		out = domainagg.IngestChunksResult{DocumentID: in.DocumentID, ChunkIDs: ids}
		return nil
	})
	if err == nil && in.MarkCompleted {
		a.deps.Base.Hooks.EmitTransition("document", in.DocumentID,
			string(documents.UploadStatusProcessing), string(documents.UploadStatusCompleted))
	}
	return out, err
}

// validateChunkSequence enforces the ordering and per-chunk shape rules:
// indexes contiguous from zero, char offsets ordered, bounding boxes only on
// visual chunks, and the right payload column filled for the modality.
func validateChunkSequence(chunks []domainagg.ChunkInput) error {
	seen := make(map[int]bool, len(chunks))
	for _, c := range chunks {
		if !c.ContentType.Valid() {
			return InvariantError(fmt.Sprintf("unknown content type %q at index %d", c.ContentType, c.ChunkIndex))
		}
		if c.ChunkIndex < 0 {
			return ValidationError(fmt.Sprintf("negative chunk index %d", c.ChunkIndex))
		}
		if seen[c.ChunkIndex] {
			return ConflictError(fmt.Sprintf("duplicate chunk index %d", c.ChunkIndex))
		}
		seen[c.ChunkIndex] = true

		if c.CharStart != nil && c.CharEnd != nil && *c.CharEnd < *c.CharStart {
			return ValidationError(fmt.Sprintf("char_end before char_start at index %d", c.ChunkIndex))
		}
		if c.Bbox != nil && !c.ContentType.Visual() {
			return ValidationError(fmt.Sprintf("bounding box on text chunk at index %d", c.ChunkIndex))
		}
		if c.ContentType.Visual() {
			if strings.TrimSpace(c.BlobURL) == "" {
				return ValidationError(fmt.Sprintf("visual chunk at index %d has no blob_url", c.ChunkIndex))
			}
		} else if strings.TrimSpace(c.Text) == "" {
			return ValidationError(fmt.Sprintf("text chunk at index %d has no text", c.ChunkIndex))
		}
	}
	for i := 0; i < len(chunks); i++ {
		if !seen[i] {
			return InvariantError(fmt.Sprintf("chunk indexes not contiguous: missing %d", i))
		}
	}
	return nil
}

func (a *documentAggregate) Delete(ctx context.Context, documentID uuid.UUID) error {
	const op = "Documents.Document.Delete"
	if documentID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing document_id", nil)
	}

	// Chunks, plans and sections cascade with the document row.
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		n, err := a.deps.Documents.Delete(dbc, documentID)
		if err != nil {
			return err
		}
		if n == 0 {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("document not found: %s", documentID), nil)
		}
		return nil
	})
}
