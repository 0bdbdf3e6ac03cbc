package aggregates

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"

	domainagg "github.com/studymesh/studymesh-backend/internal/domain/aggregates"
	"github.com/studymesh/studymesh-backend/internal/domain/documents"
)

func textChunk(index int) domainagg.ChunkInput {
	return domainagg.ChunkInput{
		ChunkIndex:  index,
		ContentType: documents.ContentTypeText,
		Text:        "chunk",
	}
}

func TestValidateChunkSequence(t *testing.T) {
	t.Run("contiguous ok", func(t *testing.T) {
		chunks := []domainagg.ChunkInput{textChunk(0), textChunk(1), textChunk(2)}
		if err := validateChunkSequence(chunks); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("gap rejected", func(t *testing.T) {
		chunks := []domainagg.ChunkInput{textChunk(0), textChunk(2)}
		if err := validateChunkSequence(chunks); !errors.Is(err, ErrInvariant) {
			t.Fatalf("want invariant error, got %v", err)
		}
	})

	t.Run("duplicate index rejected", func(t *testing.T) {
		chunks := []domainagg.ChunkInput{textChunk(0), textChunk(0)}
		if err := validateChunkSequence(chunks); !errors.Is(err, ErrConflict) {
			t.Fatalf("want conflict error, got %v", err)
		}
	})

	t.Run("nonzero start rejected", func(t *testing.T) {
		chunks := []domainagg.ChunkInput{textChunk(1), textChunk(2)}
		if err := validateChunkSequence(chunks); !errors.Is(err, ErrInvariant) {
			t.Fatalf("want invariant error, got %v", err)
		}
	})

	t.Run("char range ordered", func(t *testing.T) {
		start, end := 10, 5
		c := textChunk(0)
		c.CharStart = &start
		c.CharEnd = &end
		if err := validateChunkSequence([]domainagg.ChunkInput{c}); !errors.Is(err, ErrValidation) {
			t.Fatalf("want validation error, got %v", err)
		}
	})

	t.Run("bbox only on visual chunks", func(t *testing.T) {
		c := textChunk(0)
		c.Bbox = &domainagg.Bbox{X0: 0, Y0: 0, X1: 1, Y1: 1}
		if err := validateChunkSequence([]domainagg.ChunkInput{c}); !errors.Is(err, ErrValidation) {
			t.Fatalf("want validation error, got %v", err)
		}
	})

	t.Run("visual chunk needs blob url", func(t *testing.T) {
		c := domainagg.ChunkInput{ChunkIndex: 0, ContentType: documents.ContentTypeImage}
		if err := validateChunkSequence([]domainagg.ChunkInput{c}); !errors.Is(err, ErrValidation) {
			t.Fatalf("want validation error, got %v", err)
		}
	})

	t.Run("visual chunk with blob and bbox ok", func(t *testing.T) {
		c := domainagg.ChunkInput{
			ChunkIndex:  0,
			ContentType: documents.ContentTypeTable,
			BlobURL:     "https://cdn.example/table.png",
			Bbox:        &domainagg.Bbox{X0: 0, Y0: 0, X1: 100, Y1: 40},
		}
		if err := validateChunkSequence([]domainagg.ChunkInput{c}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("unknown content type rejected", func(t *testing.T) {
		c := domainagg.ChunkInput{ChunkIndex: 0, ContentType: "video", Text: "x"}
		if err := validateChunkSequence([]domainagg.ChunkInput{c}); !errors.Is(err, ErrInvariant) {
			t.Fatalf("want invariant error, got %v", err)
		}
	})
}

func section(index int) domainagg.SectionInput {
	return domainagg.SectionInput{
		Title:   "section",
		Index:   index,
		Content: datatypes.JSON([]byte(`{"body":"x"}`)),
	}
}

func TestValidateSectionSequence(t *testing.T) {
	t.Run("contiguous ok", func(t *testing.T) {
		in := []domainagg.SectionInput{section(0), section(1)}
		if err := validateSectionSequence(in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("empty ok", func(t *testing.T) {
		if err := validateSectionSequence(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("duplicate order rejected", func(t *testing.T) {
		in := []domainagg.SectionInput{section(0), section(0)}
		if err := validateSectionSequence(in); !errors.Is(err, ErrConflict) {
			t.Fatalf("want conflict error, got %v", err)
		}
	})

	t.Run("gap rejected", func(t *testing.T) {
		in := []domainagg.SectionInput{section(0), section(2)}
		if err := validateSectionSequence(in); !errors.Is(err, ErrInvariant) {
			t.Fatalf("want invariant error, got %v", err)
		}
	})

	t.Run("missing title rejected", func(t *testing.T) {
		in := []domainagg.SectionInput{{Index: 0, Content: datatypes.JSON([]byte(`{}`))}}
		if err := validateSectionSequence(in); !errors.Is(err, ErrValidation) {
			t.Fatalf("want validation error, got %v", err)
		}
	})
}

func TestMapErrorClassification(t *testing.T) {
	op := "Test.Op"

	if err := MapError(op, ValidationError("bad input")); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("validation sentinel: got %v", domainagg.CodeOf(err))
	}
	if err := MapError(op, InvariantError("bad state")); !domainagg.IsCode(err, domainagg.CodeInvariantViolation) {
		t.Fatalf("invariant sentinel: got %v", domainagg.CodeOf(err))
	}
	if err := MapError(op, ConflictError("lost race")); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("conflict sentinel: got %v", domainagg.CodeOf(err))
	}
	if err := MapError(op, errors.New(`duplicate key value violates unique constraint "idx_section_progress_pair"`)); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("duplicate key text: got %v", domainagg.CodeOf(err))
	}
	if err := MapError(op, &pgconn.PgError{Code: "23505", Message: "duplicate key"}); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("unique_violation sqlstate: got %v", domainagg.CodeOf(err))
	}
	if err := MapError(op, &pgconn.PgError{Code: "23503", Message: "fk violation"}); !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("foreign_key_violation sqlstate: got %v", domainagg.CodeOf(err))
	}
	if err := MapError(op, fmt.Errorf("create: %w", &pgconn.PgError{Code: "40001"})); !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("wrapped serialization sqlstate: got %v", domainagg.CodeOf(err))
	}
	if err := MapError(op, errors.New("deadlock detected")); !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("deadlock text: got %v", domainagg.CodeOf(err))
	}
	if err := MapError(op, errors.New("boom")); !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("unknown error: got %v", domainagg.CodeOf(err))
	}
	if MapError(op, nil) != nil {
		t.Fatal("nil error must map to nil")
	}

	// Already-typed errors pass through untouched.
	typed := domainagg.NewError(domainagg.CodeNotFound, op, "missing", nil)
	if got := MapError(op, typed); got != typed {
		t.Fatal("typed errors must not be rewrapped")
	}
}
