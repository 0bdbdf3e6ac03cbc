package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/studymesh/studymesh-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Identity
		// =========================
		&types.User{},
		&types.RefreshToken{},

		// =========================
		// Documents + chunk index
		// =========================
		&types.Document{},
		&types.DocumentChunk{},

		// =========================
		// Study plans
		// =========================
		&types.StudyPlan{},
		&types.StudyPlanSection{},

		// =========================
		// Sessions + progress + transcript
		// =========================
		&types.LearningSession{},
		&types.SectionProgress{},
		&types.SessionMessage{},
		&types.ToolCall{},
	)
}

// foreignKey applies one FK constraint idempotently. onDelete is the full
// action clause, e.g. "ON DELETE CASCADE" or "ON DELETE SET NULL".
func foreignKey(db *gorm.DB, table, constraint, column, refTable, onDelete string) error {
	stmt := fmt.Sprintf(`
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE table_schema = 'public'
				AND table_name = '%s'
				AND constraint_name = '%s'
			) THEN
				ALTER TABLE %q
				ADD CONSTRAINT %s
				FOREIGN KEY (%s) REFERENCES %q(id) %s;
			END IF;
		END $$;
	`, table, constraint, table, constraint, column, refTable, onDelete)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("add constraint %s: %w", constraint, err)
	}
	return nil
}

// EnsureOwnership applies the cascade graph: strong ownership cascades, the
// session -> plan reference nullifies, and tool_call deliberately has no
// constraint so call logs outlive their message.
func EnsureOwnership(db *gorm.DB) error {
	type fk struct {
		table, constraint, column, refTable, onDelete string
	}
	rules := []fk{
		{"refresh_token", "fk_refresh_token_user", "user_id", "user", "ON DELETE CASCADE"},

		{"document", "fk_document_user", "user_id", "user", "ON DELETE CASCADE"},
		{"document_chunk", "fk_document_chunk_document", "document_id", "document", "ON DELETE CASCADE"},

		{"study_plan", "fk_study_plan_user", "user_id", "user", "ON DELETE CASCADE"},
		{"study_plan", "fk_study_plan_document", "document_id", "document", "ON DELETE CASCADE"},
		{"study_plan_section", "fk_study_plan_section_plan", "study_plan_id", "study_plan", "ON DELETE CASCADE"},

		{"learning_session", "fk_learning_session_user", "user_id", "user", "ON DELETE CASCADE"},
		{"learning_session", "fk_learning_session_plan", "study_plan_id", "study_plan", "ON DELETE SET NULL"},

		{"section_progress", "fk_section_progress_session", "session_id", "learning_session", "ON DELETE CASCADE"},
		{"section_progress", "fk_section_progress_section", "section_id", "study_plan_section", "ON DELETE CASCADE"},

		{"session_message", "fk_session_message_session", "session_id", "learning_session", "ON DELETE CASCADE"},
	}
	for _, r := range rules {
		if err := foreignKey(db, r.table, r.constraint, r.column, r.refTable, r.onDelete); err != nil {
			return err
		}
	}
	return nil
}

// EnsureIntegrityIndexes applies the uniqueness invariants and the hot read
// paths as raw SQL, since gorm tags cannot express the composite ones.
func EnsureIntegrityIndexes(db *gorm.DB) error {
	stmts := []string{
		// One chunk per (document, index); the index is also the display order.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_document_chunk_doc_index
		 ON document_chunk (document_id, chunk_index);`,

		// One section per (plan, order slot).
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_study_plan_section_plan_index
		 ON study_plan_section (study_plan_id, "index");`,

		// Exactly one progress row per (session, section) pair.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_section_progress_pair
		 ON section_progress (session_id, section_id);`,

		// One version number per plan lineage.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_study_plan_lineage_version
		 ON study_plan (root_plan_id, version);`,

		// Chunk range queries by page and by modality.
		`CREATE INDEX IF NOT EXISTS idx_document_chunk_doc_page
		 ON document_chunk (document_id, page_number);`,
		`CREATE INDEX IF NOT EXISTS idx_document_chunk_doc_type
		 ON document_chunk (document_id, content_type);`,

		// Transcript reads in insertion order.
		`CREATE INDEX IF NOT EXISTS idx_session_message_session_created
		 ON session_message (session_id, created_at);`,

		// Dashboard listings.
		`CREATE INDEX IF NOT EXISTS idx_study_plan_user_status
		 ON study_plan (user_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_learning_session_user_status
		 ON learning_session (user_id, status, started_at DESC);`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure integrity index: %w", err)
		}
	}
	return nil
}
