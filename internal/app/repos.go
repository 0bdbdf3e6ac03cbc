package app

import (
	"gorm.io/gorm"

	docrepo "github.com/studymesh/studymesh-backend/internal/data/repos/documents"
	planrepo "github.com/studymesh/studymesh-backend/internal/data/repos/plans"
	sessrepo "github.com/studymesh/studymesh-backend/internal/data/repos/sessions"
	userrepo "github.com/studymesh/studymesh-backend/internal/data/repos/user"
	"github.com/studymesh/studymesh-backend/internal/platform/logger"
)

type Repos struct {
	User         userrepo.UserRepo
	RefreshToken userrepo.RefreshTokenRepo

	Document      docrepo.DocumentRepo
	DocumentChunk docrepo.DocumentChunkRepo

	StudyPlan        planrepo.StudyPlanRepo
	StudyPlanSection planrepo.StudyPlanSectionRepo

	LearningSession sessrepo.LearningSessionRepo
	SectionProgress sessrepo.SectionProgressRepo
	SessionMessage  sessrepo.SessionMessageRepo
	ToolCall        sessrepo.ToolCallRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         userrepo.NewUserRepo(db, log),
		RefreshToken: userrepo.NewRefreshTokenRepo(db, log),

		Document:      docrepo.NewDocumentRepo(db, log),
		DocumentChunk: docrepo.NewDocumentChunkRepo(db, log),

		StudyPlan:        planrepo.NewStudyPlanRepo(db, log),
		StudyPlanSection: planrepo.NewStudyPlanSectionRepo(db, log),

		LearningSession: sessrepo.NewLearningSessionRepo(db, log),
		SectionProgress: sessrepo.NewSectionProgressRepo(db, log),
		SessionMessage:  sessrepo.NewSessionMessageRepo(db, log),
		ToolCall:        sessrepo.NewToolCallRepo(db, log),
	}
}
