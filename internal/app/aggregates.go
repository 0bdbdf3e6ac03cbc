package app

import (
	"gorm.io/gorm"

	dataagg "github.com/studymesh/studymesh-backend/internal/data/aggregates"
	domainagg "github.com/studymesh/studymesh-backend/internal/domain/aggregates"
	"github.com/studymesh/studymesh-backend/internal/platform/logger"
	"github.com/studymesh/studymesh-backend/internal/realtime/bus"
)

type Aggregates struct {
	Identity domainagg.IdentityAggregate
	Document domainagg.DocumentAggregate
	Plan     domainagg.PlanAggregate
	Session  domainagg.SessionAggregate
}

func wireAggregates(db *gorm.DB, log *logger.Logger, reposet Repos, b bus.Bus) Aggregates {
	log.Info("Wiring aggregates...")
	base := dataagg.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: dataagg.NewBusHooks(b, log),
	}
	return Aggregates{
		Identity: dataagg.NewIdentityAggregate(dataagg.IdentityAggregateDeps{
			Base:          base,
			Users:         reposet.User,
			RefreshTokens: reposet.RefreshToken,
		}),
		Document: dataagg.NewDocumentAggregate(dataagg.DocumentAggregateDeps{
			Base:      base,
			Documents: reposet.Document,
			Chunks:    reposet.DocumentChunk,
		}),
		Plan: dataagg.NewPlanAggregate(dataagg.PlanAggregateDeps{
			Base:     base,
			Plans:    reposet.StudyPlan,
			Sections: reposet.StudyPlanSection,
		}),
		Session: dataagg.NewSessionAggregate(dataagg.SessionAggregateDeps{
			Base:      base,
			Sessions:  reposet.LearningSession,
			Progress:  reposet.SectionProgress,
			Messages:  reposet.SessionMessage,
			ToolCalls: reposet.ToolCall,
			Plans:     reposet.StudyPlan,
			Sections:  reposet.StudyPlanSection,
		}),
	}
}
