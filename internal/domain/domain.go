package domain

import (
	"github.com/studymesh/studymesh-backend/internal/domain/documents"
	"github.com/studymesh/studymesh-backend/internal/domain/plans"
	"github.com/studymesh/studymesh-backend/internal/domain/sessions"
	"github.com/studymesh/studymesh-backend/internal/domain/user"
)

// Aliases so data-layer code can keep importing a single types package.

type (
	User         = user.User
	RefreshToken = user.RefreshToken

	Document      = documents.Document
	DocumentChunk = documents.DocumentChunk

	StudyPlan        = plans.StudyPlan
	StudyPlanSection = plans.StudyPlanSection

	LearningSession = sessions.LearningSession
	SectionProgress = sessions.SectionProgress
	SessionMessage  = sessions.SessionMessage
	ToolCall        = sessions.ToolCall

	UploadStatus    = documents.UploadStatus
	StorageProvider = documents.StorageProvider
	ContentType     = documents.ContentType
	PlanStatus      = plans.PlanStatus
	SessionStatus   = sessions.SessionStatus
	ProgressStatus  = sessions.ProgressStatus
	MessageRole     = sessions.MessageRole
)

const (
	UploadStatusPending    = documents.UploadStatusPending
	UploadStatusProcessing = documents.UploadStatusProcessing
	UploadStatusCompleted  = documents.UploadStatusCompleted
	UploadStatusFailed     = documents.UploadStatusFailed

	StorageProviderCloudinary = documents.StorageProviderCloudinary
	StorageProviderS3         = documents.StorageProviderS3
	StorageProviderGCS        = documents.StorageProviderGCS

	ContentTypeText  = documents.ContentTypeText
	ContentTypeImage = documents.ContentTypeImage
	ContentTypeTable = documents.ContentTypeTable

	PlanStatusDraft     = plans.PlanStatusDraft
	PlanStatusActive    = plans.PlanStatusActive
	PlanStatusCompleted = plans.PlanStatusCompleted
	PlanStatusArchived  = plans.PlanStatusArchived

	SessionStatusPending   = sessions.SessionStatusPending
	SessionStatusActive    = sessions.SessionStatusActive
	SessionStatusPaused    = sessions.SessionStatusPaused
	SessionStatusCompleted = sessions.SessionStatusCompleted

	ProgressStatusPending    = sessions.ProgressStatusPending
	ProgressStatusInProgress = sessions.ProgressStatusInProgress
	ProgressStatusCompleted  = sessions.ProgressStatusCompleted
	ProgressStatusSkipped    = sessions.ProgressStatusSkipped

	MessageRoleUser = sessions.MessageRoleUser
	MessageRoleAI   = sessions.MessageRoleAI
	MessageRoleTool = sessions.MessageRoleTool
)
