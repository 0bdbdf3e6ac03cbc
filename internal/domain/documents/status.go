package documents

// UploadStatus tracks a document through ingestion. Transitions are
// forward-only except failed -> pending, which an external retry policy may
// request; the store records the move but never drives it.
type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "pending"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

func (s UploadStatus) Valid() bool {
	switch s {
	case UploadStatusPending, UploadStatusProcessing, UploadStatusCompleted, UploadStatusFailed:
		return true
	}
	return false
}

func (s UploadStatus) CanTransitionTo(next UploadStatus) bool {
	switch s {
	case UploadStatusPending:
		return next == UploadStatusProcessing
	case UploadStatusProcessing:
		return next == UploadStatusCompleted || next == UploadStatusFailed
	case UploadStatusFailed:
		return next == UploadStatusPending
	case UploadStatusCompleted:
		return false
	}
	return false
}

// StorageProvider names where the binary object lives.
type StorageProvider string

const (
	StorageProviderCloudinary StorageProvider = "cloudinary"
	StorageProviderS3         StorageProvider = "s3"
	StorageProviderGCS        StorageProvider = "gcs"
)

func (p StorageProvider) Valid() bool {
	switch p {
	case StorageProviderCloudinary, StorageProviderS3, StorageProviderGCS:
		return true
	}
	return false
}

// ContentType decides which chunk field is authoritative: text chunks carry
// TextContent, image and table chunks carry BlobURL.
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
	ContentTypeTable ContentType = "table"
)

func (c ContentType) Valid() bool {
	switch c {
	case ContentTypeText, ContentTypeImage, ContentTypeTable:
		return true
	}
	return false
}

// Visual reports whether chunks of this type may carry a bounding box.
func (c ContentType) Visual() bool {
	return c == ContentTypeImage || c == ContentTypeTable
}
