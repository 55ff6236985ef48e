package dto

import (
	"time"

	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

// ArchiveImageResponse is the API representation of an archived artwork image.
type ArchiveImageResponse struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	DataURL   string    `json:"data_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ArchiveRejection explains why one file of an upload batch was not stored.
type ArchiveRejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ArchiveUploadResponse reports the per-file outcome of an upload batch.
// Applied is false when the student no longer exists.
type ArchiveUploadResponse struct {
	Applied  bool                   `json:"applied"`
	Stored   []ArchiveImageResponse `json:"stored"`
	Rejected []ArchiveRejection     `json:"rejected"`
}

// ArchiveDeleteRequest lists image ids to remove.
type ArchiveDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

// ArchiveDeleteResponse reports how many of the requested images were removed.
type ArchiveDeleteResponse struct {
	Requested int   `json:"requested"`
	Deleted   int64 `json:"deleted"`
}

// ArchiveDownload is a decoded image ready to be written to a client.
type ArchiveDownload struct {
	FileName string
	MimeType string
	Content  []byte
}

// NewArchiveImageResponse maps an archive model. The payload is included only when requested.
func NewArchiveImageResponse(image models.ArchiveImage, includePayload bool) ArchiveImageResponse {
	response := ArchiveImageResponse{
		ID:        image.ID,
		StudentID: image.StudentID,
		Name:      image.Name,
		MimeType:  image.MimeType,
		SizeBytes: image.SizeBytes,
		CreatedAt: image.CreatedAt,
	}
	if includePayload {
		response.DataURL = image.Payload
	}
	return response
}
