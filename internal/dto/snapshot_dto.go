package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/lesson-ledger-api/internal/ledger"
	"github.com/noah-isme/lesson-ledger-api/internal/models"
	"github.com/noah-isme/lesson-ledger-api/pkg/dataurl"
)

// Names of the four durable slots, kept compatible with the browser dashboard storage keys.
const (
	SlotStudents = "edu_students"
	SlotLogs     = "edu_logs"
	SlotReviews  = "edu_reviews"
	SlotArchives = "edu_archives"
)

// SlotNames lists the slots in load order.
var SlotNames = []string{SlotStudents, SlotLogs, SlotReviews, SlotArchives}

// SnapshotDocument is an import payload keyed by slot name. Each value is either
// a JSON array or a JSON string containing the array.
type SnapshotDocument map[string]json.RawMessage

// SnapshotExport is the full ledger serialized in the legacy slot format.
type SnapshotExport struct {
	Students []LegacyStudent      `json:"edu_students"`
	Logs     []LegacyLessonLog    `json:"edu_logs"`
	Reviews  []LegacyReview       `json:"edu_reviews"`
	Archives []LegacyArchiveImage `json:"edu_archives"`
}

// SnapshotImportResponse summarizes a full-replace import.
type SnapshotImportResponse struct {
	Students  int                    `json:"students"`
	Logs      int                    `json:"logs"`
	Reviews   int                    `json:"reviews"`
	Archives  int                    `json:"archives"`
	Recovered []string               `json:"recovered"`
	Integrity ledger.IntegrityReport `json:"integrity"`
}

// LegacyStudent is a student row in slot format. Timestamps are epoch milliseconds.
type LegacyStudent struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	RemainingLessons int    `json:"remainingLessons"`
	TotalLessons     int    `json:"totalLessons"`
	JoinDate         int64  `json:"joinDate"`
}

// LegacyLessonLog is a log row in slot format.
type LegacyLessonLog struct {
	ID          string `json:"id"`
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	Amount      int    `json:"amount"`
	Type        string `json:"type"`
	Date        int64  `json:"date"`
	Note        string `json:"note"`
}

// LegacyReview is a review row in slot format.
type LegacyReview struct {
	ID          string `json:"id"`
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	Content     string `json:"content"`
	Rating      int    `json:"rating"`
	Date        int64  `json:"date"`
}

// LegacyArchiveImage is an archive row in slot format; URL is the image data URL.
type LegacyArchiveImage struct {
	ID        string `json:"id"`
	StudentID string `json:"studentId"`
	URL       string `json:"url"`
	Name      string `json:"name"`
	Date      int64  `json:"date"`
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// NewSnapshotExport converts stored collections to the slot format.
func NewSnapshotExport(c ledger.Collections) SnapshotExport {
	out := SnapshotExport{
		Students: make([]LegacyStudent, 0, len(c.Students)),
		Logs:     make([]LegacyLessonLog, 0, len(c.Logs)),
		Reviews:  make([]LegacyReview, 0, len(c.Reviews)),
		Archives: make([]LegacyArchiveImage, 0, len(c.Archives)),
	}
	for _, s := range c.Students {
		out.Students = append(out.Students, LegacyStudent{
			ID:               s.ID,
			Name:             s.Name,
			Phone:            s.Phone,
			RemainingLessons: s.RemainingLessons,
			TotalLessons:     s.TotalLessons,
			JoinDate:         s.JoinDate.UnixMilli(),
		})
	}
	for _, l := range c.Logs {
		out.Logs = append(out.Logs, LegacyLessonLog{
			ID:          l.ID,
			StudentID:   l.StudentID,
			StudentName: l.StudentName,
			Amount:      l.Amount,
			Type:        l.Type,
			Date:        l.CreatedAt.UnixMilli(),
			Note:        l.Note,
		})
	}
	for _, r := range c.Reviews {
		out.Reviews = append(out.Reviews, LegacyReview{
			ID:          r.ID,
			StudentID:   r.StudentID,
			StudentName: r.StudentName,
			Content:     r.Content,
			Rating:      r.Rating,
			Date:        r.CreatedAt.UnixMilli(),
		})
	}
	for _, a := range c.Archives {
		out.Archives = append(out.Archives, LegacyArchiveImage{
			ID:        a.ID,
			StudentID: a.StudentID,
			URL:       a.Payload,
			Name:      a.Name,
			Date:      a.CreatedAt.UnixMilli(),
		})
	}
	return out
}

// ToModel converts a slot row into a student model.
func (s LegacyStudent) ToModel() models.Student {
	joined := fromMillis(s.JoinDate)
	return models.Student{
		ID:               s.ID,
		Name:             s.Name,
		Phone:            s.Phone,
		RemainingLessons: s.RemainingLessons,
		TotalLessons:     s.TotalLessons,
		JoinDate:         joined,
		UpdatedAt:        joined,
	}
}

// ToModel converts a slot row into a log model.
func (l LegacyLessonLog) ToModel() models.LessonLog {
	return models.LessonLog{
		ID:          l.ID,
		StudentID:   l.StudentID,
		StudentName: l.StudentName,
		Amount:      l.Amount,
		Type:        l.Type,
		Note:        l.Note,
		CreatedAt:   fromMillis(l.Date),
	}
}

// ToModel converts a slot row into a review model.
func (r LegacyReview) ToModel() models.Review {
	return models.Review{
		ID:          r.ID,
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		Content:     r.Content,
		Rating:      r.Rating,
		CreatedAt:   fromMillis(r.Date),
	}
}

// ToModel converts a slot row into an archive model. Size and MIME type are
// derived from the data URL when it decodes.
func (a LegacyArchiveImage) ToModel() models.ArchiveImage {
	image := models.ArchiveImage{
		ID:        a.ID,
		StudentID: a.StudentID,
		Name:      a.Name,
		Payload:   a.URL,
		CreatedAt: fromMillis(a.Date),
	}
	if mime, content, err := dataurl.Decode(a.URL); err == nil {
		image.MimeType = mime
		image.SizeBytes = int64(len(content))
	}
	return image
}
