package ledger

import "github.com/noah-isme/lesson-ledger-api/internal/models"

// Collections is the full ledger state as four ordered sequences.
type Collections struct {
	Students []models.Student
	Logs     []models.LessonLog
	Reviews  []models.Review
	Archives []models.ArchiveImage
}

// IntegrityReport counts rows removed while importing a snapshot. Normalize fills
// the duplicate and orphan counts; InvalidRows is set by the schema check.
type IntegrityReport struct {
	DuplicateRows int `json:"duplicate_rows"`
	OrphanRows    int `json:"orphan_rows"`
	InvalidRows   int `json:"invalid_rows"`
}

// Normalize drops rows with blank or repeated identifiers (first occurrence wins)
// and every log, review or archive image whose student does not exist.
func (c Collections) Normalize() (Collections, IntegrityReport) {
	var report IntegrityReport
	out := Collections{
		Students: make([]models.Student, 0, len(c.Students)),
		Logs:     make([]models.LessonLog, 0, len(c.Logs)),
		Reviews:  make([]models.Review, 0, len(c.Reviews)),
		Archives: make([]models.ArchiveImage, 0, len(c.Archives)),
	}

	students := make(map[string]struct{}, len(c.Students))
	for _, s := range c.Students {
		if _, seen := students[s.ID]; seen || s.ID == "" {
			report.DuplicateRows++
			continue
		}
		students[s.ID] = struct{}{}
		out.Students = append(out.Students, s)
	}

	keep := func(seen map[string]struct{}, id, studentID string) bool {
		if _, dup := seen[id]; dup || id == "" {
			report.DuplicateRows++
			return false
		}
		if _, ok := students[studentID]; !ok {
			report.OrphanRows++
			return false
		}
		seen[id] = struct{}{}
		return true
	}

	seenLogs := make(map[string]struct{}, len(c.Logs))
	for _, l := range c.Logs {
		if keep(seenLogs, l.ID, l.StudentID) {
			out.Logs = append(out.Logs, l)
		}
	}
	seenReviews := make(map[string]struct{}, len(c.Reviews))
	for _, r := range c.Reviews {
		if keep(seenReviews, r.ID, r.StudentID) {
			out.Reviews = append(out.Reviews, r)
		}
	}
	seenArchives := make(map[string]struct{}, len(c.Archives))
	for _, a := range c.Archives {
		if keep(seenArchives, a.ID, a.StudentID) {
			out.Archives = append(out.Archives, a)
		}
	}

	return out, report
}
