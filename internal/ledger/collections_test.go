package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

func TestNormalizeDropsOrphansAndDuplicates(t *testing.T) {
	input := Collections{
		Students: []models.Student{{ID: "a"}, {ID: "b"}, {ID: "a"}, {ID: ""}},
		Logs: []models.LessonLog{
			{ID: "l1", StudentID: "a"},
			{ID: "l2", StudentID: "ghost"},
			{ID: "l1", StudentID: "b"},
		},
		Reviews: []models.Review{
			{ID: "r1", StudentID: "b"},
			{ID: "r2", StudentID: "ghost"},
		},
		Archives: []models.ArchiveImage{
			{ID: "i1", StudentID: "a"},
			{ID: "", StudentID: "a"},
		},
	}

	out, report := input.Normalize()
	require.Len(t, out.Students, 2)
	require.Len(t, out.Logs, 1)
	require.Equal(t, "l1", out.Logs[0].ID)
	require.Equal(t, "a", out.Logs[0].StudentID)
	require.Len(t, out.Reviews, 1)
	require.Len(t, out.Archives, 1)
	require.Equal(t, IntegrityReport{DuplicateRows: 4, OrphanRows: 2}, report)
}
