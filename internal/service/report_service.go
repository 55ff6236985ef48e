package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/lesson-ledger-api/internal/ledger"
	"github.com/noah-isme/lesson-ledger-api/internal/repository"
)

// Report sheet names.
const (
	ReportSheetStudents = "Students"
	ReportSheetLogs     = "Lesson Logs"
	ReportSheetReviews  = "Reviews"
)

const reportDateLayout = "2006-01-02 15:04"

// ReportService renders the ledger as a spreadsheet for offline bookkeeping.
type ReportService interface {
	WriteWorkbook(ctx context.Context, w io.Writer) error
}

type reportService struct {
	repo     repository.SnapshotRepository
	location *time.Location
	logger   zerolog.Logger
}

// NewReportService constructs the report service. Dates are rendered in location.
func NewReportService(repo repository.SnapshotRepository, location *time.Location, logger zerolog.Logger) ReportService {
	if location == nil {
		location = time.Local
	}
	return &reportService{
		repo:     repo,
		location: location,
		logger:   logger.With().Str("component", "report_service").Logger(),
	}
}

// WriteWorkbook writes an XLSX workbook with one sheet per collection.
func (s *reportService) WriteWorkbook(ctx context.Context, w io.Writer) error {
	collections, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", ReportSheetStudents); err != nil {
		return err
	}

	archiveCounts := make(map[string]int, len(collections.Students))
	for _, image := range collections.Archives {
		archiveCounts[image.StudentID]++
	}

	students := make([][]interface{}, 0, len(collections.Students))
	for _, st := range collections.Students {
		students = append(students, []interface{}{
			st.Name, st.Phone, st.RemainingLessons, st.TotalLessons,
			s.formatTime(st.JoinDate), ledger.IsLowBalance(st.RemainingLessons), archiveCounts[st.ID],
		})
	}
	if err := writeSheet(f, ReportSheetStudents, []string{"Name", "Phone", "Remaining", "Total", "Joined", "Low balance", "Archive images"}, students); err != nil {
		return err
	}

	logs := make([][]interface{}, 0, len(collections.Logs))
	for _, entry := range collections.Logs {
		logs = append(logs, []interface{}{s.formatTime(entry.CreatedAt), entry.StudentName, entry.Type, entry.Amount, entry.Note})
	}
	if err := writeSheet(f, ReportSheetLogs, []string{"Date", "Student", "Type", "Amount", "Note"}, logs); err != nil {
		return err
	}

	reviews := make([][]interface{}, 0, len(collections.Reviews))
	for _, review := range collections.Reviews {
		reviews = append(reviews, []interface{}{s.formatTime(review.CreatedAt), review.StudentName, review.Rating, review.Content})
	}
	if err := writeSheet(f, ReportSheetReviews, []string{"Date", "Student", "Rating", "Content"}, reviews); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Debug().
		Int("students", len(students)).
		Int("logs", len(logs)).
		Int("reviews", len(reviews)).
		Msg("ledger workbook written")
	return nil
}

func (s *reportService) formatTime(t time.Time) string {
	return t.In(s.location).Format(reportDateLayout)
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}) error {
	if idx, err := f.GetSheetIndex(sheet); err != nil {
		return err
	} else if idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return err
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
