package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
	"github.com/noah-isme/lesson-ledger-api/internal/ledger"
	"github.com/noah-isme/lesson-ledger-api/internal/observability"
	"github.com/noah-isme/lesson-ledger-api/internal/repository"
)

// ErrInsufficientBalance is returned when a consume exceeds the remaining lessons.
var ErrInsufficientBalance = ledger.ErrInsufficientBalance

// LessonService applies balance changes and exposes the lesson history.
type LessonService interface {
	Change(ctx context.Context, studentID string, payload dto.LessonChangeRequest) (dto.LessonChangeResponse, error)
	ListLogs(ctx context.Context, req dto.LessonLogListRequest) (dto.LessonLogListResponse, error)
}

type lessonService struct {
	logs      repository.LessonLogRepository
	archives  repository.ArchiveRepository
	validator *validator.Validate
	cache     CacheInvalidator
	policy    *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewLessonService constructs the lesson service.
func NewLessonService(logs repository.LessonLogRepository, archives repository.ArchiveRepository, validate *validator.Validate, cache CacheInvalidator, logger zerolog.Logger) LessonService {
	return &lessonService{
		logs:      logs,
		archives:  archives,
		validator: validate,
		cache:     invalidatorOrNoop(cache),
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "lesson_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/lesson-ledger-api/internal/service/lesson"),
		now:       time.Now,
	}
}

// Change consumes or refills lessons for a student and prepends a log entry.
// A missing student yields Applied=false with no error; an overdraw yields
// ErrInsufficientBalance and leaves everything untouched.
func (s *lessonService) Change(ctx context.Context, studentID string, payload dto.LessonChangeRequest) (dto.LessonChangeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "lesson.change")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.LessonChangeResponse{}, err
	}

	logType, err := ledger.ParseLogType(payload.Type)
	if err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.LessonChangeResponse{}, err
	}

	studentID = strings.TrimSpace(studentID)
	span.SetAttributes(
		attribute.String("lesson.student_id", studentID),
		attribute.String("lesson.type", string(logType)),
		attribute.Int("lesson.amount", ledger.Magnitude(payload.Amount)),
	)

	change := repository.LessonChange{
		LogID:     newID(),
		StudentID: studentID,
		Type:      logType,
		Amount:    payload.Amount,
		Note:      ledger.ResolveNote(logType, sanitizeText(s.policy, payload.Note)),
		At:        s.now().UTC(),
	}

	student, entry, err := s.logs.ApplyChange(ctx, change)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		observability.LessonChanges().WithLabelValues(string(logType), "skipped").Inc()
		s.logger.Debug().Str("student_id", studentID).Msg("lesson change skipped for unknown student")
		return dto.LessonChangeResponse{Applied: false}, nil
	case errors.Is(err, ledger.ErrInsufficientBalance):
		observability.LessonChanges().WithLabelValues(string(logType), "rejected").Inc()
		span.SetStatus(codes.Error, "insufficient balance")
		return dto.LessonChangeResponse{}, ErrInsufficientBalance
	case err != nil:
		observability.LessonChanges().WithLabelValues(string(logType), "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.logger.Error().Err(err).Str("student_id", studentID).Msg("failed to apply lesson change")
		return dto.LessonChangeResponse{}, err
	}

	observability.LessonChanges().WithLabelValues(string(logType), "applied").Inc()
	s.cache.Invalidate(ctx)

	counts, err := s.archives.CountByStudent(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to count archive images")
	}

	studentResp := dto.NewStudentResponse(student, counts[student.ID])
	logResp := dto.NewLessonLogResponse(entry)
	return dto.LessonChangeResponse{Applied: true, Student: &studentResp, Log: &logResp}, nil
}

// ListLogs returns lesson logs newest first, optionally scoped to one student or type.
func (s *lessonService) ListLogs(ctx context.Context, req dto.LessonLogListRequest) (dto.LessonLogListResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LessonLogListResponse{}, err
	}

	entries, total, err := s.logs.List(ctx, repository.LessonLogFilter{
		StudentID: strings.TrimSpace(req.StudentID),
		Type:      req.Type,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		return dto.LessonLogListResponse{}, err
	}

	return dto.LessonLogListResponse{
		Items:      dto.NewLessonLogResponses(entries),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}
