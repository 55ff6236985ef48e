package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
	"github.com/noah-isme/lesson-ledger-api/internal/models"
	"github.com/noah-isme/lesson-ledger-api/internal/repository"
)

// ErrStudentNotFound indicates the requested student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// StudentService manages student records and their cascading removal.
type StudentService interface {
	Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	Get(ctx context.Context, id string) (dto.StudentResponse, error)
	List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error)
	Delete(ctx context.Context, id string) (dto.StudentDeleteResponse, error)
}

type studentService struct {
	students  repository.StudentRepository
	archives  repository.ArchiveRepository
	validator *validator.Validate
	activity  ActivityRecorder
	cache     CacheInvalidator
	policy    *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(students repository.StudentRepository, archives repository.ArchiveRepository, validate *validator.Validate, activity ActivityRecorder, cache CacheInvalidator, logger zerolog.Logger) StudentService {
	return &studentService{
		students:  students,
		archives:  archives,
		validator: validate,
		activity:  activity,
		cache:     invalidatorOrNoop(cache),
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "student_service").Logger(),
		now:       time.Now,
	}
}

// Create registers a student whose remaining and total balances both start at
// the initial lesson count.
func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	name := sanitizeText(s.policy, payload.Name)
	phone := sanitizeText(s.policy, payload.Phone)
	if name == "" || phone == "" {
		return dto.StudentResponse{}, ErrEmptyText
	}

	joined := s.now().UTC()
	student := models.Student{
		ID:               newID(),
		Name:             name,
		Phone:            phone,
		RemainingLessons: payload.InitialLessons,
		TotalLessons:     payload.InitialLessons,
		JoinDate:         joined,
		UpdatedAt:        joined,
	}

	if err := s.students.Create(ctx, &student); err != nil {
		s.logger.Error().Err(err).Msg("failed to create student")
		return dto.StudentResponse{}, err
	}

	s.cache.Invalidate(ctx)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Action:     ActionStudentCreate,
		EntityType: "student",
		EntityID:   student.ID,
		Metadata:   map[string]interface{}{"initial_lessons": payload.InitialLessons},
	})

	return dto.NewStudentResponse(student, 0), nil
}

func (s *studentService) Get(ctx context.Context, id string) (dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	counts, err := s.archives.CountByStudent(ctx)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student, counts[student.ID]), nil
}

// List returns students in the order they joined.
func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	filter := repository.StudentFilter{
		Search:         req.Search,
		LowBalanceOnly: req.LowBalanceOnly,
		Page:           req.Page,
		PageSize:       req.PageSize,
	}

	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	counts, err := s.archives.CountByStudent(ctx)
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	items := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		items = append(items, dto.NewStudentResponse(student, counts[student.ID]))
	}

	return dto.StudentListResponse{
		Items:      items,
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

// Delete removes the student with every dependent log, review and archive
// image. Unknown ids are a no-op reported as Deleted=false.
func (s *studentService) Delete(ctx context.Context, id string) (dto.StudentDeleteResponse, error) {
	id = strings.TrimSpace(id)
	deleted, err := s.students.DeleteCascade(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("student_id", id).Msg("failed to delete student")
		return dto.StudentDeleteResponse{}, err
	}

	if deleted {
		s.cache.Invalidate(ctx)
		recordActivity(ctx, s.activity, s.logger, ActivityEntry{
			Action:     ActionStudentDelete,
			EntityType: "student",
			EntityID:   id,
		})
	}

	return dto.StudentDeleteResponse{ID: id, Deleted: deleted}, nil
}
