package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/lesson-ledger-api/internal/ledger"
	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

// StudentFilter narrows student listings.
type StudentFilter struct {
	Search         string
	LowBalanceOnly bool
	Page           int
	PageSize       int
}

// StudentRepository persists students and enforces cascading deletes.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id string) (models.Student, error)
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
	All(ctx context.Context) ([]models.Student, error)
	DeleteCascade(ctx context.Context, id string) (bool, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository implementation.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&student).Error
	return student, err
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		// SQLite's LOWER only folds ASCII, so the raw term is matched as well.
		exact := "%" + escapeLike(search) + "%"
		folded := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(
			"name LIKE ? ESCAPE '\\' OR LOWER(name) LIKE ? ESCAPE '\\' OR phone LIKE ? ESCAPE '\\'",
			exact, folded, exact,
		)
	}

	if filter.LowBalanceOnly {
		query = query.Where("remaining_lessons < ?", ledger.LowBalanceThreshold)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query, filter.Page, filter.PageSize)

	var students []models.Student
	if err := query.Order("join_date ASC").Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepository) All(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).Order("join_date ASC").Find(&students).Error
	return students, err
}

// DeleteCascade removes the student together with every log, review and archive
// image that references it. It reports false when the student did not exist.
func (r *studentRepository) DeleteCascade(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []interface{}{&models.LessonLog{}, &models.Review{}, &models.ArchiveImage{}} {
			if err := tx.Where("student_id = ?", id).Delete(dependent).Error; err != nil {
				return err
			}
		}

		result := tx.Where("id = ?", id).Delete(&models.Student{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return query
	}
	if page <= 0 {
		page = 1
	}
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
