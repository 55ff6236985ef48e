package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

// ArchiveRepository persists student archive images.
type ArchiveRepository interface {
	Create(ctx context.Context, image *models.ArchiveImage) error
	GetByID(ctx context.Context, id string) (models.ArchiveImage, error)
	ListByStudent(ctx context.Context, studentID string, ids []string) ([]models.ArchiveImage, error)
	CountByStudent(ctx context.Context) (map[string]int64, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type archiveRepository struct {
	db *gorm.DB
}

// NewArchiveRepository constructs the archive repository.
func NewArchiveRepository(db *gorm.DB) ArchiveRepository {
	return &archiveRepository{db: db}
}

func (r *archiveRepository) Create(ctx context.Context, image *models.ArchiveImage) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *archiveRepository) GetByID(ctx context.Context, id string) (models.ArchiveImage, error) {
	var image models.ArchiveImage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&image).Error
	return image, err
}

// ListByStudent returns the student's images newest first, optionally restricted to ids.
func (r *archiveRepository) ListByStudent(ctx context.Context, studentID string, ids []string) ([]models.ArchiveImage, error) {
	query := r.db.WithContext(ctx).Where("student_id = ?", studentID)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}

	var images []models.ArchiveImage
	err := query.Order("created_at DESC").Find(&images).Error
	return images, err
}

func (r *archiveRepository) CountByStudent(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		StudentID string
		Total     int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.ArchiveImage{}).
		Select("student_id, COUNT(*) AS total").
		Group("student_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.StudentID] = row.Total
	}
	return counts, nil
}

// DeleteByIDs removes every listed image that exists; unknown ids are ignored.
func (r *archiveRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.ArchiveImage{})
	return result.RowsAffected, result.Error
}
