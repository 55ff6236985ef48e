package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/lesson-ledger-api/internal/ledger"
	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

// LessonChange describes one balance mutation and the log row it produces.
type LessonChange struct {
	LogID     string
	StudentID string
	Type      ledger.LogType
	Amount    int
	Note      string
	At        time.Time
}

// LessonLogFilter narrows lesson log queries.
type LessonLogFilter struct {
	StudentID string
	Type      string
	Since     *time.Time
	Page      int
	PageSize  int
}

// LessonLogRepository owns the only write path for balances and the append-only log.
type LessonLogRepository interface {
	ApplyChange(ctx context.Context, change LessonChange) (models.Student, models.LessonLog, error)
	List(ctx context.Context, filter LessonLogFilter) ([]models.LessonLog, int64, error)
	Recent(ctx context.Context, limit int) ([]models.LessonLog, error)
}

type lessonLogRepository struct {
	db *gorm.DB
}

// NewLessonLogRepository constructs the lesson log repository.
func NewLessonLogRepository(db *gorm.DB) LessonLogRepository {
	return &lessonLogRepository{db: db}
}

// ApplyChange updates the balance and appends the log in one transaction. It
// returns gorm.ErrRecordNotFound for unknown students and
// ledger.ErrInsufficientBalance when a consume exceeds the balance; in both
// cases nothing is written.
func (r *lessonLogRepository) ApplyChange(ctx context.Context, change LessonChange) (models.Student, models.LessonLog, error) {
	var (
		student models.Student
		entry   models.LessonLog
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", change.StudentID).First(&student).Error; err != nil {
			return err
		}

		current := ledger.Balance{Remaining: student.RemainingLessons, Total: student.TotalLessons}
		if _, err := ledger.ApplyChange(current, change.Type, change.Amount); err != nil {
			return err
		}

		size := ledger.Magnitude(change.Amount)
		update := tx.Model(&models.Student{}).Where("id = ?", change.StudentID)
		updates := map[string]interface{}{"updated_at": change.At}
		if change.Type == ledger.Consume {
			// Guard in SQL as well so a concurrent consume cannot overdraw.
			update = update.Where("remaining_lessons >= ?", size)
			updates["remaining_lessons"] = gorm.Expr("remaining_lessons - ?", size)
		} else {
			updates["remaining_lessons"] = gorm.Expr("remaining_lessons + ?", size)
			updates["total_lessons"] = gorm.Expr("total_lessons + ?", size)
		}

		result := update.Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if change.Type == ledger.Consume {
				return ledger.ErrInsufficientBalance
			}
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("id = ?", change.StudentID).First(&student).Error; err != nil {
			return err
		}

		entry = models.LessonLog{
			ID:          change.LogID,
			StudentID:   student.ID,
			StudentName: student.Name,
			Amount:      size,
			Type:        string(change.Type),
			Note:        change.Note,
			CreatedAt:   change.At,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return models.Student{}, models.LessonLog{}, err
	}

	return student, entry, nil
}

func (r *lessonLogRepository) List(ctx context.Context, filter LessonLogFilter) ([]models.LessonLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LessonLog{})

	if filter.StudentID != "" {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query, filter.Page, filter.PageSize)

	var entries []models.LessonLog
	if err := query.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *lessonLogRepository) Recent(ctx context.Context, limit int) ([]models.LessonLog, error) {
	var entries []models.LessonLog
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
