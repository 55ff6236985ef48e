package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/lesson-ledger-api/internal/ledger"
	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

const snapshotBatchSize = 200

// SnapshotRepository reads and replaces the four ledger collections as a whole.
type SnapshotRepository interface {
	LoadAll(ctx context.Context) (ledger.Collections, error)
	ReplaceAll(ctx context.Context, collections ledger.Collections) error
}

type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository constructs the snapshot repository.
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

// LoadAll returns students in join order and the other collections newest first.
func (r *snapshotRepository) LoadAll(ctx context.Context) (ledger.Collections, error) {
	var out ledger.Collections
	db := r.db.WithContext(ctx)

	if err := db.Order("join_date ASC").Find(&out.Students).Error; err != nil {
		return ledger.Collections{}, err
	}
	if err := db.Order("created_at DESC").Find(&out.Logs).Error; err != nil {
		return ledger.Collections{}, err
	}
	if err := db.Order("created_at DESC").Find(&out.Reviews).Error; err != nil {
		return ledger.Collections{}, err
	}
	if err := db.Order("created_at DESC").Find(&out.Archives).Error; err != nil {
		return ledger.Collections{}, err
	}

	return out, nil
}

// ReplaceAll swaps every collection for the supplied one in a single transaction.
func (r *snapshotRepository) ReplaceAll(ctx context.Context, collections ledger.Collections) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.LessonLog{}, &models.Review{}, &models.ArchiveImage{}, &models.Student{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}

		if len(collections.Students) > 0 {
			if err := tx.CreateInBatches(collections.Students, snapshotBatchSize).Error; err != nil {
				return err
			}
		}
		if len(collections.Logs) > 0 {
			if err := tx.CreateInBatches(collections.Logs, snapshotBatchSize).Error; err != nil {
				return err
			}
		}
		if len(collections.Reviews) > 0 {
			if err := tx.CreateInBatches(collections.Reviews, snapshotBatchSize).Error; err != nil {
				return err
			}
		}
		if len(collections.Archives) > 0 {
			if err := tx.CreateInBatches(collections.Archives, snapshotBatchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
