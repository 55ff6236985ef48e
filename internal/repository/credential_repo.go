package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

// ErrCredentialExists indicates the passcode was already set by another request.
var ErrCredentialExists = errors.New("admin credential already exists")

// CredentialRepository stores the single admin passcode row.
type CredentialRepository interface {
	Get(ctx context.Context) (models.AdminCredential, error)
	Create(ctx context.Context, credential *models.AdminCredential) error
	Delete(ctx context.Context) error
}

type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository constructs the credential repository.
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Get(ctx context.Context) (models.AdminCredential, error) {
	var credential models.AdminCredential
	err := r.db.WithContext(ctx).Where("id = ?", models.AdminCredentialID).First(&credential).Error
	return credential, err
}

// Create inserts the credential only if none exists yet.
func (r *credentialRepository) Create(ctx context.Context, credential *models.AdminCredential) error {
	credential.ID = models.AdminCredentialID
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(credential)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCredentialExists
	}
	return nil
}

func (r *credentialRepository) Delete(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("id = ?", models.AdminCredentialID).Delete(&models.AdminCredential{}).Error
}
