package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/models"
)

// UploadRepository keeps track of stored photos, documents and workbooks.
type UploadRepository interface {
	Create(ctx context.Context, record *models.UploadRecord) error
	// FindByChecksum returns the earliest upload with identical content, or
	// false when the content has not been stored before.
	FindByChecksum(ctx context.Context, checksum string) (models.UploadRecord, bool, error)
}

type uploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository constructs a repository for upload records.
func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(ctx context.Context, record *models.UploadRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *uploadRepository) FindByChecksum(ctx context.Context, checksum string) (models.UploadRecord, bool, error) {
	var record models.UploadRecord
	err := r.db.WithContext(ctx).Where("checksum = ?", checksum).Order("id").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.UploadRecord{}, false, nil
	}
	if err != nil {
		return models.UploadRecord{}, false, err
	}
	return record, true, nil
}
