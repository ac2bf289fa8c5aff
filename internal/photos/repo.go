package photos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivelane/appraisal-backend/pkg/db/models"
	"github.com/drivelane/appraisal-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a photos repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, photo *models.EvaluationPhoto) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

func (r *repository) Find(ctx context.Context, evaluationID, photoID uuid.UUID) (*models.EvaluationPhoto, error) {
	var photo models.EvaluationPhoto
	err := r.db.WithContext(ctx).
		Where("id = ? AND evaluation_id = ?", photoID, evaluationID).
		First(&photo).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *repository) List(ctx context.Context, evaluationID uuid.UUID) ([]models.EvaluationPhoto, error) {
	var rows []models.EvaluationPhoto
	err := r.db.WithContext(ctx).
		Where("evaluation_id = ? AND status <> ?", evaluationID, enums.PhotoStatusDeleted).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CountActive(ctx context.Context, evaluationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.EvaluationPhoto{}).
		Where("evaluation_id = ? AND status <> ?", evaluationID, enums.PhotoStatusDeleted).
		Count(&count).Error
	return count, err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.EvaluationPhoto{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.EvaluationPhoto{}).Error
}
