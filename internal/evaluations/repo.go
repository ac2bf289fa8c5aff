package evaluations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivelane/appraisal-backend/pkg/db/models"
	"github.com/drivelane/appraisal-backend/pkg/enums"
	"github.com/drivelane/appraisal-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an evaluations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	err := r.db.WithContext(ctx).
		Preload("DepreciationItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Photos").
		Preload("Checklist").
		Where("id = ?", id).
		First(&evaluation).Error
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (r *repository) FindByValidationToken(ctx context.Context, token uuid.UUID) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	err := r.db.WithContext(ctx).
		Where("validation_token = ?", token).
		First(&evaluation).Error
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*EvaluationList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Evaluation{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.EvaluatorID != nil {
		query = query.Where("evaluator_id = ?", *filters.EvaluatorID)
	}
	if filters.Plate != "" {
		query = query.Where("plate = ?", filters.Plate)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Evaluation
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &EvaluationList{}
	pageSize := pagination.NormalizeLimit(params.Limit)
	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}
	for _, row := range rows {
		list.Evaluations = append(list.Evaluations, EvaluationSummary{
			ID:          row.ID,
			Plate:       row.Plate,
			Brand:       row.Brand,
			Model:       row.Model,
			YearModel:   row.YearModel,
			Status:      row.Status,
			FinalValue:  row.FinalValue,
			EvaluatorID: row.EvaluatorID,
			CreatedAt:   row.CreatedAt,
		})
	}
	if hasMore {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Evaluation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) AddItem(ctx context.Context, item *models.DepreciationItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindItem(ctx context.Context, evaluationID, itemID uuid.UUID) (*models.DepreciationItem, error) {
	var item models.DepreciationItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND evaluation_id = ?", itemID, evaluationID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) DeleteItem(ctx context.Context, evaluationID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND evaluation_id = ?", itemID, evaluationID).
		Delete(&models.DepreciationItem{}).Error
}

func (r *repository) ListItems(ctx context.Context, evaluationID uuid.UUID) ([]models.DepreciationItem, error) {
	var items []models.DepreciationItem
	err := r.db.WithContext(ctx).
		Where("evaluation_id = ?", evaluationID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpsertChecklist(ctx context.Context, checklist *models.EvaluationChecklist) error {
	var existing models.EvaluationChecklist
	err := r.db.WithContext(ctx).
		Where("evaluation_id = ?", checklist.EvaluationID).
		First(&existing).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			if checklist.ID == uuid.Nil {
				checklist.ID = uuid.New()
			}
			return r.db.WithContext(ctx).Create(checklist).Error
		}
		return err
	}
	checklist.ID = existing.ID
	checklist.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(checklist).Error
}

func (r *repository) ListApprovedExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Evaluation, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.Evaluation
	err := r.db.WithContext(ctx).
		Where("status = ? AND valid_until IS NOT NULL AND valid_until < ?", enums.EvaluationStatusApproved, cutoff).
		Order("valid_until ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
