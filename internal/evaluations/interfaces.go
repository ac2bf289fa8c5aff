package evaluations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivelane/appraisal-backend/pkg/db/models"
	"github.com/drivelane/appraisal-backend/pkg/outbox"
	"github.com/drivelane/appraisal-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Repository defines persistence operations for the evaluation aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, evaluation *models.Evaluation) error
	Find(ctx context.Context, id uuid.UUID) (*models.Evaluation, error)
	FindByValidationToken(ctx context.Context, token uuid.UUID) (*models.Evaluation, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*EvaluationList, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error

	AddItem(ctx context.Context, item *models.DepreciationItem) error
	FindItem(ctx context.Context, evaluationID, itemID uuid.UUID) (*models.DepreciationItem, error)
	DeleteItem(ctx context.Context, evaluationID, itemID uuid.UUID) error
	ListItems(ctx context.Context, evaluationID uuid.UUID) ([]models.DepreciationItem, error)

	UpsertChecklist(ctx context.Context, checklist *models.EvaluationChecklist) error

	ListApprovedExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Evaluation, error)
}
