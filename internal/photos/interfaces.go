package photos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivelane/appraisal-backend/pkg/db/models"
	"github.com/drivelane/appraisal-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type gcsClient interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) error
}

type evaluationReader interface {
	Find(ctx context.Context, id uuid.UUID) (*models.Evaluation, error)
}

// Repository defines persistence for evaluation photos.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, photo *models.EvaluationPhoto) error
	Find(ctx context.Context, evaluationID, photoID uuid.UUID) (*models.EvaluationPhoto, error)
	List(ctx context.Context, evaluationID uuid.UUID) ([]models.EvaluationPhoto, error)
	CountActive(ctx context.Context, evaluationID uuid.UUID) (int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}
