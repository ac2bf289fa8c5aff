package photos

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivelane/appraisal-backend/pkg/config"
	"github.com/drivelane/appraisal-backend/pkg/db/models"
	"github.com/drivelane/appraisal-backend/pkg/enums"
	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
	"github.com/drivelane/appraisal-backend/pkg/logger"
	"github.com/drivelane/appraisal-backend/pkg/outbox"
	"github.com/drivelane/appraisal-backend/pkg/outbox/payloads"
)

var allowedMimeTypes = []string{"image/png", "image/jpeg", "image/webp"}

// PresignInput models an upload-URL request for one evaluation photo.
type PresignInput struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	Caption   *string
	ActorID   uuid.UUID
}

// PresignOutput is returned to the client so it can PUT the object directly.
type PresignOutput struct {
	PhotoID      uuid.UUID `json:"photo_id"`
	ObjectKey    string    `json:"object_key"`
	SignedPUTURL string    `json:"signed_put_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// PhotoView is one photo row plus a temporary download URL.
type PhotoView struct {
	ID          uuid.UUID         `json:"id"`
	ObjectKey   string            `json:"object_key"`
	ContentType string            `json:"content_type"`
	SizeBytes   int64             `json:"size_bytes"`
	Caption     *string           `json:"caption,omitempty"`
	Status      enums.PhotoStatus `json:"status"`
	DownloadURL string            `json:"download_url,omitempty"`
	UploadedAt  *time.Time        `json:"uploaded_at,omitempty"`
}

// ServiceParams groups dependencies for the photos service.
type ServiceParams struct {
	Repo        Repository
	Evaluations evaluationReader
	Tx          txRunner
	Outbox      outboxPublisher
	GCS         gcsClient
	GCSConfig   config.GCSConfig
	PhotoConfig config.PhotoConfig
	Logger      *logger.Logger
	Clock       func() time.Time
}

// Service manages the photo upload lifecycle: presign, confirm, list, delete.
// Objects live in GCS; rows here track the key and upload state.
type Service struct {
	repo        Repository
	evaluations evaluationReader
	tx          txRunner
	outbox      outboxPublisher
	gcs         gcsClient
	bucket      string
	uploadTTL   time.Duration
	downloadTTL time.Duration
	maxBytes    int64
	maxPhotos   int
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds a photos service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("photo repository is required")
	}
	if params.Evaluations == nil {
		return nil, errors.New("evaluation reader is required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox publisher is required")
	}
	if params.GCS == nil {
		return nil, errors.New("gcs client is required")
	}
	if params.GCSConfig.BucketName == "" {
		return nil, errors.New("gcs bucket is required")
	}
	if params.GCSConfig.UploadURLExpiry <= 0 || params.GCSConfig.DownloadURLExpiry <= 0 {
		return nil, errors.New("signed url expiries must be positive")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	maxPhotos := params.PhotoConfig.MaxPerEvaluation
	if maxPhotos <= 0 {
		maxPhotos = 30
	}
	maxMB := params.PhotoConfig.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 25
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:        params.Repo,
		evaluations: params.Evaluations,
		tx:          params.Tx,
		outbox:      params.Outbox,
		gcs:         params.GCS,
		bucket:      params.GCSConfig.BucketName,
		uploadTTL:   params.GCSConfig.UploadURLExpiry,
		downloadTTL: params.GCSConfig.DownloadURLExpiry,
		maxBytes:    int64(maxMB) * 1024 * 1024,
		maxPhotos:   maxPhotos,
		logg:        params.Logger,
		now:         now,
	}, nil
}

// PresignUpload creates a pending photo row and returns a signed PUT URL.
func (s *Service) PresignUpload(ctx context.Context, evaluationID uuid.UUID, input PresignInput) (*PresignOutput, error) {
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	mimeType := strings.TrimSpace(input.MimeType)
	if !isAllowedMime(mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type not allowed for evaluation photos")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size_bytes must be at most %d", s.maxBytes))
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}

	evaluation, err := s.loadEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	if !evaluation.Status.IsEditable() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidStatusTransition, "cannot attach photos to a submitted evaluation").
			WithDetails(map[string]any{
				"current_status": evaluation.Status.String(),
				"operation":      "attach_photo",
			})
	}

	count, err := s.repo.CountActive(ctx, evaluationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count evaluation photos")
	}
	if count >= int64(s.maxPhotos) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("evaluation already has %d photos", s.maxPhotos))
	}

	photoID := uuid.New()
	objectKey := buildObjectKey(evaluationID, photoID, fileName)

	photo := &models.EvaluationPhoto{
		ID:           photoID,
		EvaluationID: evaluationID,
		ObjectKey:    objectKey,
		ContentType:  mimeType,
		SizeBytes:    input.SizeBytes,
		Caption:      input.Caption,
		Status:       enums.PhotoStatusPending,
		UploadedBy:   input.ActorID,
	}
	if err := s.repo.Create(ctx, photo); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist photo row")
	}

	signedURL, err := s.gcs.SignedURL(s.bucket, objectKey, mimeType, s.uploadTTL)
	if err != nil {
		_ = s.repo.Delete(ctx, photoID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		PhotoID:      photoID,
		ObjectKey:    objectKey,
		SignedPUTURL: signedURL,
		ContentType:  mimeType,
		ExpiresAt:    s.now().Add(s.uploadTTL),
	}, nil
}

// ConfirmUpload marks a pending photo as uploaded and emits the attachment
// event in the same transaction.
func (s *Service) ConfirmUpload(ctx context.Context, evaluationID, photoID uuid.UUID, actorID uuid.UUID) (*models.EvaluationPhoto, error) {
	var confirmed *models.EvaluationPhoto
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		photo, err := repo.Find(ctx, evaluationID, photoID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load photo")
		}
		if photo.Status != enums.PhotoStatusPending {
			return pkgerrors.New(pkgerrors.CodeValidation, "photo is not awaiting upload").
				WithDetails(map[string]any{"status": photo.Status.String()})
		}

		uploadedAt := s.now().UTC()
		if err := repo.Update(ctx, photoID, map[string]any{
			"status":      enums.PhotoStatusUploaded,
			"uploaded_at": uploadedAt,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm photo upload")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEvaluationPhotoAttached,
			AggregateType: enums.AggregateEvaluation,
			AggregateID:   evaluationID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: "evaluator"},
			Data: payloads.EvaluationPhotoAttachedEvent{
				EvaluationID: evaluationID,
				PhotoID:      photoID,
				ObjectKey:    photo.ObjectKey,
				ContentType:  photo.ContentType,
				UploadedBy:   photo.UploadedBy,
			},
		}); err != nil {
			return err
		}

		photo.Status = enums.PhotoStatusUploaded
		photo.UploadedAt = &uploadedAt
		confirmed = photo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

// List returns the evaluation's photos with temporary download URLs for the
// uploaded ones.
func (s *Service) List(ctx context.Context, evaluationID uuid.UUID) ([]PhotoView, error) {
	if _, err := s.loadEvaluation(ctx, evaluationID); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, evaluationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list photos")
	}

	views := make([]PhotoView, 0, len(rows))
	for _, row := range rows {
		view := PhotoView{
			ID:          row.ID,
			ObjectKey:   row.ObjectKey,
			ContentType: row.ContentType,
			SizeBytes:   row.SizeBytes,
			Caption:     row.Caption,
			Status:      row.Status,
			UploadedAt:  row.UploadedAt,
		}
		if row.Status == enums.PhotoStatusUploaded {
			url, err := s.gcs.SignedReadURL(s.bucket, row.ObjectKey, s.downloadTTL)
			if err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "signing photo download url failed")
			} else {
				view.DownloadURL = url
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// Delete marks the photo deleted and removes the object. Object removal is
// best effort; the row flips first so a retried delete stays idempotent.
func (s *Service) Delete(ctx context.Context, evaluationID, photoID uuid.UUID) error {
	evaluation, err := s.loadEvaluation(ctx, evaluationID)
	if err != nil {
		return err
	}
	if !evaluation.Status.IsEditable() {
		return pkgerrors.New(pkgerrors.CodeInvalidStatusTransition, "cannot remove photos from a submitted evaluation").
			WithDetails(map[string]any{
				"current_status": evaluation.Status.String(),
				"operation":      "delete_photo",
			})
	}

	photo, err := s.repo.Find(ctx, evaluationID, photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "photo not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load photo")
	}
	if photo.Status == enums.PhotoStatusDeleted {
		return nil
	}

	if err := s.repo.Update(ctx, photoID, map[string]any{"status": enums.PhotoStatusDeleted}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark photo deleted")
	}
	if err := s.gcs.DeleteObject(ctx, s.bucket, photo.ObjectKey); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "deleting photo object failed")
	}
	return nil
}

func (s *Service) loadEvaluation(ctx context.Context, id uuid.UUID) (*models.Evaluation, error) {
	evaluation, err := s.evaluations.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "evaluation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load evaluation")
	}
	return evaluation, nil
}

func isAllowedMime(mimeType string) bool {
	for _, candidate := range allowedMimeTypes {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func buildObjectKey(evaluationID, photoID uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = photoID.String()
	}
	return fmt.Sprintf("evaluations/%s/photos/%s/%s", evaluationID, photoID, cleanName)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
