package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/drivelane/appraisal-backend/internal/evaluations"
	"github.com/drivelane/appraisal-backend/internal/photos"
	"github.com/drivelane/appraisal-backend/internal/valuation"
	"github.com/drivelane/appraisal-backend/pkg/db/models"
	"github.com/drivelane/appraisal-backend/pkg/pagination"
)

// EvaluationsService is the surface the evaluation controllers depend on.
type EvaluationsService interface {
	CreateDraft(ctx context.Context, input evaluations.CreateDraftInput) (*models.Evaluation, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Evaluation, error)
	List(ctx context.Context, params pagination.Params, filters evaluations.ListFilters) (*evaluations.EvaluationList, error)
	UpdateVehicleData(ctx context.Context, id uuid.UUID, input evaluations.UpdateVehicleInput) (*models.Evaluation, error)
	AddDepreciationItem(ctx context.Context, id uuid.UUID, input evaluations.DepreciationItemInput) (*models.DepreciationItem, error)
	RemoveDepreciationItem(ctx context.Context, id, itemID uuid.UUID) error
	UpsertChecklist(ctx context.Context, id uuid.UUID, input evaluations.ChecklistInput) (*models.EvaluationChecklist, error)
	CalculateValuation(ctx context.Context, id uuid.UUID, input evaluations.CalculateInput) (*valuation.Result, error)
	Submit(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*models.Evaluation, error)
	Approve(ctx context.Context, id uuid.UUID, input evaluations.DecisionInput) (*models.Evaluation, error)
	Reject(ctx context.Context, id uuid.UUID, input evaluations.DecisionInput) (*models.Evaluation, error)
	Cancel(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*models.Evaluation, error)
	ValidateToken(ctx context.Context, token uuid.UUID) (*evaluations.ValidationResult, error)
}

// PhotosService is the surface the photo controllers depend on.
type PhotosService interface {
	PresignUpload(ctx context.Context, evaluationID uuid.UUID, input photos.PresignInput) (*photos.PresignOutput, error)
	ConfirmUpload(ctx context.Context, evaluationID, photoID uuid.UUID, actorID uuid.UUID) (*models.EvaluationPhoto, error)
	List(ctx context.Context, evaluationID uuid.UUID) ([]photos.PhotoView, error)
	Delete(ctx context.Context, evaluationID, photoID uuid.UUID) error
}
