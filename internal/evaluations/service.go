package evaluations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/drivelane/appraisal-backend/internal/valuation"
	"github.com/drivelane/appraisal-backend/pkg/db/models"
	"github.com/drivelane/appraisal-backend/pkg/enums"
	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
	"github.com/drivelane/appraisal-backend/pkg/logger"
	"github.com/drivelane/appraisal-backend/pkg/money"
	"github.com/drivelane/appraisal-backend/pkg/outbox"
	"github.com/drivelane/appraisal-backend/pkg/outbox/payloads"
	"github.com/drivelane/appraisal-backend/pkg/pagination"
)

const (
	minYearManufacture = 1950
	maxChecklistScore  = 10
)

type engine interface {
	Calculate(ctx context.Context, input valuation.Input, cfg valuation.Config) (*valuation.Result, error)
	CalculateWithAdjustment(ctx context.Context, input valuation.Input, cfg valuation.Config, pct *decimal.Decimal) (*valuation.Result, error)
}

// ServiceParams groups dependencies for the evaluations service.
type ServiceParams struct {
	Repo             Repository
	Tx               txRunner
	Outbox           outboxPublisher
	Engine           engine
	ValuationConfig  valuation.Config
	ApprovalValidity time.Duration
	Logger           *logger.Logger
	Clock            func() time.Time
}

// Service orchestrates the evaluation lifecycle: drafting, checklist review,
// valuation runs, and the submit/approve/reject/cancel state machine.
type Service struct {
	repo             Repository
	tx               txRunner
	outbox           outboxPublisher
	engine           engine
	cfg              valuation.Config
	approvalValidity time.Duration
	logg             *logger.Logger
	now              func() time.Time
}

// NewService builds an evaluations service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox publisher is required")
	}
	if params.Engine == nil {
		return nil, errors.New("valuation engine is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	validity := params.ApprovalValidity
	if validity <= 0 {
		validity = 72 * time.Hour
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:             params.Repo,
		tx:               params.Tx,
		outbox:           params.Outbox,
		engine:           params.Engine,
		cfg:              params.ValuationConfig,
		approvalValidity: validity,
		logg:             params.Logger,
		now:              now,
	}, nil
}

// CreateDraft opens a new evaluation in draft status.
func (s *Service) CreateDraft(ctx context.Context, input CreateDraftInput) (*models.Evaluation, error) {
	if err := validateDraftInput(input); err != nil {
		return nil, err
	}

	evaluation := &models.Evaluation{
		ID:              uuid.New(),
		Plate:           input.Plate,
		Brand:           input.Brand,
		Model:           input.Model,
		YearManufacture: input.YearManufacture,
		YearModel:       input.YearModel,
		FuelType:        input.FuelType,
		Color:           input.Color,
		Mileage:         input.Mileage,
		Observations:    input.Observations,
		Status:          enums.EvaluationStatusDraft,
		EvaluatorID:     input.EvaluatorID,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, evaluation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create evaluation")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEvaluationCreated,
			AggregateType: enums.AggregateEvaluation,
			AggregateID:   evaluation.ID,
			Version:       1,
			Actor:         actorRef(input.EvaluatorID, "evaluator"),
			Data: payloads.EvaluationCreatedEvent{
				EvaluationID: evaluation.ID,
				EvaluatorID:  input.EvaluatorID,
				Plate:        evaluation.Plate,
				Brand:        evaluation.Brand,
				Model:        evaluation.Model,
				YearModel:    evaluation.YearModel,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return evaluation, nil
}

// Get loads the full aggregate including items, photos and checklist.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Evaluation, error) {
	evaluation, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "evaluation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load evaluation")
	}
	return evaluation, nil
}

// List returns a filtered, cursor-paginated page of evaluations.
func (s *Service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*EvaluationList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list evaluations")
	}
	return list, nil
}

// UpdateVehicleData mutates vehicle identity fields while the evaluation is
// editable. Any previously computed valuation snapshot is cleared: vehicle
// identity feeds the FIPE lookup, so the old numbers no longer apply.
func (s *Service) UpdateVehicleData(ctx context.Context, id uuid.UUID, input UpdateVehicleInput) (*models.Evaluation, error) {
	var updated *models.Evaluation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		evaluation, err := s.loadForWrite(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := requireEditable(evaluation.Status, "update_vehicle_data"); err != nil {
			return err
		}

		updates := map[string]any{}
		if input.Plate != nil {
			if *input.Plate == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "plate cannot be empty")
			}
			updates["plate"] = *input.Plate
		}
		if input.Brand != nil {
			if *input.Brand == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "brand cannot be empty")
			}
			updates["brand"] = *input.Brand
		}
		if input.Model != nil {
			if *input.Model == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "model cannot be empty")
			}
			updates["model"] = *input.Model
		}
		if input.YearModel != nil {
			if *input.YearModel < evaluation.YearManufacture {
				return pkgerrors.New(pkgerrors.CodeValidation, "model year cannot precede manufacture year")
			}
			updates["year_model"] = *input.YearModel
		}
		if input.FuelType != nil {
			if !input.FuelType.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid fuel type %q", *input.FuelType))
			}
			updates["fuel_type"] = *input.FuelType
		}
		if input.Color != nil {
			updates["color"] = *input.Color
		}
		if input.Mileage != nil {
			if *input.Mileage < 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "mileage cannot be negative")
			}
			updates["mileage"] = *input.Mileage
		}
		if input.Observations != nil {
			updates["observations"] = *input.Observations
		}
		if len(updates) == 0 {
			updated = evaluation
			return nil
		}

		for column, value := range clearedSnapshot() {
			updates[column] = value
		}
		if evaluation.Status == enums.EvaluationStatusDraft {
			updates["status"] = enums.EvaluationStatusInProgress
		}

		if err := repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update evaluation")
		}
		updated, err = repo.Find(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload evaluation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AddDepreciationItem records one catalogued deduction. Items are immutable;
// the stored amount is validated through the monetary constructor.
func (s *Service) AddDepreciationItem(ctx context.Context, id uuid.UUID, input DepreciationItemInput) (*models.DepreciationItem, error) {
	if input.Category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if input.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if input.Justification == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "justification is required")
	}
	amount, err := money.New(input.Amount)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	item := &models.DepreciationItem{
		ID:            uuid.New(),
		EvaluationID:  id,
		Category:      input.Category,
		Description:   input.Description,
		Amount:        amount.Decimal(),
		Justification: input.Justification,
		CreatedBy:     input.ActorID,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		evaluation, err := s.loadForWrite(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := requireEditable(evaluation.Status, "add_depreciation_item"); err != nil {
			return err
		}
		if err := repo.AddItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add depreciation item")
		}
		return s.invalidateSnapshot(ctx, repo, evaluation)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveDepreciationItem deletes one deduction from the evaluation.
func (s *Service) RemoveDepreciationItem(ctx context.Context, id, itemID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		evaluation, err := s.loadForWrite(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := requireEditable(evaluation.Status, "remove_depreciation_item"); err != nil {
			return err
		}
		if _, err := repo.FindItem(ctx, id, itemID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "depreciation item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load depreciation item")
		}
		if err := repo.DeleteItem(ctx, id, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete depreciation item")
		}
		return s.invalidateSnapshot(ctx, repo, evaluation)
	})
}

// UpsertChecklist records or replaces the structured condition review.
func (s *Service) UpsertChecklist(ctx context.Context, id uuid.UUID, input ChecklistInput) (*models.EvaluationChecklist, error) {
	for name, score := range map[string]int{
		"body":       input.BodyScore,
		"engine":     input.EngineScore,
		"interior":   input.InteriorScore,
		"tires":      input.TiresScore,
		"electrical": input.ElectricalScore,
	} {
		if score < 0 || score > maxChecklistScore {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%s score must be between 0 and %d", name, maxChecklistScore))
		}
	}

	checklist := &models.EvaluationChecklist{
		EvaluationID:       id,
		BodyScore:          input.BodyScore,
		EngineScore:        input.EngineScore,
		InteriorScore:      input.InteriorScore,
		TiresScore:         input.TiresScore,
		ElectricalScore:    input.ElectricalScore,
		HasAccidentHistory: input.HasAccidentHistory,
		Notes:              input.Notes,
		ReviewedBy:         input.ActorID,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		evaluation, err := s.loadForWrite(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := requireEditable(evaluation.Status, "upsert_checklist"); err != nil {
			return err
		}
		if err := repo.UpsertChecklist(ctx, checklist); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert checklist")
		}
		if evaluation.Status == enums.EvaluationStatusDraft {
			return repo.Update(ctx, id, map[string]any{"status": enums.EvaluationStatusInProgress})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return checklist, nil
}

// CalculateValuation runs the engine against the current aggregate state and
// persists the resulting snapshot. Recalculation replaces the snapshot
// wholesale; an absent adjustment clears any previously stored one.
func (s *Service) CalculateValuation(ctx context.Context, id uuid.UUID, input CalculateInput) (*valuation.Result, error) {
	var result *valuation.Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		evaluation, err := s.loadForWrite(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := requireEditable(evaluation.Status, "calculate_valuation"); err != nil {
			return err
		}

		items, err := repo.ListItems(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load depreciation items")
		}
		engineInput, err := buildEngineInput(evaluation, items)
		if err != nil {
			return err
		}

		result, err = s.engine.CalculateWithAdjustment(ctx, engineInput, s.cfg, input.AdjustmentPercent)
		if err != nil {
			return err
		}

		updates := snapshotUpdates(result)
		if evaluation.Status == enums.EvaluationStatusDraft {
			updates["status"] = enums.EvaluationStatusInProgress
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist valuation snapshot")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEvaluationValuationCalculated,
			AggregateType: enums.AggregateEvaluation,
			AggregateID:   id,
			Version:       1,
			Actor:         actorRef(input.ActorID, "evaluator"),
			Data: payloads.ValuationCalculatedEvent{
				EvaluationID:        id,
				FipePrice:           result.FipePrice,
				TotalDepreciation:   result.TotalDepreciation,
				SuggestedValue:      result.SuggestedValue,
				FinalValue:          result.FinalValue,
				LiquidityPercentage: result.LiquidityPercent,
				HasManualAdjustment: result.HasManualAdjustment(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Submit moves the evaluation to pending approval. A persisted valuation
// snapshot is mandatory: a manager cannot decide on numbers that were never
// computed.
func (s *Service) Submit(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*models.Evaluation, error) {
	var submitted *models.Evaluation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		evaluation, err := s.loadForWrite(ctx, repo, id)
		if err != nil {
			return err
		}
		if !evaluation.Status.CanBeSubmitted() {
			return transitionError(evaluation.Status, "submit")
		}
		if evaluation.FinalValue == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "valuation must be calculated before submission")
		}

		submittedAt := s.now().UTC()
		updates := map[string]any{
			"status":       enums.EvaluationStatusPendingApproval,
			"submitted_at": submittedAt,
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "submit evaluation")
		}

		finalValue, err := money.New(*evaluation.FinalValue)
		if err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEvaluationSubmitted,
			AggregateType: enums.AggregateEvaluation,
			AggregateID:   id,
			Version:       1,
			Actor:         actorRef(actorID, "evaluator"),
			Data: payloads.EvaluationSubmittedEvent{
				EvaluationID: id,
				EvaluatorID:  evaluation.EvaluatorID,
				FinalValue:   finalValue,
				SubmittedAt:  submittedAt,
			},
		}); err != nil {
			return err
		}

		evaluation.Status = enums.EvaluationStatusPendingApproval
		evaluation.SubmittedAt = &submittedAt
		submitted = evaluation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return submitted, nil
}

// Approve finalizes the pending valuation. The approved value is the final
// value frozen at submission; approval opens the validity window and mints
// the public validation token.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, input DecisionInput) (*models.Evaluation, error) {
	if input.ApproverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "approver id is required")
	}

	var approved *models.Evaluation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		evaluation, err := s.loadForWrite(ctx, repo, id)
		if err != nil {
			return err
		}
		if !evaluation.Status.CanBeApproved() {
			return transitionError(evaluation.Status, "approve")
		}
		if evaluation.FinalValue == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "evaluation has no valuation snapshot")
		}
		// An adjusted value must be signed off by someone other than the
		// evaluator who applied the adjustment.
		if s.cfg.RequireManagerApproval() &&
			evaluation.ManualAdjustmentPercent != nil &&
			input.ApproverID == evaluation.EvaluatorID {
			return pkgerrors.New(pkgerrors.CodeValidation, "manually adjusted valuations require approval by another manager")
		}

		approvedAt := s.now().UTC()
		validUntil := approvedAt.Add(s.approvalValidity)
		token := uuid.New()
		updates := map[string]any{
			"status":           enums.EvaluationStatusApproved,
			"approver_id":      input.ApproverID,
			"approved_at":      approvedAt,
			"valid_until":      validUntil,
			"approved_value":   *evaluation.FinalValue,
			"validation_token": token,
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve evaluation")
		}

		approvedValue, err := money.New(*evaluation.FinalValue)
		if err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEvaluationApproved,
			AggregateType: enums.AggregateEvaluation,
			AggregateID:   id,
			Version:       1,
			Actor:         actorRef(input.ApproverID, "manager"),
			Data: payloads.EvaluationApprovedEvent{
				EvaluationID:    id,
				ApproverID:      input.ApproverID,
				ApprovedValue:   approvedValue,
				ApprovedAt:      approvedAt,
				ValidUntil:      validUntil,
				ValidationToken: token,
			},
		}); err != nil {
			return err
		}

		evaluation.Status = enums.EvaluationStatusApproved
		evaluation.ApproverID = &input.ApproverID
		evaluation.ApprovedAt = &approvedAt
		evaluation.ValidUntil = &validUntil
		evaluation.ApprovedValue = evaluation.FinalValue
		evaluation.ValidationToken = &token
		approved = evaluation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject declines the pending valuation. A reason is mandatory.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, input DecisionInput) (*models.Evaluation, error) {
	if input.ApproverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "approver id is required")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}

	var rejected *models.Evaluation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		evaluation, err := s.loadForWrite(ctx, repo, id)
		if err != nil {
			return err
		}
		if !evaluation.Status.CanBeRejected() {
			return transitionError(evaluation.Status, "reject")
		}

		rejectedAt := s.now().UTC()
		updates := map[string]any{
			"status":           enums.EvaluationStatusRejected,
			"approver_id":      input.ApproverID,
			"rejection_reason": input.Reason,
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject evaluation")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEvaluationRejected,
			AggregateType: enums.AggregateEvaluation,
			AggregateID:   id,
			Version:       1,
			Actor:         actorRef(input.ApproverID, "manager"),
			Data: payloads.EvaluationRejectedEvent{
				EvaluationID: id,
				ApproverID:   input.ApproverID,
				Reason:       input.Reason,
				RejectedAt:   rejectedAt,
			},
		}); err != nil {
			return err
		}

		evaluation.Status = enums.EvaluationStatusRejected
		evaluation.ApproverID = &input.ApproverID
		evaluation.RejectionReason = &input.Reason
		rejected = evaluation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// Cancel abandons an active evaluation before it reaches a decision.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*models.Evaluation, error) {
	var canceled *models.Evaluation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		evaluation, err := s.loadForWrite(ctx, repo, id)
		if err != nil {
			return err
		}
		if !evaluation.Status.CanBeCanceled() {
			return transitionError(evaluation.Status, "cancel")
		}

		fromStatus := evaluation.Status
		if err := repo.Update(ctx, id, map[string]any{"status": enums.EvaluationStatusCanceled}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel evaluation")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEvaluationCanceled,
			AggregateType: enums.AggregateEvaluation,
			AggregateID:   id,
			Version:       1,
			Actor:         actorRef(actorID, "evaluator"),
			Data: payloads.EvaluationCanceledEvent{
				EvaluationID: id,
				ActorID:      actorID,
				FromStatus:   fromStatus,
				CanceledAt:   s.now().UTC(),
			},
		}); err != nil {
			return err
		}

		evaluation.Status = enums.EvaluationStatusCanceled
		canceled = evaluation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return canceled, nil
}

// ExpireOverdue sweeps approved evaluations whose validity window has passed.
// Returns the number of evaluations expired. Intended for the cron worker;
// emission is guarded so a re-run never duplicates events.
func (s *Service) ExpireOverdue(ctx context.Context, batchSize int) (int, error) {
	now := s.now().UTC()
	expired := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.ListApprovedExpiredBefore(ctx, now, batchSize)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overdue evaluations")
		}
		for _, evaluation := range rows {
			if err := repo.Update(ctx, evaluation.ID, map[string]any{"status": enums.EvaluationStatusExpired}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire evaluation")
			}
			validUntil := now
			if evaluation.ValidUntil != nil {
				validUntil = *evaluation.ValidUntil
			}
			if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventEvaluationExpired,
				AggregateType: enums.AggregateEvaluation,
				AggregateID:   evaluation.ID,
				Version:       1,
				Data: payloads.EvaluationExpiredEvent{
					EvaluationID: evaluation.ID,
					ValidUntil:   validUntil,
					ExpiredAt:    now,
				},
			}); err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return expired, nil
}

// ValidateToken is the public lookup behind printed appraisal documents. It
// never mutates state: an approved-but-overdue evaluation simply reports
// Valid=false until the expiry sweep catches up.
func (s *Service) ValidateToken(ctx context.Context, token uuid.UUID) (*ValidationResult, error) {
	evaluation, err := s.repo.FindByValidationToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no evaluation for token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup validation token")
	}

	valid := evaluation.Status == enums.EvaluationStatusApproved &&
		evaluation.ValidUntil != nil &&
		evaluation.ValidUntil.After(s.now())

	return &ValidationResult{
		EvaluationID:  evaluation.ID,
		Plate:         evaluation.Plate,
		Brand:         evaluation.Brand,
		Model:         evaluation.Model,
		YearModel:     evaluation.YearModel,
		Status:        evaluation.Status,
		ApprovedValue: evaluation.ApprovedValue,
		ApprovedAt:    evaluation.ApprovedAt,
		ValidUntil:    evaluation.ValidUntil,
		Valid:         valid,
	}, nil
}

func (s *Service) loadForWrite(ctx context.Context, repo Repository, id uuid.UUID) (*models.Evaluation, error) {
	evaluation, err := repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "evaluation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load evaluation")
	}
	return evaluation, nil
}

// invalidateSnapshot clears stale valuation numbers after a content change.
func (s *Service) invalidateSnapshot(ctx context.Context, repo Repository, evaluation *models.Evaluation) error {
	updates := clearedSnapshot()
	if evaluation.Status == enums.EvaluationStatusDraft {
		updates["status"] = enums.EvaluationStatusInProgress
	}
	if err := repo.Update(ctx, evaluation.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalidate valuation snapshot")
	}
	return nil
}

func clearedSnapshot() map[string]any {
	return map[string]any{
		"fipe_price":                nil,
		"base_value":                nil,
		"suggested_value":           nil,
		"final_value":               nil,
		"liquidity_percent":         nil,
		"manual_adjustment_percent": nil,
		"manual_adjustment_amount":  nil,
	}
}

func snapshotUpdates(result *valuation.Result) map[string]any {
	updates := map[string]any{
		"fipe_price":                result.FipePrice.Decimal(),
		"base_value":                result.BaseValue.Decimal(),
		"suggested_value":           result.SuggestedValue.Decimal(),
		"final_value":               result.FinalValue.Decimal(),
		"liquidity_percent":         result.LiquidityPercent,
		"manual_adjustment_percent": nil,
		"manual_adjustment_amount":  nil,
	}
	if result.ManualAdjustmentPercent != nil {
		updates["manual_adjustment_percent"] = *result.ManualAdjustmentPercent
	}
	if result.ManualAdjustmentAmount != nil {
		updates["manual_adjustment_amount"] = result.ManualAdjustmentAmount.Decimal()
	}
	return updates
}

func buildEngineInput(evaluation *models.Evaluation, items []models.DepreciationItem) (valuation.Input, error) {
	entries := make([]valuation.DepreciationEntry, 0, len(items))
	for _, item := range items {
		amount, err := money.New(item.Amount)
		if err != nil {
			return valuation.Input{}, err
		}
		entries = append(entries, valuation.DepreciationEntry{
			ID:           item.ID,
			EvaluationID: item.EvaluationID,
			Category:     item.Category,
			Description:  item.Description,
			Amount:       amount,
		})
	}
	return valuation.Input{
		EvaluationID: evaluation.ID,
		Vehicle: valuation.Vehicle{
			Brand:           evaluation.Brand,
			Model:           evaluation.Model,
			YearManufacture: evaluation.YearManufacture,
			YearModel:       evaluation.YearModel,
			FuelType:        evaluation.FuelType,
		},
		Mileage: evaluation.Mileage,
		Items:   entries,
	}, nil
}

func validateDraftInput(input CreateDraftInput) error {
	if input.Plate == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "plate is required")
	}
	if input.Brand == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "brand is required")
	}
	if input.Model == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "model is required")
	}
	if input.YearManufacture < minYearManufacture {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("manufacture year must be %d or later", minYearManufacture))
	}
	if input.YearModel < input.YearManufacture {
		return pkgerrors.New(pkgerrors.CodeValidation, "model year cannot precede manufacture year")
	}
	if !input.FuelType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid fuel type %q", input.FuelType))
	}
	if input.Mileage < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "mileage cannot be negative")
	}
	if input.EvaluatorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "evaluator id is required")
	}
	return nil
}

func transitionError(current enums.EvaluationStatus, operation string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidStatusTransition, fmt.Sprintf("cannot %s evaluation", operation)).
		WithDetails(map[string]any{
			"current_status": current.String(),
			"operation":      operation,
		})
}

func requireEditable(current enums.EvaluationStatus, operation string) error {
	if current.IsEditable() {
		return nil
	}
	return transitionError(current, operation)
}

func actorRef(userID uuid.UUID, role string) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: role}
}
