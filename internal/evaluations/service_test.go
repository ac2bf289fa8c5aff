package evaluations

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/drivelane/appraisal-backend/internal/valuation"
	"github.com/drivelane/appraisal-backend/pkg/db/models"
	"github.com/drivelane/appraisal-backend/pkg/enums"
	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
	"github.com/drivelane/appraisal-backend/pkg/logger"
	"github.com/drivelane/appraisal-backend/pkg/money"
	"github.com/drivelane/appraisal-backend/pkg/outbox"
	"github.com/drivelane/appraisal-backend/pkg/pagination"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type recordingOutbox struct {
	emitted []outbox.DomainEvent
	guarded []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	r.emitted = append(r.emitted, event)
	return nil
}

func (r *recordingOutbox) EmitIfNotExists(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	r.guarded = append(r.guarded, event)
	return nil
}

type fakeRepo struct {
	evaluations map[uuid.UUID]*models.Evaluation
	items       map[uuid.UUID][]models.DepreciationItem
	checklists  map[uuid.UUID]*models.EvaluationChecklist
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		evaluations: map[uuid.UUID]*models.Evaluation{},
		items:       map[uuid.UUID][]models.DepreciationItem{},
		checklists:  map[uuid.UUID]*models.EvaluationChecklist{},
	}
}

func (r *fakeRepo) WithTx(_ *gorm.DB) Repository { return r }

func (r *fakeRepo) Create(_ context.Context, evaluation *models.Evaluation) error {
	cp := *evaluation
	r.evaluations[evaluation.ID] = &cp
	return nil
}

func (r *fakeRepo) Find(_ context.Context, id uuid.UUID) (*models.Evaluation, error) {
	evaluation, ok := r.evaluations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *evaluation
	cp.DepreciationItems = append([]models.DepreciationItem(nil), r.items[id]...)
	cp.Checklist = r.checklists[id]
	return &cp, nil
}

func (r *fakeRepo) FindByValidationToken(_ context.Context, token uuid.UUID) (*models.Evaluation, error) {
	for _, evaluation := range r.evaluations {
		if evaluation.ValidationToken != nil && *evaluation.ValidationToken == token {
			cp := *evaluation
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) List(_ context.Context, _ pagination.Params, _ ListFilters) (*EvaluationList, error) {
	list := &EvaluationList{}
	for _, evaluation := range r.evaluations {
		list.Evaluations = append(list.Evaluations, EvaluationSummary{
			ID:          evaluation.ID,
			Plate:       evaluation.Plate,
			Status:      evaluation.Status,
			EvaluatorID: evaluation.EvaluatorID,
		})
	}
	return list, nil
}

func (r *fakeRepo) Update(_ context.Context, id uuid.UUID, updates map[string]any) error {
	evaluation, ok := r.evaluations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for column, value := range updates {
		applyColumn(evaluation, column, value)
	}
	return nil
}

func (r *fakeRepo) AddItem(_ context.Context, item *models.DepreciationItem) error {
	r.items[item.EvaluationID] = append(r.items[item.EvaluationID], *item)
	return nil
}

func (r *fakeRepo) FindItem(_ context.Context, evaluationID, itemID uuid.UUID) (*models.DepreciationItem, error) {
	for _, item := range r.items[evaluationID] {
		if item.ID == itemID {
			cp := item
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) DeleteItem(_ context.Context, evaluationID, itemID uuid.UUID) error {
	kept := r.items[evaluationID][:0]
	for _, item := range r.items[evaluationID] {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	r.items[evaluationID] = kept
	return nil
}

func (r *fakeRepo) ListItems(_ context.Context, evaluationID uuid.UUID) ([]models.DepreciationItem, error) {
	items := append([]models.DepreciationItem(nil), r.items[evaluationID]...)
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (r *fakeRepo) UpsertChecklist(_ context.Context, checklist *models.EvaluationChecklist) error {
	cp := *checklist
	r.checklists[checklist.EvaluationID] = &cp
	return nil
}

func (r *fakeRepo) ListApprovedExpiredBefore(_ context.Context, cutoff time.Time, limit int) ([]models.Evaluation, error) {
	var out []models.Evaluation
	for _, evaluation := range r.evaluations {
		if evaluation.Status == enums.EvaluationStatusApproved &&
			evaluation.ValidUntil != nil && evaluation.ValidUntil.Before(cutoff) {
			out = append(out, *evaluation)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func applyColumn(evaluation *models.Evaluation, column string, value any) {
	switch column {
	case "status":
		evaluation.Status = value.(enums.EvaluationStatus)
	case "plate":
		evaluation.Plate = value.(string)
	case "brand":
		evaluation.Brand = value.(string)
	case "model":
		evaluation.Model = value.(string)
	case "year_model":
		evaluation.YearModel = value.(int)
	case "fuel_type":
		evaluation.FuelType = value.(enums.FuelType)
	case "color":
		evaluation.Color = value.(string)
	case "mileage":
		evaluation.Mileage = value.(int64)
	case "observations":
		s := value.(string)
		evaluation.Observations = &s
	case "rejection_reason":
		s := value.(string)
		evaluation.RejectionReason = &s
	case "submitted_at":
		t := value.(time.Time)
		evaluation.SubmittedAt = &t
	case "approved_at":
		t := value.(time.Time)
		evaluation.ApprovedAt = &t
	case "valid_until":
		t := value.(time.Time)
		evaluation.ValidUntil = &t
	case "approver_id":
		id := value.(uuid.UUID)
		evaluation.ApproverID = &id
	case "validation_token":
		tok := value.(uuid.UUID)
		evaluation.ValidationToken = &tok
	case "approved_value":
		d := value.(decimal.Decimal)
		evaluation.ApprovedValue = &d
	case "fipe_price":
		evaluation.FipePrice = decimalColumn(value)
	case "base_value":
		evaluation.BaseValue = decimalColumn(value)
	case "suggested_value":
		evaluation.SuggestedValue = decimalColumn(value)
	case "final_value":
		evaluation.FinalValue = decimalColumn(value)
	case "liquidity_percent":
		evaluation.LiquidityPercent = decimalColumn(value)
	case "manual_adjustment_percent":
		evaluation.ManualAdjustmentPercent = decimalColumn(value)
	case "manual_adjustment_amount":
		evaluation.ManualAdjustmentAmount = decimalColumn(value)
	}
}

func decimalColumn(value any) *decimal.Decimal {
	if value == nil {
		return nil
	}
	d := value.(decimal.Decimal)
	return &d
}

type fixedPrices struct {
	price     *money.Value
	liquidity decimal.Decimal
}

func (f fixedPrices) FipePrice(context.Context, valuation.FipeQuery) (*money.Value, error) {
	return f.price, nil
}

func (f fixedPrices) LiquidityPercent(context.Context, valuation.LiquidityQuery) (decimal.Decimal, error) {
	return f.liquidity, nil
}

type serviceFixture struct {
	service *Service
	repo    *fakeRepo
	outbox  *recordingOutbox
}

func newFixture(t *testing.T, requireApproval bool) serviceFixture {
	t.Helper()

	price := money.MustFromString("100.00")
	engine, err := valuation.NewEngine(
		fixedPrices{price: &price, liquidity: decimal.RequireFromString("0.90")},
		valuation.WithClock(func() time.Time { return testNow }),
	)
	require.NoError(t, err)

	cfg, err := valuation.NewConfig(
		decimal.NewFromInt(10),
		decimal.NewFromInt(15),
		decimal.NewFromInt(10),
		requireApproval,
	)
	require.NoError(t, err)

	repo := newFakeRepo()
	emitter := &recordingOutbox{}
	svc, err := NewService(ServiceParams{
		Repo:             repo,
		Tx:               fakeTxRunner{},
		Outbox:           emitter,
		Engine:           engine,
		ValuationConfig:  cfg,
		ApprovalValidity: 72 * time.Hour,
		Logger:           logger.New(logger.Options{ServiceName: "evaluations-test", Level: logger.ParseLevel("error")}),
		Clock:            func() time.Time { return testNow },
	})
	require.NoError(t, err)

	return serviceFixture{service: svc, repo: repo, outbox: emitter}
}

func draftInput(evaluatorID uuid.UUID) CreateDraftInput {
	return CreateDraftInput{
		Plate:           "BRA2E19",
		Brand:           "Fiat",
		Model:           "Argo 1.0",
		YearManufacture: 2021,
		YearModel:       2021,
		FuelType:        enums.FuelTypeFlex,
		Mileage:         42000,
		EvaluatorID:     evaluatorID,
	}
}

func seed(t *testing.T, fx serviceFixture, mutate func(*models.Evaluation)) *models.Evaluation {
	t.Helper()
	evaluation, err := fx.service.CreateDraft(context.Background(), draftInput(uuid.New()))
	require.NoError(t, err)
	if mutate != nil {
		mutate(fx.repo.evaluations[evaluation.ID])
	}
	fx.outbox.emitted = nil
	return fx.repo.evaluations[evaluation.ID]
}

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr, "expected an application error, got %v", err)
	return appErr.Code()
}

func TestCreateDraft(t *testing.T) {
	fx := newFixture(t, false)

	evaluation, err := fx.service.CreateDraft(context.Background(), draftInput(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, enums.EvaluationStatusDraft, evaluation.Status)
	assert.Nil(t, evaluation.FinalValue)

	require.Len(t, fx.outbox.emitted, 1)
	assert.Equal(t, enums.EventEvaluationCreated, fx.outbox.emitted[0].EventType)
	assert.Equal(t, evaluation.ID, fx.outbox.emitted[0].AggregateID)
}

func TestCreateDraftValidation(t *testing.T) {
	fx := newFixture(t, false)

	cases := map[string]func(*CreateDraftInput){
		"missing plate":       func(in *CreateDraftInput) { in.Plate = "" },
		"missing brand":       func(in *CreateDraftInput) { in.Brand = "" },
		"bad fuel type":       func(in *CreateDraftInput) { in.FuelType = "nuclear" },
		"model before manuf":  func(in *CreateDraftInput) { in.YearModel = 2020 },
		"negative mileage":    func(in *CreateDraftInput) { in.Mileage = -1 },
		"missing evaluator":   func(in *CreateDraftInput) { in.EvaluatorID = uuid.Nil },
		"prehistoric vehicle": func(in *CreateDraftInput) { in.YearManufacture = 1900 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := draftInput(uuid.New())
			mutate(&input)
			_, err := fx.service.CreateDraft(context.Background(), input)
			assert.Equal(t, pkgerrors.CodeValidation, errCode(t, err))
		})
	}
}

func TestUpdateVehicleDataClearsSnapshotAndPromotes(t *testing.T) {
	fx := newFixture(t, false)
	evaluation := seed(t, fx, func(e *models.Evaluation) {
		final := decimal.RequireFromString("110.00")
		e.FinalValue = &final
		e.SuggestedValue = &final
	})

	brand := "Volkswagen"
	updated, err := fx.service.UpdateVehicleData(context.Background(), evaluation.ID, UpdateVehicleInput{Brand: &brand})
	require.NoError(t, err)

	assert.Equal(t, "Volkswagen", updated.Brand)
	assert.Equal(t, enums.EvaluationStatusInProgress, updated.Status)
	assert.Nil(t, updated.FinalValue, "stale valuation must be cleared")
	assert.Nil(t, updated.SuggestedValue)
}

func TestUpdateVehicleDataRejectedAfterSubmission(t *testing.T) {
	fx := newFixture(t, false)
	evaluation := seed(t, fx, func(e *models.Evaluation) {
		e.Status = enums.EvaluationStatusPendingApproval
	})

	brand := "Volkswagen"
	_, err := fx.service.UpdateVehicleData(context.Background(), evaluation.ID, UpdateVehicleInput{Brand: &brand})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidStatusTransition, errCode(t, err))
	assert.Equal(t, "pending_approval", pkgerrors.As(err).Details().(map[string]any)["current_status"])
}

func TestAddDepreciationItem(t *testing.T) {
	fx := newFixture(t, false)
	evaluation := seed(t, fx, nil)

	item, err := fx.service.AddDepreciationItem(context.Background(), evaluation.ID, DepreciationItemInput{
		Category:      "bodywork",
		Description:   "scratched rear bumper",
		Amount:        decimal.RequireFromString("350.00"),
		Justification: "repaint required",
		ActorID:       evaluation.EvaluatorID,
	})
	require.NoError(t, err)
	assert.Equal(t, "350.00", item.Amount.StringFixed(2))

	stored := fx.repo.evaluations[evaluation.ID]
	assert.Equal(t, enums.EvaluationStatusInProgress, stored.Status)
}

func TestAddDepreciationItemValidation(t *testing.T) {
	fx := newFixture(t, false)
	evaluation := seed(t, fx, nil)

	_, err := fx.service.AddDepreciationItem(context.Background(), evaluation.ID, DepreciationItemInput{
		Category:      "bodywork",
		Description:   "free fix",
		Amount:        decimal.Zero,
		Justification: "n/a",
	})
	assert.Equal(t, pkgerrors.CodeValidation, errCode(t, err))

	_, err = fx.service.AddDepreciationItem(context.Background(), evaluation.ID, DepreciationItemInput{
		Category:      "bodywork",
		Description:   "negative fix",
		Amount:        decimal.RequireFromString("-10"),
		Justification: "n/a",
	})
	require.Error(t, err)
}

func TestRemoveDepreciationItemNotFound(t *testing.T) {
	fx := newFixture(t, false)
	evaluation := seed(t, fx, nil)

	err := fx.service.RemoveDepreciationItem(context.Background(), evaluation.ID, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, errCode(t, err))
}

func TestUpsertChecklist(t *testing.T) {
	fx := newFixture(t, false)
	evaluation := seed(t, fx, nil)

	checklist, err := fx.service.UpsertChecklist(context.Background(), evaluation.ID, ChecklistInput{
		BodyScore:       8,
		EngineScore:     9,
		InteriorScore:   7,
		TiresScore:      6,
		ElectricalScore: 10,
		ActorID:         evaluation.EvaluatorID,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, checklist.BodyScore)
	assert.Equal(t, enums.EvaluationStatusInProgress, fx.repo.evaluations[evaluation.ID].Status)

	_, err = fx.service.UpsertChecklist(context.Background(), evaluation.ID, ChecklistInput{BodyScore: 11})
	assert.Equal(t, pkgerrors.CodeValidation, errCode(t, err))
}

func TestCalculateValuationPersistsSnapshot(t *testing.T) {
	fx := newFixture(t, false)
	evaluation := seed(t, fx, nil)

	_, err := fx.service.AddDepreciationItem(context.Background(), evaluation.ID, DepreciationItemInput{
		Category:      "bodywork",
		Description:   "scratch",
		Amount:        decimal.RequireFromString("5.00"),
		Justification: "repaint",
		ActorID:       evaluation.EvaluatorID,
	})
	require.NoError(t, err)
	fx.outbox.emitted = nil

	result, err := fx.service.CalculateValuation(context.Background(), evaluation.ID, CalculateInput{ActorID: evaluation.EvaluatorID})
	require.NoError(t, err)
	assert.Equal(t, "110.00", result.FinalValue.String())

	stored := fx.repo.evaluations[evaluation.ID]
	require.NotNil(t, stored.FinalValue)
	assert.Equal(t, "110.00", stored.FinalValue.StringFixed(2))
	assert.Equal(t, "100.00", stored.FipePrice.StringFixed(2))
	assert.Nil(t, stored.ManualAdjustmentPercent)

	require.Len(t, fx.outbox.emitted, 1)
	assert.Equal(t, enums.EventEvaluationValuationCalculated, fx.outbox.emitted[0].EventType)
}

func TestCalculateValuationWithAdjustment(t *testing.T) {
	fx := newFixture(t, false)
	evaluation := seed(t, fx, nil)

	pct := decimal.NewFromInt(5)
	result, err := fx.service.CalculateValuation(context.Background(), evaluation.ID, CalculateInput{
		AdjustmentPercent: &pct,
		ActorID:           evaluation.EvaluatorID,
	})
	require.NoError(t, err)
	assert.Equal(t, "120.75", result.FinalValue.String())

	stored := fx.repo.evaluations[evaluation.ID]
	require.NotNil(t, stored.ManualAdjustmentPercent)
	assert.Equal(t, "5", stored.ManualAdjustmentPercent.String())

	// Recalculating without an adjustment wipes the stored one.
	_, err = fx.service.CalculateValuation(context.Background(), evaluation.ID, CalculateInput{ActorID: evaluation.EvaluatorID})
	require.NoError(t, err)
	assert.Nil(t, fx.repo.evaluations[evaluation.ID].ManualAdjustmentPercent)
}

func TestSubmitRequiresValuation(t *testing.T) {
	fx := newFixture(t, false)
	evaluation := seed(t, fx, nil)

	_, err := fx.service.Submit(context.Background(), evaluation.ID, evaluation.EvaluatorID)
	assert.Equal(t, pkgerrors.CodeValidation, errCode(t, err))
}

func TestSubmitMovesToPendingApproval(t *testing.T) {
	fx := newFixture(t, false)
	evaluation := seed(t, fx, nil)

	_, err := fx.service.CalculateValuation(context.Background(), evaluation.ID, CalculateInput{ActorID: evaluation.EvaluatorID})
	require.NoError(t, err)
	fx.outbox.emitted = nil

	submitted, err := fx.service.Submit(context.Background(), evaluation.ID, evaluation.EvaluatorID)
	require.NoError(t, err)
	assert.Equal(t, enums.EvaluationStatusPendingApproval, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)
	assert.Equal(t, testNow, *submitted.SubmittedAt)

	require.Len(t, fx.outbox.emitted, 1)
	assert.Equal(t, enums.EventEvaluationSubmitted, fx.outbox.emitted[0].EventType)

	_, err = fx.service.Submit(context.Background(), evaluation.ID, evaluation.EvaluatorID)
	assert.Equal(t, pkgerrors.CodeInvalidStatusTransition, errCode(t, err))
}

func TestApproveOpensValidityWindow(t *testing.T) {
	fx := newFixture(t, false)
	final := decimal.RequireFromString("110.00")
	evaluation := seed(t, fx, func(e *models.Evaluation) {
		e.Status = enums.EvaluationStatusPendingApproval
		e.FinalValue = &final
	})

	approverID := uuid.New()
	approved, err := fx.service.Approve(context.Background(), evaluation.ID, DecisionInput{ApproverID: approverID})
	require.NoError(t, err)

	assert.Equal(t, enums.EvaluationStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedValue)
	assert.Equal(t, "110.00", approved.ApprovedValue.StringFixed(2))
	require.NotNil(t, approved.ValidUntil)
	assert.Equal(t, testNow.Add(72*time.Hour), *approved.ValidUntil)
	assert.NotNil(t, approved.ValidationToken)

	require.Len(t, fx.outbox.emitted, 1)
	assert.Equal(t, enums.EventEvaluationApproved, fx.outbox.emitted[0].EventType)
}

func TestApproveRejectsSelfApprovalOfAdjustedValue(t *testing.T) {
	fx := newFixture(t, true)
	final := decimal.RequireFromString("120.75")
	pct := decimal.NewFromInt(5)
	evaluation := seed(t, fx, func(e *models.Evaluation) {
		e.Status = enums.EvaluationStatusPendingApproval
		e.FinalValue = &final
		e.ManualAdjustmentPercent = &pct
	})

	_, err := fx.service.Approve(context.Background(), evaluation.ID, DecisionInput{ApproverID: evaluation.EvaluatorID})
	assert.Equal(t, pkgerrors.CodeValidation, errCode(t, err))

	_, err = fx.service.Approve(context.Background(), evaluation.ID, DecisionInput{ApproverID: uuid.New()})
	require.NoError(t, err)
}

func TestApproveGuard(t *testing.T) {
	fx := newFixture(t, false)
	evaluation := seed(t, fx, nil)

	_, err := fx.service.Approve(context.Background(), evaluation.ID, DecisionInput{ApproverID: uuid.New()})
	assert.Equal(t, pkgerrors.CodeInvalidStatusTransition, errCode(t, err))
}

func TestRejectRequiresReason(t *testing.T) {
	fx := newFixture(t, false)
	evaluation := seed(t, fx, func(e *models.Evaluation) {
		e.Status = enums.EvaluationStatusPendingApproval
	})

	_, err := fx.service.Reject(context.Background(), evaluation.ID, DecisionInput{ApproverID: uuid.New()})
	assert.Equal(t, pkgerrors.CodeValidation, errCode(t, err))

	rejected, err := fx.service.Reject(context.Background(), evaluation.ID, DecisionInput{
		ApproverID: uuid.New(),
		Reason:     "depreciation items do not match the photos",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.EvaluationStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)

	require.Len(t, fx.outbox.emitted, 1)
	assert.Equal(t, enums.EventEvaluationRejected, fx.outbox.emitted[0].EventType)
}

func TestCancelRecordsPriorStatus(t *testing.T) {
	fx := newFixture(t, false)
	evaluation := seed(t, fx, func(e *models.Evaluation) {
		e.Status = enums.EvaluationStatusInProgress
	})

	canceled, err := fx.service.Cancel(context.Background(), evaluation.ID, evaluation.EvaluatorID)
	require.NoError(t, err)
	assert.Equal(t, enums.EvaluationStatusCanceled, canceled.Status)

	require.Len(t, fx.outbox.emitted, 1)
	event := fx.outbox.emitted[0]
	assert.Equal(t, enums.EventEvaluationCanceled, event.EventType)

	// A decided evaluation cannot be canceled.
	approvedEval := seed(t, fx, func(e *models.Evaluation) {
		e.Status = enums.EvaluationStatusApproved
	})
	_, err = fx.service.Cancel(context.Background(), approvedEval.ID, approvedEval.EvaluatorID)
	assert.Equal(t, pkgerrors.CodeInvalidStatusTransition, errCode(t, err))
}

func TestExpireOverdue(t *testing.T) {
	fx := newFixture(t, false)
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)
	overdue := seed(t, fx, func(e *models.Evaluation) {
		e.Status = enums.EvaluationStatusApproved
		e.ValidUntil = &past
	})
	current := seed(t, fx, func(e *models.Evaluation) {
		e.Status = enums.EvaluationStatusApproved
		e.ValidUntil = &future
	})

	count, err := fx.service.ExpireOverdue(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.Equal(t, enums.EvaluationStatusExpired, fx.repo.evaluations[overdue.ID].Status)
	assert.Equal(t, enums.EvaluationStatusApproved, fx.repo.evaluations[current.ID].Status)

	require.Len(t, fx.outbox.guarded, 1)
	assert.Equal(t, enums.EventEvaluationExpired, fx.outbox.guarded[0].EventType)
	assert.Equal(t, overdue.ID, fx.outbox.guarded[0].AggregateID)
}

func TestValidateToken(t *testing.T) {
	fx := newFixture(t, false)
	token := uuid.New()
	approvedAt := testNow.Add(-time.Hour)
	validUntil := testNow.Add(71 * time.Hour)
	value := decimal.RequireFromString("110.00")
	seed(t, fx, func(e *models.Evaluation) {
		e.Status = enums.EvaluationStatusApproved
		e.ValidationToken = &token
		e.ApprovedAt = &approvedAt
		e.ValidUntil = &validUntil
		e.ApprovedValue = &value
	})

	result, err := fx.service.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "BRA2E19", result.Plate)

	_, err = fx.service.ValidateToken(context.Background(), uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, errCode(t, err))
}

func TestValidateTokenPastWindow(t *testing.T) {
	fx := newFixture(t, false)
	token := uuid.New()
	expiredWindow := testNow.Add(-time.Minute)
	seed(t, fx, func(e *models.Evaluation) {
		e.Status = enums.EvaluationStatusApproved
		e.ValidationToken = &token
		e.ValidUntil = &expiredWindow
	})

	result, err := fx.service.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, result.Valid, "an approved valuation past its window is no longer valid")
}
