package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drivelane/appraisal-backend/api/middleware"
	"github.com/drivelane/appraisal-backend/api/responses"
	"github.com/drivelane/appraisal-backend/api/validators"
	"github.com/drivelane/appraisal-backend/internal/evaluations"
	"github.com/drivelane/appraisal-backend/pkg/db/models"
	"github.com/drivelane/appraisal-backend/pkg/enums"
	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
	"github.com/drivelane/appraisal-backend/pkg/logger"
	"github.com/drivelane/appraisal-backend/pkg/pagination"
)

type createEvaluationPayload struct {
	Plate           string  `json:"plate" validate:"required,min=6,max=10"`
	Brand           string  `json:"brand" validate:"required,max=64"`
	Model           string  `json:"model" validate:"required,max=128"`
	YearManufacture int     `json:"year_manufacture" validate:"required,min=1950"`
	YearModel       int     `json:"year_model" validate:"required,min=1950"`
	FuelType        string  `json:"fuel_type" validate:"required"`
	Color           string  `json:"color" validate:"max=32"`
	Mileage         int64   `json:"mileage" validate:"min=0"`
	Observations    *string `json:"observations"`
}

type updateVehiclePayload struct {
	Plate        *string `json:"plate" validate:"omitempty,min=6,max=10"`
	Brand        *string `json:"brand" validate:"omitempty,min=1,max=64"`
	Model        *string `json:"model" validate:"omitempty,min=1,max=128"`
	YearModel    *int    `json:"year_model" validate:"omitempty,min=1950"`
	FuelType     *string `json:"fuel_type"`
	Color        *string `json:"color" validate:"omitempty,max=32"`
	Mileage      *int64  `json:"mileage" validate:"omitempty,min=0"`
	Observations *string `json:"observations"`
}

type depreciationItemPayload struct {
	Category      string `json:"category" validate:"required,max=64"`
	Description   string `json:"description" validate:"required,max=256"`
	Amount        string `json:"amount" validate:"required"`
	Justification string `json:"justification" validate:"required,max=512"`
}

type checklistPayload struct {
	BodyScore          int     `json:"body_score" validate:"min=0,max=10"`
	EngineScore        int     `json:"engine_score" validate:"min=0,max=10"`
	InteriorScore      int     `json:"interior_score" validate:"min=0,max=10"`
	TiresScore         int     `json:"tires_score" validate:"min=0,max=10"`
	ElectricalScore    int     `json:"electrical_score" validate:"min=0,max=10"`
	HasAccidentHistory bool    `json:"has_accident_history"`
	Notes              *string `json:"notes"`
}

type calculatePayload struct {
	AdjustmentPercent *string `json:"adjustment_percent"`
}

type rejectPayload struct {
	Reason string `json:"reason" validate:"required,min=3,max=512"`
}

type depreciationItemView struct {
	ID            uuid.UUID       `json:"id"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Justification string          `json:"justification"`
	CreatedBy     uuid.UUID       `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

type checklistView struct {
	BodyScore          int     `json:"body_score"`
	EngineScore        int     `json:"engine_score"`
	InteriorScore      int     `json:"interior_score"`
	TiresScore         int     `json:"tires_score"`
	ElectricalScore    int     `json:"electrical_score"`
	HasAccidentHistory bool    `json:"has_accident_history"`
	Notes              *string `json:"notes,omitempty"`
}

type evaluationView struct {
	ID              uuid.UUID              `json:"id"`
	Plate           string                 `json:"plate"`
	Brand           string                 `json:"brand"`
	Model           string                 `json:"model"`
	YearManufacture int                    `json:"year_manufacture"`
	YearModel       int                    `json:"year_model"`
	FuelType        enums.FuelType         `json:"fuel_type"`
	Color           string                 `json:"color,omitempty"`
	Mileage         int64                  `json:"mileage"`
	Status          enums.EvaluationStatus `json:"status"`

	FipePrice               *decimal.Decimal `json:"fipe_price,omitempty"`
	BaseValue               *decimal.Decimal `json:"base_value,omitempty"`
	SuggestedValue          *decimal.Decimal `json:"suggested_value,omitempty"`
	FinalValue              *decimal.Decimal `json:"final_value,omitempty"`
	ApprovedValue           *decimal.Decimal `json:"approved_value,omitempty"`
	LiquidityPercent        *decimal.Decimal `json:"liquidity_percent,omitempty"`
	ManualAdjustmentPercent *decimal.Decimal `json:"manual_adjustment_percent,omitempty"`
	ManualAdjustmentAmount  *decimal.Decimal `json:"manual_adjustment_amount,omitempty"`

	Observations    *string `json:"observations,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`

	EvaluatorID uuid.UUID  `json:"evaluator_id"`
	ApproverID  *uuid.UUID `json:"approver_id,omitempty"`

	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	ValidationToken *uuid.UUID `json:"validation_token,omitempty"`

	Items     []depreciationItemView `json:"items"`
	Checklist *checklistView         `json:"checklist,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newEvaluationView(e *models.Evaluation) evaluationView {
	view := evaluationView{
		ID:              e.ID,
		Plate:           e.Plate,
		Brand:           e.Brand,
		Model:           e.Model,
		YearManufacture: e.YearManufacture,
		YearModel:       e.YearModel,
		FuelType:        e.FuelType,
		Color:           e.Color,
		Mileage:         e.Mileage,
		Status:          e.Status,

		FipePrice:               e.FipePrice,
		BaseValue:               e.BaseValue,
		SuggestedValue:          e.SuggestedValue,
		FinalValue:              e.FinalValue,
		ApprovedValue:           e.ApprovedValue,
		LiquidityPercent:        e.LiquidityPercent,
		ManualAdjustmentPercent: e.ManualAdjustmentPercent,
		ManualAdjustmentAmount:  e.ManualAdjustmentAmount,

		Observations:    e.Observations,
		RejectionReason: e.RejectionReason,

		EvaluatorID: e.EvaluatorID,
		ApproverID:  e.ApproverID,

		SubmittedAt:     e.SubmittedAt,
		ApprovedAt:      e.ApprovedAt,
		ValidUntil:      e.ValidUntil,
		ValidationToken: e.ValidationToken,

		Items: make([]depreciationItemView, 0, len(e.DepreciationItems)),

		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}

	for _, item := range e.DepreciationItems {
		view.Items = append(view.Items, depreciationItemView{
			ID:            item.ID,
			Category:      item.Category,
			Description:   item.Description,
			Amount:        item.Amount,
			Justification: item.Justification,
			CreatedBy:     item.CreatedBy,
			CreatedAt:     item.CreatedAt,
		})
	}

	if e.Checklist != nil {
		view.Checklist = &checklistView{
			BodyScore:          e.Checklist.BodyScore,
			EngineScore:        e.Checklist.EngineScore,
			InteriorScore:      e.Checklist.InteriorScore,
			TiresScore:         e.Checklist.TiresScore,
			ElectricalScore:    e.Checklist.ElectricalScore,
			HasAccidentHistory: e.Checklist.HasAccidentHistory,
			Notes:              e.Checklist.Notes,
		}
	}

	return view
}

// EvaluationCreate opens a new draft evaluation owned by the acting user.
func EvaluationCreate(svc EvaluationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluations service unavailable"))
			return
		}

		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createEvaluationPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		created, err := svc.CreateDraft(ctx, evaluations.CreateDraftInput{
			Plate:           validators.SanitizeString(payload.Plate, 10),
			Brand:           validators.SanitizeString(payload.Brand, 64),
			Model:           validators.SanitizeString(payload.Model, 128),
			YearManufacture: payload.YearManufacture,
			YearModel:       payload.YearModel,
			FuelType:        enums.FuelType(strings.ToLower(strings.TrimSpace(payload.FuelType))),
			Color:           validators.SanitizeString(payload.Color, 32),
			Mileage:         payload.Mileage,
			Observations:    payload.Observations,
			EvaluatorID:     actorID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newEvaluationView(created))
	}
}

// EvaluationDetail returns the full aggregate for one evaluation.
func EvaluationDetail(svc EvaluationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluations service unavailable"))
			return
		}

		id, err := parseEvaluationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		evaluation, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newEvaluationView(evaluation))
	}
}

// EvaluationList returns a filtered, cursor-paginated evaluation page.
func EvaluationList(svc EvaluationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluations service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filters, err := buildListFilters(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, err := svc.List(ctx, params, filters)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// EvaluationUpdateVehicle applies partial vehicle-data changes and clears any
// stale valuation snapshot.
func EvaluationUpdateVehicle(svc EvaluationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluations service unavailable"))
			return
		}

		id, err := parseEvaluationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateVehiclePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := evaluations.UpdateVehicleInput{
			Plate:        payload.Plate,
			Brand:        payload.Brand,
			Model:        payload.Model,
			YearModel:    payload.YearModel,
			Color:        payload.Color,
			Mileage:      payload.Mileage,
			Observations: payload.Observations,
			ActorID:      actorID,
		}
		if payload.FuelType != nil {
			fuel := enums.FuelType(strings.ToLower(strings.TrimSpace(*payload.FuelType)))
			input.FuelType = &fuel
		}

		updated, err := svc.UpdateVehicleData(ctx, id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newEvaluationView(updated))
	}
}

// EvaluationAddItem records one catalogued depreciation deduction.
func EvaluationAddItem(svc EvaluationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluations service unavailable"))
			return
		}

		id, err := parseEvaluationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload depreciationItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(payload.Amount))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidAmount, err, "invalid item amount"))
			return
		}

		item, err := svc.AddDepreciationItem(ctx, id, evaluations.DepreciationItemInput{
			Category:      validators.SanitizeString(payload.Category, 64),
			Description:   validators.SanitizeString(payload.Description, 256),
			Amount:        amount,
			Justification: validators.SanitizeString(payload.Justification, 512),
			ActorID:       actorID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, depreciationItemView{
			ID:            item.ID,
			Category:      item.Category,
			Description:   item.Description,
			Amount:        item.Amount,
			Justification: item.Justification,
			CreatedBy:     item.CreatedBy,
			CreatedAt:     item.CreatedAt,
		})
	}
}

// EvaluationRemoveItem deletes one depreciation item from an editable evaluation.
func EvaluationRemoveItem(svc EvaluationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluations service unavailable"))
			return
		}

		id, err := parseEvaluationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		itemID, err := parsePathUUID(r, "itemId", "item id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.RemoveDepreciationItem(ctx, id, itemID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// EvaluationUpsertChecklist stores the structured condition review, replacing
// any previous one.
func EvaluationUpsertChecklist(svc EvaluationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluations service unavailable"))
			return
		}

		id, err := parseEvaluationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload checklistPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		checklist, err := svc.UpsertChecklist(ctx, id, evaluations.ChecklistInput{
			BodyScore:          payload.BodyScore,
			EngineScore:        payload.EngineScore,
			InteriorScore:      payload.InteriorScore,
			TiresScore:         payload.TiresScore,
			ElectricalScore:    payload.ElectricalScore,
			HasAccidentHistory: payload.HasAccidentHistory,
			Notes:              payload.Notes,
			ActorID:            actorID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, checklistView{
			BodyScore:          checklist.BodyScore,
			EngineScore:        checklist.EngineScore,
			InteriorScore:      checklist.InteriorScore,
			TiresScore:         checklist.TiresScore,
			ElectricalScore:    checklist.ElectricalScore,
			HasAccidentHistory: checklist.HasAccidentHistory,
			Notes:              checklist.Notes,
		})
	}
}

// EvaluationCalculate runs the valuation engine and persists the snapshot.
func EvaluationCalculate(svc EvaluationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluations service unavailable"))
			return
		}

		id, err := parseEvaluationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload calculatePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := evaluations.CalculateInput{ActorID: actorID}
		if payload.AdjustmentPercent != nil {
			pct, err := decimal.NewFromString(strings.TrimSpace(*payload.AdjustmentPercent))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid adjustment percent"))
				return
			}
			input.AdjustmentPercent = &pct
		}

		result, err := svc.CalculateValuation(ctx, id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// EvaluationSubmit moves a priced evaluation to pending approval.
func EvaluationSubmit(svc EvaluationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluations service unavailable"))
			return
		}

		id, err := parseEvaluationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		submitted, err := svc.Submit(ctx, id, actorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newEvaluationView(submitted))
	}
}

// EvaluationApprove approves a pending evaluation and opens its validity window.
func EvaluationApprove(svc EvaluationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluations service unavailable"))
			return
		}

		id, err := parseEvaluationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		approved, err := svc.Approve(ctx, id, evaluations.DecisionInput{ApproverID: actorID})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newEvaluationView(approved))
	}
}

// EvaluationReject rejects a pending evaluation with a mandatory reason.
func EvaluationReject(svc EvaluationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluations service unavailable"))
			return
		}

		id, err := parseEvaluationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload rejectPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rejected, err := svc.Reject(ctx, id, evaluations.DecisionInput{
			ApproverID: actorID,
			Reason:     validators.SanitizeString(payload.Reason, 512),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newEvaluationView(rejected))
	}
}

// EvaluationCancel abandons an active evaluation.
func EvaluationCancel(svc EvaluationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evaluations service unavailable"))
			return
		}

		id, err := parseEvaluationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actorID, err := parseActorID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		canceled, err := svc.Cancel(ctx, id, actorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newEvaluationView(canceled))
	}
}

func buildListFilters(r *http.Request) (evaluations.ListFilters, error) {
	filters := evaluations.ListFilters{
		Plate: validators.SanitizeString(r.URL.Query().Get("plate"), 10),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := enums.EvaluationStatus(strings.ToLower(raw))
		if !status.IsValid() {
			return evaluations.ListFilters{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown status filter").WithDetails(map[string]any{"status": raw})
		}
		filters.Status = &status
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("evaluator_id")); raw != "" {
		evaluatorID, err := uuid.Parse(raw)
		if err != nil {
			return evaluations.ListFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid evaluator id filter")
		}
		filters.EvaluatorID = &evaluatorID
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("date_from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return evaluations.ListFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date_from must be RFC3339")
		}
		filters.DateFrom = &from
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("date_to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return evaluations.ListFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date_to must be RFC3339")
		}
		filters.DateTo = &to
	}

	return filters, nil
}

func parseEvaluationID(r *http.Request) (uuid.UUID, error) {
	return parsePathUUID(r, "evaluationId", "evaluation id")
}

func parsePathUUID(r *http.Request, param, label string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, label+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+label)
	}
	return id, nil
}

func parseActorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ActorIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "actor context missing")
	}
	actorID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid actor id")
	}
	return actorID, nil
}
