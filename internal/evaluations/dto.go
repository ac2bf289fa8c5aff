package evaluations

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drivelane/appraisal-backend/pkg/enums"
)

// CreateDraftInput carries the data required to open a new evaluation.
type CreateDraftInput struct {
	Plate           string
	Brand           string
	Model           string
	YearManufacture int
	YearModel       int
	FuelType        enums.FuelType
	Color           string
	Mileage         int64
	Observations    *string
	EvaluatorID     uuid.UUID
}

// UpdateVehicleInput carries partial vehicle-data updates. Nil fields are
// left untouched.
type UpdateVehicleInput struct {
	Plate        *string
	Brand        *string
	Model        *string
	YearModel    *int
	FuelType     *enums.FuelType
	Color        *string
	Mileage      *int64
	Observations *string
	ActorID      uuid.UUID
}

// DepreciationItemInput carries one catalogued deduction.
type DepreciationItemInput struct {
	Category      string
	Description   string
	Amount        decimal.Decimal
	Justification string
	ActorID       uuid.UUID
}

// ChecklistInput carries the structured condition review.
type ChecklistInput struct {
	BodyScore          int
	EngineScore        int
	InteriorScore      int
	TiresScore         int
	ElectricalScore    int
	HasAccidentHistory bool
	Notes              *string
	ActorID            uuid.UUID
}

// CalculateInput identifies the actor and the optional manual adjustment.
type CalculateInput struct {
	AdjustmentPercent *decimal.Decimal
	ActorID           uuid.UUID
}

// DecisionInput identifies the manager acting on a pending evaluation.
type DecisionInput struct {
	ApproverID uuid.UUID
	Reason     string
}

// ListFilters describe the inputs supported by the evaluations list.
type ListFilters struct {
	Status      *enums.EvaluationStatus
	EvaluatorID *uuid.UUID
	Plate       string
	DateFrom    *time.Time
	DateTo      *time.Time
}

// EvaluationSummary is one row in the evaluations list.
type EvaluationSummary struct {
	ID          uuid.UUID              `json:"id"`
	Plate       string                 `json:"plate"`
	Brand       string                 `json:"brand"`
	Model       string                 `json:"model"`
	YearModel   int                    `json:"year_model"`
	Status      enums.EvaluationStatus `json:"status"`
	FinalValue  *decimal.Decimal       `json:"final_value,omitempty"`
	EvaluatorID uuid.UUID              `json:"evaluator_id"`
	CreatedAt   time.Time              `json:"created_at"`
}

// EvaluationList wraps the paginated evaluations plus the next page cursor.
type EvaluationList struct {
	Evaluations []EvaluationSummary `json:"evaluations"`
	NextCursor  string              `json:"next_cursor,omitempty"`
}

// ValidationResult is returned by the public token lookup.
type ValidationResult struct {
	EvaluationID  uuid.UUID              `json:"evaluation_id"`
	Plate         string                 `json:"plate"`
	Brand         string                 `json:"brand"`
	Model         string                 `json:"model"`
	YearModel     int                    `json:"year_model"`
	Status        enums.EvaluationStatus `json:"status"`
	ApprovedValue *decimal.Decimal       `json:"approved_value,omitempty"`
	ApprovedAt    *time.Time             `json:"approved_at,omitempty"`
	ValidUntil    *time.Time             `json:"valid_until,omitempty"`
	Valid         bool                   `json:"valid"`
}
