package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drivelane/appraisal-backend/pkg/enums"
)

// Evaluation is the aggregate root for a single vehicle appraisal. Monetary
// columns hold the latest valuation snapshot; the status column gates every
// mutation through the lifecycle predicates in pkg/enums.
type Evaluation struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`

	// Vehicle identity.
	Plate           string         `gorm:"column:plate;type:varchar(10);not null;index"`
	Brand           string         `gorm:"column:brand;not null"`
	Model           string         `gorm:"column:model;not null"`
	YearManufacture int            `gorm:"column:year_manufacture;not null"`
	YearModel       int            `gorm:"column:year_model;not null"`
	FuelType        enums.FuelType `gorm:"column:fuel_type;type:text;not null"`
	Color           string         `gorm:"column:color"`
	Mileage         int64          `gorm:"column:mileage;not null;default:0"`

	Status enums.EvaluationStatus `gorm:"column:status;type:text;not null;default:'draft';index"`

	// Latest valuation snapshot. Null until the first calculation runs.
	FipePrice               *decimal.Decimal `gorm:"column:fipe_price;type:numeric(14,2)"`
	BaseValue               *decimal.Decimal `gorm:"column:base_value;type:numeric(14,2)"`
	SuggestedValue          *decimal.Decimal `gorm:"column:suggested_value;type:numeric(14,2)"`
	FinalValue              *decimal.Decimal `gorm:"column:final_value;type:numeric(14,2)"`
	ApprovedValue           *decimal.Decimal `gorm:"column:approved_value;type:numeric(14,2)"`
	LiquidityPercent        *decimal.Decimal `gorm:"column:liquidity_percent;type:numeric(5,4)"`
	ManualAdjustmentPercent *decimal.Decimal `gorm:"column:manual_adjustment_percent;type:numeric(6,2)"`
	ManualAdjustmentAmount  *decimal.Decimal `gorm:"column:manual_adjustment_amount;type:numeric(14,2)"`

	Observations    *string `gorm:"column:observations"`
	RejectionReason *string `gorm:"column:rejection_reason"`

	EvaluatorID uuid.UUID  `gorm:"column:evaluator_id;type:uuid;not null;index"`
	ApproverID  *uuid.UUID `gorm:"column:approver_id;type:uuid"`

	SubmittedAt     *time.Time `gorm:"column:submitted_at"`
	ApprovedAt      *time.Time `gorm:"column:approved_at"`
	ValidUntil      *time.Time `gorm:"column:valid_until;index"`
	ValidationToken *uuid.UUID `gorm:"column:validation_token;type:uuid;uniqueIndex"`

	DepreciationItems []DepreciationItem   `gorm:"foreignKey:EvaluationID;constraint:OnDelete:CASCADE"`
	Photos            []EvaluationPhoto    `gorm:"foreignKey:EvaluationID;constraint:OnDelete:CASCADE"`
	Checklist         *EvaluationChecklist `gorm:"foreignKey:EvaluationID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// VehicleAge returns the age in years relative to the given reference year.
func (e Evaluation) VehicleAge(referenceYear int) int {
	age := referenceYear - e.YearManufacture
	if age < 0 {
		return 0
	}
	return age
}
