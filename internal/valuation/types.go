package valuation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/drivelane/appraisal-backend/pkg/enums"
	"github.com/drivelane/appraisal-backend/pkg/money"
)

// FipeQuery identifies a vehicle in the FIPE reference table.
type FipeQuery struct {
	Brand     string
	Model     string
	YearModel int
	FuelType  enums.FuelType
}

// LiquidityQuery identifies the market-liquidity lookup for a vehicle.
type LiquidityQuery struct {
	Brand    string
	Model    string
	AgeYears int
}

// PriceSource is the pricing collaborator the engine consults. A nil price
// with a nil error means the table has no entry for the vehicle; absence is
// an expected outcome, not an error.
type PriceSource interface {
	FipePrice(ctx context.Context, q FipeQuery) (*money.Value, error)
	LiquidityPercent(ctx context.Context, q LiquidityQuery) (decimal.Decimal, error)
}

// Vehicle is the slice of vehicle identity the calculation needs.
type Vehicle struct {
	Brand           string
	Model           string
	YearManufacture int
	YearModel       int
	FuelType        enums.FuelType
}

// DepreciationEntry is one deduction feeding the calculation.
type DepreciationEntry struct {
	ID           uuid.UUID
	EvaluationID uuid.UUID
	Category     string
	Description  string
	Amount       money.Value
}

// Input is everything the engine reads from the aggregate. It is a plain
// value so the engine stays decoupled from persistence models.
type Input struct {
	EvaluationID uuid.UUID
	Vehicle      Vehicle
	Mileage      int64
	Items        []DepreciationEntry
}

// ItemBreakdown echoes one deduction inside a Result for auditability.
type ItemBreakdown struct {
	ItemID      uuid.UUID   `json:"item_id"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Amount      money.Value `json:"amount"`
}

// Result is the complete outcome of one calculation. Results are built fresh
// on every run and never mutated; recalculating replaces the whole snapshot.
// No timestamp lives here so identical inputs produce identical results.
type Result struct {
	FipePrice         money.Value     `json:"fipe_price"`
	LiquidityPercent  decimal.Decimal `json:"liquidity_percent"`
	BaseValue         money.Value     `json:"base_value"`
	TotalDepreciation money.Value     `json:"total_depreciation"`
	SafetyMargin      money.Value     `json:"safety_margin"`
	ProfitMargin      money.Value     `json:"profit_margin"`
	SuggestedValue    money.Value     `json:"suggested_value"`
	FinalValue        money.Value     `json:"final_value"`

	ManualAdjustmentPercent *decimal.Decimal `json:"manual_adjustment_percent,omitempty"`
	ManualAdjustmentAmount  *money.Delta     `json:"manual_adjustment_amount,omitempty"`

	Breakdown []ItemBreakdown `json:"breakdown"`
}

// HasManualAdjustment reports whether an adjustment was applied.
func (r Result) HasManualAdjustment() bool {
	return r.ManualAdjustmentPercent != nil
}
