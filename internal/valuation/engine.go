package valuation

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
	"github.com/drivelane/appraisal-backend/pkg/money"
)

const adjustmentFactorScale = 4

var (
	one        = decimal.NewFromInt(1)
	oneHundred = decimal.NewFromInt(100)
)

// Engine computes valuations. It is pure: the only side effect is the
// blocking call into the pricing collaborator, which callers should bound
// with their own context deadline.
type Engine struct {
	prices PriceSource
	now    func() time.Time
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithClock overrides the clock used to derive vehicle age.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an engine bound to the given pricing collaborator.
func NewEngine(prices PriceSource, opts ...EngineOption) (*Engine, error) {
	if prices == nil {
		return nil, errors.New("price source is required")
	}
	e := &Engine{prices: prices, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Calculate runs the full valuation for the input under the given config.
// The steps run in a fixed order so two runs over the same inputs produce
// bit-identical results.
func (e *Engine) Calculate(ctx context.Context, input Input, cfg Config) (*Result, error) {
	if err := validateItems(input); err != nil {
		return nil, err
	}

	fipePrice, err := e.lookupFipePrice(ctx, input)
	if err != nil {
		return nil, err
	}

	liquidity, err := e.lookupLiquidity(ctx, input)
	if err != nil {
		return nil, err
	}

	baseValue, err := fipePrice.Mul(liquidity)
	if err != nil {
		return nil, err
	}

	totalDepreciation := money.Zero()
	breakdown := make([]ItemBreakdown, 0, len(input.Items))
	for _, item := range input.Items {
		totalDepreciation = totalDepreciation.Add(item.Amount)
		breakdown = append(breakdown, ItemBreakdown{
			ItemID:      item.ID,
			Category:    item.Category,
			Description: item.Description,
			Amount:      item.Amount,
		})
	}

	// Margins are percentages of the FIPE reference price, not of the
	// liquidity-discounted base. Intentional: margins stay independent of
	// condition-based deductions.
	safetyMargin := fipePrice.Percent(cfg.SafetyMarginPercent())
	profitMargin := fipePrice.Percent(cfg.ProfitMarginPercent())

	gross := baseValue.Add(safetyMargin).Add(profitMargin)
	suggested, err := gross.Sub(totalDepreciation)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidAmount, err, "depreciation total exceeds achievable vehicle value").
			WithDetails(map[string]any{
				"total_depreciation": totalDepreciation.String(),
				"achievable_value":   gross.String(),
			})
	}

	return &Result{
		FipePrice:         fipePrice,
		LiquidityPercent:  liquidity,
		BaseValue:         baseValue,
		TotalDepreciation: totalDepreciation,
		SafetyMargin:      safetyMargin,
		ProfitMargin:      profitMargin,
		SuggestedValue:    suggested,
		FinalValue:        suggested,
		Breakdown:         breakdown,
	}, nil
}

// CalculateWithAdjustment runs Calculate and applies a bounded manual
// adjustment on top. A nil percentage delegates unchanged. The arithmetic
// runs unconditionally even when the config demands manager approval;
// enforcing who may finalize an adjusted value is the caller's concern.
func (e *Engine) CalculateWithAdjustment(ctx context.Context, input Input, cfg Config, pct *decimal.Decimal) (*Result, error) {
	if pct == nil {
		return e.Calculate(ctx, input, cfg)
	}

	if pct.Abs().GreaterThan(cfg.MaxManualAdjustmentPercent()) {
		return nil, pkgerrors.New(pkgerrors.CodeAdjustmentOutOfBounds, "manual adjustment exceeds configured limit").
			WithDetails(map[string]any{
				"requested_percent": pct.String(),
				"allowed_percent":   cfg.MaxManualAdjustmentPercent().String(),
			})
	}

	result, err := e.Calculate(ctx, input, cfg)
	if err != nil {
		return nil, err
	}

	factor := one.Add(pct.DivRound(oneHundred, adjustmentFactorScale))
	adjusted, err := result.SuggestedValue.Mul(factor)
	if err != nil {
		return nil, err
	}

	delta := money.DeltaBetween(adjusted, result.SuggestedValue)
	pctCopy := *pct
	result.FinalValue = adjusted
	result.ManualAdjustmentPercent = &pctCopy
	result.ManualAdjustmentAmount = &delta
	return result, nil
}

func validateItems(input Input) error {
	for _, item := range input.Items {
		if item.EvaluationID != input.EvaluationID {
			return pkgerrors.New(pkgerrors.CodeValidation, "depreciation item belongs to a different evaluation").
				WithDetails(map[string]any{
					"item_id":       item.ID.String(),
					"item_owner":    item.EvaluationID.String(),
					"evaluation_id": input.EvaluationID.String(),
				})
		}
	}
	return nil
}

func (e *Engine) lookupFipePrice(ctx context.Context, input Input) (money.Value, error) {
	price, err := e.prices.FipePrice(ctx, FipeQuery{
		Brand:     input.Vehicle.Brand,
		Model:     input.Vehicle.Model,
		YearModel: input.Vehicle.YearModel,
		FuelType:  input.Vehicle.FuelType,
	})
	if err != nil {
		return money.Value{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fipe price lookup failed")
	}
	if price == nil {
		return money.Value{}, pkgerrors.New(pkgerrors.CodePriceUnavailable, "no fipe price for vehicle").
			WithDetails(map[string]any{
				"brand":      input.Vehicle.Brand,
				"model":      input.Vehicle.Model,
				"year_model": input.Vehicle.YearModel,
				"fuel_type":  input.Vehicle.FuelType.String(),
			})
	}
	return *price, nil
}

func (e *Engine) lookupLiquidity(ctx context.Context, input Input) (decimal.Decimal, error) {
	age := e.now().Year() - input.Vehicle.YearManufacture
	if age < 0 {
		age = 0
	}
	liquidity, err := e.prices.LiquidityPercent(ctx, LiquidityQuery{
		Brand:    input.Vehicle.Brand,
		Model:    input.Vehicle.Model,
		AgeYears: age,
	})
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "liquidity lookup failed")
	}
	if liquidity.IsNegative() || liquidity.GreaterThan(one) {
		// Contract breach, never clamped here: a source feeding liquidity
		// outside [0,1] has to be fixed, not worked around.
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeInvalidLiquidity, "liquidity percentage outside [0,1]").
			WithDetails(map[string]any{"liquidity": liquidity.String()})
	}
	return liquidity, nil
}
