package valuation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
	"github.com/drivelane/appraisal-backend/pkg/money"
)

type stubPriceSource struct {
	price     *money.Value
	priceErr  error
	liquidity decimal.Decimal
	liqErr    error
}

func (s *stubPriceSource) FipePrice(ctx context.Context, q FipeQuery) (*money.Value, error) {
	return s.price, s.priceErr
}

func (s *stubPriceSource) LiquidityPercent(ctx context.Context, q LiquidityQuery) (decimal.Decimal, error) {
	return s.liquidity, s.liqErr
}

func fixedClock() time.Time {
	return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := NewConfig(
		decimal.NewFromInt(10),
		decimal.NewFromInt(15),
		decimal.NewFromInt(10),
		false,
	)
	require.NoError(t, err)
	return cfg
}

func testInput(evaluationID uuid.UUID, items ...DepreciationEntry) Input {
	return Input{
		EvaluationID: evaluationID,
		Vehicle: Vehicle{
			Brand:           "Fiat",
			Model:           "Argo",
			YearManufacture: 2020,
			YearModel:       2021,
		},
		Mileage: 45000,
		Items:   items,
	}
}

func newTestEngine(t *testing.T, source PriceSource) *Engine {
	t.Helper()
	engine, err := NewEngine(source, WithClock(fixedClock))
	require.NoError(t, err)
	return engine
}

func TestCalculateReferenceScenario(t *testing.T) {
	evalID := uuid.New()
	price := money.MustFromString("100.00")
	source := &stubPriceSource{price: &price, liquidity: decimal.RequireFromString("0.90")}
	engine := newTestEngine(t, source)

	item := DepreciationEntry{
		ID:           uuid.New(),
		EvaluationID: evalID,
		Category:     "BODY",
		Description:  "scratched rear door",
		Amount:       money.MustFromString("5.00"),
	}

	result, err := engine.Calculate(context.Background(), testInput(evalID, item), testConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "100.00", result.FipePrice.String())
	assert.Equal(t, "90.00", result.BaseValue.String())
	assert.Equal(t, "5.00", result.TotalDepreciation.String())
	assert.Equal(t, "10.00", result.SafetyMargin.String())
	assert.Equal(t, "15.00", result.ProfitMargin.String())
	assert.Equal(t, "110.00", result.SuggestedValue.String())
	assert.Equal(t, "110.00", result.FinalValue.String())
	assert.False(t, result.HasManualAdjustment())
	require.Len(t, result.Breakdown, 1)
	assert.Equal(t, item.ID, result.Breakdown[0].ItemID)
}

func TestCalculateNoItemsYieldsZeroDepreciation(t *testing.T) {
	evalID := uuid.New()
	price := money.MustFromString("100.00")
	source := &stubPriceSource{price: &price, liquidity: decimal.RequireFromString("0.90")}
	engine := newTestEngine(t, source)

	result, err := engine.Calculate(context.Background(), testInput(evalID), testConfig(t))
	require.NoError(t, err)
	assert.True(t, result.TotalDepreciation.IsZero())
	assert.Equal(t, "115.00", result.SuggestedValue.String())
	assert.Empty(t, result.Breakdown)
}

func TestCalculateIsDeterministic(t *testing.T) {
	evalID := uuid.New()
	price := money.MustFromString("43210.87")
	source := &stubPriceSource{price: &price, liquidity: decimal.RequireFromString("0.8500")}
	engine := newTestEngine(t, source)

	item := DepreciationEntry{
		ID:           uuid.New(),
		EvaluationID: evalID,
		Category:     "TIRES",
		Description:  "worn tires",
		Amount:       money.MustFromString("1234.56"),
	}
	input := testInput(evalID, item)
	cfg := testConfig(t)

	first, err := engine.Calculate(context.Background(), input, cfg)
	require.NoError(t, err)
	second, err := engine.Calculate(context.Background(), input, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculatePriceAbsent(t *testing.T) {
	source := &stubPriceSource{price: nil, liquidity: decimal.RequireFromString("0.5")}
	engine := newTestEngine(t, source)

	_, err := engine.Calculate(context.Background(), testInput(uuid.New()), testConfig(t))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodePriceUnavailable, pkgerrors.As(err).Code())
}

func TestCalculatePriceLookupFailure(t *testing.T) {
	source := &stubPriceSource{priceErr: errors.New("timeout")}
	engine := newTestEngine(t, source)

	_, err := engine.Calculate(context.Background(), testInput(uuid.New()), testConfig(t))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}

func TestCalculateLiquidityOutOfRange(t *testing.T) {
	price := money.MustFromString("100.00")
	for _, raw := range []string{"-0.01", "1.01", "2"} {
		source := &stubPriceSource{price: &price, liquidity: decimal.RequireFromString(raw)}
		engine := newTestEngine(t, source)

		_, err := engine.Calculate(context.Background(), testInput(uuid.New()), testConfig(t))
		require.Error(t, err, raw)
		assert.Equal(t, pkgerrors.CodeInvalidLiquidity, pkgerrors.As(err).Code(), raw)
	}
}

func TestCalculateBoundaryLiquidityAccepted(t *testing.T) {
	price := money.MustFromString("100.00")
	for _, raw := range []string{"0", "1"} {
		source := &stubPriceSource{price: &price, liquidity: decimal.RequireFromString(raw)}
		engine := newTestEngine(t, source)

		_, err := engine.Calculate(context.Background(), testInput(uuid.New()), testConfig(t))
		require.NoError(t, err, raw)
	}
}

func TestCalculateDepreciationExceedsValue(t *testing.T) {
	evalID := uuid.New()
	price := money.MustFromString("100.00")
	source := &stubPriceSource{price: &price, liquidity: decimal.RequireFromString("0.90")}
	engine := newTestEngine(t, source)

	item := DepreciationEntry{
		ID:           uuid.New(),
		EvaluationID: evalID,
		Category:     "ENGINE",
		Description:  "engine seized",
		Amount:       money.MustFromString("115.01"), // base 90 + margins 25 = 115
	}

	_, err := engine.Calculate(context.Background(), testInput(evalID, item), testConfig(t))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidAmount, pkgerrors.As(err).Code())
}

func TestCalculateRejectsForeignItems(t *testing.T) {
	price := money.MustFromString("100.00")
	source := &stubPriceSource{price: &price, liquidity: decimal.RequireFromString("0.90")}
	engine := newTestEngine(t, source)

	item := DepreciationEntry{
		ID:           uuid.New(),
		EvaluationID: uuid.New(), // different owner
		Category:     "BODY",
		Description:  "dent",
		Amount:       money.MustFromString("1.00"),
	}

	_, err := engine.Calculate(context.Background(), testInput(uuid.New(), item), testConfig(t))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestAdjustmentWithinBounds(t *testing.T) {
	evalID := uuid.New()
	price := money.MustFromString("100.00")
	source := &stubPriceSource{price: &price, liquidity: decimal.RequireFromString("0.90")}
	engine := newTestEngine(t, source)

	item := DepreciationEntry{
		ID:           uuid.New(),
		EvaluationID: evalID,
		Category:     "BODY",
		Description:  "scratch",
		Amount:       money.MustFromString("5.00"),
	}
	pct := decimal.NewFromInt(5)

	result, err := engine.CalculateWithAdjustment(context.Background(), testInput(evalID, item), testConfig(t), &pct)
	require.NoError(t, err)

	assert.Equal(t, "110.00", result.SuggestedValue.String())
	assert.Equal(t, "115.50", result.FinalValue.String())
	require.True(t, result.HasManualAdjustment())
	assert.Equal(t, "5.50", result.ManualAdjustmentAmount.String())
	assert.Equal(t, "5", result.ManualAdjustmentPercent.String())
}

func TestAdjustmentNegativePercentage(t *testing.T) {
	evalID := uuid.New()
	price := money.MustFromString("100.00")
	source := &stubPriceSource{price: &price, liquidity: decimal.RequireFromString("0.90")}
	engine := newTestEngine(t, source)

	pct := decimal.NewFromInt(-5)
	result, err := engine.CalculateWithAdjustment(context.Background(), testInput(evalID), testConfig(t), &pct)
	require.NoError(t, err)

	// No items: suggested 115.00, adjusted down 5%.
	assert.Equal(t, "115.00", result.SuggestedValue.String())
	assert.Equal(t, "109.25", result.FinalValue.String())
	assert.Equal(t, "-5.75", result.ManualAdjustmentAmount.String())
	assert.True(t, result.ManualAdjustmentAmount.IsNegative())
}

func TestAdjustmentOutOfBounds(t *testing.T) {
	price := money.MustFromString("100.00")
	source := &stubPriceSource{price: &price, liquidity: decimal.RequireFromString("0.90")}
	engine := newTestEngine(t, source)

	for _, raw := range []string{"15", "-15", "10.01"} {
		pct := decimal.RequireFromString(raw)
		_, err := engine.CalculateWithAdjustment(context.Background(), testInput(uuid.New()), testConfig(t), &pct)
		require.Error(t, err, raw)
		typed := pkgerrors.As(err)
		assert.Equal(t, pkgerrors.CodeAdjustmentOutOfBounds, typed.Code(), raw)
		details, ok := typed.Details().(map[string]any)
		require.True(t, ok)
		assert.Equal(t, raw, details["requested_percent"])
		assert.Equal(t, "10", details["allowed_percent"])
	}
}

func TestAdjustmentNilDelegates(t *testing.T) {
	evalID := uuid.New()
	price := money.MustFromString("100.00")
	source := &stubPriceSource{price: &price, liquidity: decimal.RequireFromString("0.90")}
	engine := newTestEngine(t, source)

	result, err := engine.CalculateWithAdjustment(context.Background(), testInput(evalID), testConfig(t), nil)
	require.NoError(t, err)
	assert.False(t, result.HasManualAdjustment())
	assert.True(t, result.FinalValue.Equal(result.SuggestedValue))
}
