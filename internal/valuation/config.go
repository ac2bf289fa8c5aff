package valuation

import (
	"strings"

	"github.com/shopspring/decimal"

	appcfg "github.com/drivelane/appraisal-backend/pkg/config"
	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
)

var maxAdjustmentCeiling = decimal.NewFromInt(100)

// Config carries the margin and threshold parameters a single calculation
// uses. All fields are mandatory; construct through NewConfig so a partially
// built Config can never reach the engine.
type Config struct {
	safetyMarginPercent        decimal.Decimal
	profitMarginPercent        decimal.Decimal
	maxManualAdjustmentPercent decimal.Decimal
	requireManagerApproval     bool
}

// NewConfig validates and builds an immutable Config.
func NewConfig(safetyPct, profitPct, maxAdjustmentPct decimal.Decimal, requireManagerApproval bool) (Config, error) {
	if safetyPct.IsNegative() {
		return Config{}, pkgerrors.New(pkgerrors.CodeValidation, "safety margin percentage cannot be negative").
			WithDetails(map[string]any{"safety_margin_percent": safetyPct.String()})
	}
	if profitPct.IsNegative() {
		return Config{}, pkgerrors.New(pkgerrors.CodeValidation, "profit margin percentage cannot be negative").
			WithDetails(map[string]any{"profit_margin_percent": profitPct.String()})
	}
	if maxAdjustmentPct.IsNegative() || maxAdjustmentPct.GreaterThan(maxAdjustmentCeiling) {
		return Config{}, pkgerrors.New(pkgerrors.CodeValidation, "max manual adjustment percentage must lie in [0,100]").
			WithDetails(map[string]any{"max_manual_adjustment_percent": maxAdjustmentPct.String()})
	}
	return Config{
		safetyMarginPercent:        safetyPct,
		profitMarginPercent:        profitPct,
		maxManualAdjustmentPercent: maxAdjustmentPct,
		requireManagerApproval:     requireManagerApproval,
	}, nil
}

// ConfigFromEnv parses the tenant-wide defaults from the application config.
// Empty fields are construction errors, not silent defaults.
func ConfigFromEnv(cfg appcfg.ValuationConfig) (Config, error) {
	safety, err := parsePercent("safety margin", cfg.SafetyMarginPercent)
	if err != nil {
		return Config{}, err
	}
	profit, err := parsePercent("profit margin", cfg.ProfitMarginPercent)
	if err != nil {
		return Config{}, err
	}
	maxAdj, err := parsePercent("max manual adjustment", cfg.MaxManualAdjustmentPct)
	if err != nil {
		return Config{}, err
	}
	return NewConfig(safety, profit, maxAdj, cfg.RequireManagerApproval)
}

func parsePercent(name, raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, name+" percentage is required")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, name+" percentage is not a valid decimal").
			WithDetails(map[string]any{"value": raw})
	}
	return d, nil
}

// SafetyMarginPercent returns the safety margin percentage.
func (c Config) SafetyMarginPercent() decimal.Decimal { return c.safetyMarginPercent }

// ProfitMarginPercent returns the profit margin percentage.
func (c Config) ProfitMarginPercent() decimal.Decimal { return c.profitMarginPercent }

// MaxManualAdjustmentPercent returns the adjustment bound.
func (c Config) MaxManualAdjustmentPercent() decimal.Decimal { return c.maxManualAdjustmentPercent }

// RequireManagerApproval reports whether adjusted values need a manager to
// finalize. The engine computes regardless; enforcement sits with the caller.
func (c Config) RequireManagerApproval() bool { return c.requireManagerApproval }
