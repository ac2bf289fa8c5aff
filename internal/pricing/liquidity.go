package pricing

import "github.com/shopspring/decimal"

// liquidityBand maps a vehicle age range to the share of the FIPE
// reference price the market realistically pays at resale.
type liquidityBand struct {
	maxAgeYears int
	percent     decimal.Decimal
}

var liquidityBands = []liquidityBand{
	{maxAgeYears: 2, percent: decimal.RequireFromString("0.95")},
	{maxAgeYears: 5, percent: decimal.RequireFromString("0.90")},
	{maxAgeYears: 8, percent: decimal.RequireFromString("0.85")},
	{maxAgeYears: 12, percent: decimal.RequireFromString("0.78")},
}

// Vehicles older than the last band.
var liquidityFloor = decimal.RequireFromString("0.70")

// liquidityForAge returns the banded liquidity percentage for a
// vehicle age in years. Always within [0,1].
func liquidityForAge(ageYears int) decimal.Decimal {
	if ageYears < 0 {
		ageYears = 0
	}
	for _, band := range liquidityBands {
		if ageYears <= band.maxAgeYears {
			return band.percent
		}
	}
	return liquidityFloor
}
