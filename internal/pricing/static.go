package pricing

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/drivelane/appraisal-backend/internal/valuation"
	"github.com/drivelane/appraisal-backend/pkg/money"
)

// StaticSource is an in-memory PriceSource backed by a fixed table.
// Useful for tests and local environments without FIPE access.
type StaticSource struct {
	mu     sync.RWMutex
	prices map[string]money.Value
}

// NewStaticSource returns an empty table. Each source owns its own
// entries; there is no shared registry.
func NewStaticSource() *StaticSource {
	return &StaticSource{prices: make(map[string]money.Value)}
}

// SetPrice registers a price for the brand/model/year combination.
func (s *StaticSource) SetPrice(brand, model string, yearModel int, price money.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[staticKey(brand, model, yearModel)] = price
}

// FipePrice returns the registered price, or nil when the combination
// has no entry.
func (s *StaticSource) FipePrice(ctx context.Context, q valuation.FipeQuery) (*money.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.prices[staticKey(q.Brand, q.Model, q.YearModel)]
	if !ok {
		return nil, nil
	}
	return &price, nil
}

// LiquidityPercent applies the same age-banded table the live source uses.
func (s *StaticSource) LiquidityPercent(ctx context.Context, q valuation.LiquidityQuery) (decimal.Decimal, error) {
	return liquidityForAge(q.AgeYears), nil
}

func staticKey(brand, model string, yearModel int) string {
	return strings.ToLower(strings.Join([]string{brand, model, strconv.Itoa(yearModel)}, "|"))
}
