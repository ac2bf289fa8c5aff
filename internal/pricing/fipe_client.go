package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/drivelane/appraisal-backend/internal/valuation"
	"github.com/drivelane/appraisal-backend/pkg/config"
	"github.com/drivelane/appraisal-backend/pkg/enums"
	"github.com/drivelane/appraisal-backend/pkg/logger"
	"github.com/drivelane/appraisal-backend/pkg/money"
)

const vehicleTypeCars = "carros"

// Cache is the read-through surface the client needs; satisfied by
// pkg/redis.Client.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

// FipeClient resolves reference prices from the public FIPE table.
// Lookups walk brand -> model -> year code, so results are cached
// aggressively: the table only changes once a month.
type FipeClient struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
	logger     *logger.Logger
}

// FipeClientParams collects the dependencies for NewFipeClient.
type FipeClientParams struct {
	Config     config.PricingConfig
	HTTPClient *http.Client
	Cache      Cache
	Logger     *logger.Logger
}

func NewFipeClient(params FipeClientParams) (*FipeClient, error) {
	if params.Config.FipeBaseURL == "" {
		return nil, errors.New("pricing: fipe base url is required")
	}
	if params.Logger == nil {
		return nil, errors.New("pricing: logger is required")
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: params.Config.RequestTimeout}
	}
	return &FipeClient{
		baseURL:    strings.TrimRight(params.Config.FipeBaseURL, "/"),
		httpClient: httpClient,
		cache:      params.Cache,
		cacheTTL:   params.Config.CacheTTL,
		logger:     params.Logger,
	}, nil
}

type fipeBrand struct {
	Name string `json:"nome"`
	Code string `json:"codigo"`
}

type fipeModel struct {
	Name string          `json:"nome"`
	Code json.RawMessage `json:"codigo"` // number for models, string for brands
}

type fipeModelsResponse struct {
	Models []fipeModel `json:"modelos"`
}

type fipePriceResponse struct {
	Value     string `json:"valor"`
	Brand     string `json:"marca"`
	Model     string `json:"modelo"`
	YearModel int    `json:"anoModelo"`
	Fuel      string `json:"combustivel"`
	FipeCode  string `json:"codigoFipe"`
	RefMonth  string `json:"mesReferencia"`
}

// FipePrice resolves the FIPE value for the queried vehicle. A nil
// result means the table has no entry for that combination; errors are
// transport or contract failures.
func (c *FipeClient) FipePrice(ctx context.Context, q valuation.FipeQuery) (*money.Value, error) {
	if q.Brand == "" || q.Model == "" || q.YearModel == 0 {
		return nil, errors.New("pricing: brand, model and year are required")
	}

	cacheKey := ""
	if c.cache != nil {
		cacheKey = c.cache.CacheKey("fipe", normalize(q.Brand), normalize(q.Model),
			fmt.Sprintf("%d-%s", q.YearModel, q.FuelType))
		if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
			return decodeCachedPrice(cached)
		} else if !errors.Is(err, goredis.Nil) {
			c.logger.Warn(c.logger.WithField(ctx, "error", err.Error()), "fipe cache read failed, falling through to API")
		}
	}

	price, err := c.lookup(ctx, q)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && cacheKey != "" {
		if err := c.cache.Set(ctx, cacheKey, encodeCachedPrice(price), c.cacheTTL); err != nil {
			c.logger.Warn(c.logger.WithField(ctx, "error", err.Error()), "fipe cache write failed")
		}
	}
	return price, nil
}

// LiquidityPercent derives liquidity from the vehicle's age band.
func (c *FipeClient) LiquidityPercent(ctx context.Context, q valuation.LiquidityQuery) (decimal.Decimal, error) {
	return liquidityForAge(q.AgeYears), nil
}

func (c *FipeClient) lookup(ctx context.Context, q valuation.FipeQuery) (*money.Value, error) {
	brandCode, err := c.resolveBrand(ctx, q.Brand)
	if err != nil {
		return nil, err
	}
	if brandCode == "" {
		return nil, nil
	}
	modelCode, err := c.resolveModel(ctx, brandCode, q.Model)
	if err != nil {
		return nil, err
	}
	if modelCode == "" {
		return nil, nil
	}

	yearCode := fmt.Sprintf("%d-%d", q.YearModel, fipeFuelCode(q.FuelType))
	path := fmt.Sprintf("/%s/marcas/%s/modelos/%s/anos/%s",
		vehicleTypeCars, url.PathEscape(brandCode), url.PathEscape(modelCode), url.PathEscape(yearCode))

	var resp fipePriceResponse
	found, err := c.getJSON(ctx, path, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	value, err := parseBRL(resp.Value)
	if err != nil {
		return nil, fmt.Errorf("pricing: parsing fipe value %q: %w", resp.Value, err)
	}
	return &value, nil
}

func (c *FipeClient) resolveBrand(ctx context.Context, brand string) (string, error) {
	var brands []fipeBrand
	found, err := c.getJSON(ctx, fmt.Sprintf("/%s/marcas", vehicleTypeCars), &brands)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	want := normalize(brand)
	for _, b := range brands {
		if normalize(b.Name) == want {
			return b.Code, nil
		}
	}
	// Fall back to prefix match: FIPE names carry suffixes like "GM - Chevrolet".
	for _, b := range brands {
		if strings.Contains(normalize(b.Name), want) {
			return b.Code, nil
		}
	}
	return "", nil
}

func (c *FipeClient) resolveModel(ctx context.Context, brandCode, model string) (string, error) {
	var resp fipeModelsResponse
	found, err := c.getJSON(ctx, fmt.Sprintf("/%s/marcas/%s/modelos", vehicleTypeCars, url.PathEscape(brandCode)), &resp)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	want := normalize(model)
	for _, m := range resp.Models {
		if strings.HasPrefix(normalize(m.Name), want) {
			return rawCodeString(m.Code), nil
		}
	}
	return "", nil
}

// getJSON performs a GET and decodes the body. Returns found=false on 404.
func (c *FipeClient) getJSON(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("pricing: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("pricing: fipe request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return false, nil
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("pricing: fipe returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("pricing: decoding fipe response: %w", err)
	}
	return true, nil
}

// fipeFuelCode maps fuel classification onto FIPE year-code suffixes.
// Flex and electrified vehicles are listed under the gasoline suffix.
func fipeFuelCode(fuel enums.FuelType) int {
	switch fuel {
	case enums.FuelTypeEthanol:
		return 2
	case enums.FuelTypeDiesel:
		return 3
	default:
		return 1
	}
}

// parseBRL converts "R$ 33.000,00" into a monetary value.
func parseBRL(raw string) (money.Value, error) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "R$"))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return money.FromString(s)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rawCodeString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	return strings.Trim(s, `"`)
}

const absentSentinel = "__absent__"

func encodeCachedPrice(price *money.Value) string {
	if price == nil {
		return absentSentinel
	}
	return price.String()
}

func decodeCachedPrice(cached string) (*money.Value, error) {
	if cached == absentSentinel {
		return nil, nil
	}
	value, err := money.FromString(cached)
	if err != nil {
		return nil, fmt.Errorf("pricing: corrupt cache entry %q: %w", cached, err)
	}
	return &value, nil
}
