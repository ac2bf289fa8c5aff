package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivelane/appraisal-backend/internal/valuation"
	"github.com/drivelane/appraisal-backend/pkg/config"
	"github.com/drivelane/appraisal-backend/pkg/enums"
	"github.com/drivelane/appraisal-backend/pkg/logger"
	"github.com/drivelane/appraisal-backend/pkg/money"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	m.sets++
	return nil
}

func (m *memoryCache) CacheKey(parts ...string) string {
	return "appraisal:cache:" + strings.Join(parts, ":")
}

func newFipeTestServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/carros/marcas", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`[{"nome":"Fiat","codigo":"21"},{"nome":"GM - Chevrolet","codigo":"23"}]`))
	})
	mux.HandleFunc("/carros/marcas/21/modelos", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"modelos":[{"nome":"ARGO 1.0 Flex","codigo":7940},{"nome":"MOBI Like 1.0","codigo":7891}]}`))
	})
	mux.HandleFunc("/carros/marcas/21/modelos/7940/anos/2021-1", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"valor":"R$ 61.234,00","marca":"Fiat","modelo":"ARGO 1.0","anoModelo":2021,"combustivel":"Gasolina","codigoFipe":"001267-0","mesReferencia":"agosto de 2026"}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux), &hits
}

func newTestClient(t *testing.T, baseURL string, cache Cache) *FipeClient {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "pricing-test", Level: logger.ParseLevel("error")})
	client, err := NewFipeClient(FipeClientParams{
		Config: config.PricingConfig{
			FipeBaseURL:    baseURL,
			RequestTimeout: 5 * time.Second,
			CacheTTL:       time.Hour,
		},
		Cache:  cache,
		Logger: logg,
	})
	require.NoError(t, err)
	return client
}

func argoQuery() valuation.FipeQuery {
	return valuation.FipeQuery{
		Brand:     "Fiat",
		Model:     "Argo",
		YearModel: 2021,
		FuelType:  enums.FuelTypeFlex,
	}
}

func TestFipePriceResolvesThroughAPI(t *testing.T) {
	server, _ := newFipeTestServer(t)
	defer server.Close()

	client := newTestClient(t, server.URL, newMemoryCache())
	price, err := client.FipePrice(context.Background(), argoQuery())
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, "61234.00", price.String())
}

func TestFipePriceServesFromCache(t *testing.T) {
	server, hits := newFipeTestServer(t)
	defer server.Close()

	cache := newMemoryCache()
	client := newTestClient(t, server.URL, cache)

	_, err := client.FipePrice(context.Background(), argoQuery())
	require.NoError(t, err)
	apiHits := *hits
	require.Equal(t, 1, cache.sets)

	price, err := client.FipePrice(context.Background(), argoQuery())
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, "61234.00", price.String())
	assert.Equal(t, apiHits, *hits, "second lookup must not hit the API")
}

func TestFipePriceUnknownModelIsAbsent(t *testing.T) {
	server, _ := newFipeTestServer(t)
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	q := argoQuery()
	q.Model = "Uno"
	price, err := client.FipePrice(context.Background(), q)
	require.NoError(t, err)
	assert.Nil(t, price)
}

func TestFipePriceUnknownBrandIsAbsent(t *testing.T) {
	server, _ := newFipeTestServer(t)
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	q := argoQuery()
	q.Brand = "Tesla"
	price, err := client.FipePrice(context.Background(), q)
	require.NoError(t, err)
	assert.Nil(t, price)
}

func TestFipePriceBrandSuffixMatch(t *testing.T) {
	server, _ := newFipeTestServer(t)
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	q := argoQuery()
	q.Brand = "Chevrolet"
	// Brand resolves via contains-match but the model list 404s, so absent.
	price, err := client.FipePrice(context.Background(), q)
	require.NoError(t, err)
	assert.Nil(t, price)
}

func TestFipePriceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	_, err := client.FipePrice(context.Background(), argoQuery())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestFipePriceCachesAbsence(t *testing.T) {
	server, hits := newFipeTestServer(t)
	defer server.Close()

	cache := newMemoryCache()
	client := newTestClient(t, server.URL, cache)
	q := argoQuery()
	q.Model = "Uno"

	price, err := client.FipePrice(context.Background(), q)
	require.NoError(t, err)
	require.Nil(t, price)
	apiHits := *hits

	price, err = client.FipePrice(context.Background(), q)
	require.NoError(t, err)
	assert.Nil(t, price)
	assert.Equal(t, apiHits, *hits)
}

func TestParseBRL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"R$ 33.000,00", "33000.00"},
		{"R$ 1.234.567,89", "1234567.89"},
		{"R$ 950,50", "950.50"},
	}
	for _, tc := range tests {
		got, err := parseBRL(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got.String(), tc.raw)
	}

	_, err := parseBRL("R$ abc")
	require.Error(t, err)
}

func TestLiquidityBands(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{0, "0.95"},
		{2, "0.95"},
		{3, "0.9"},
		{5, "0.9"},
		{6, "0.85"},
		{8, "0.85"},
		{9, "0.78"},
		{12, "0.78"},
		{13, "0.7"},
		{30, "0.7"},
		{-1, "0.95"},
	}
	for _, tc := range tests {
		got := liquidityForAge(tc.age)
		assert.Equal(t, tc.want, got.String(), "age %d", tc.age)
	}
}

func TestStaticSource(t *testing.T) {
	source := NewStaticSource()
	source.SetPrice("Fiat", "Argo", 2021, money.MustFromString("61234.00"))

	price, err := source.FipePrice(context.Background(), argoQuery())
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, "61234.00", price.String())

	q := argoQuery()
	q.YearModel = 2019
	price, err = source.FipePrice(context.Background(), q)
	require.NoError(t, err)
	assert.Nil(t, price)

	liq, err := source.LiquidityPercent(context.Background(), valuation.LiquidityQuery{AgeYears: 4})
	require.NoError(t, err)
	assert.Equal(t, "0.9", liq.String())
}
