package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fenilmodi00/stock-api/models"
	"github.com/fenilmodi00/stock-api/services"
	"github.com/fenilmodi00/stock-api/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIndexHistory struct {
	calls atomic.Int32
}

func (s *stubIndexHistory) LatestSession(_ context.Context, symbol string) (*services.IndexSession, error) {
	s.calls.Add(1)
	if symbol == "^DJI" {
		return nil, nil
	}
	return &services.IndexSession{Open: decimal.NewFromInt(100), Close: decimal.NewFromFloat(102.5)}, nil
}

func numbered(prefix string, n int) models.Collection {
	c := make(models.Collection, 0, n)
	for i := 0; i < n; i++ {
		c = append(c, json.RawMessage(fmt.Sprintf(`{"id":"%s%d"}`, prefix, i)))
	}
	return c
}

func setupApp(t *testing.T) (*fiber.App, *services.CacheStore, *stubIndexHistory) {
	t.Helper()
	store := services.NewCacheStore()
	history := &stubIndexHistory{}
	summary := services.NewMarketSummaryService(store, history, time.Second)
	handler := NewStockHandler(services.NewQueryService(store, summary), 20)

	app := fiber.New()
	handler.Register(app)
	app.Get("/health", NewHealthHandler(store, shared.NewRefreshMetrics(), nil).GetHealth)
	return app, store, history
}

func get(t *testing.T, app *fiber.App, target string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func decodeArray(t *testing.T, body []byte) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestGainersPrefixTruncation(t *testing.T) {
	app, store, _ := setupApp(t)
	store.Replace(models.CollectionGainers, numbered("g", 4))

	tests := []struct {
		target string
		want   int
	}{
		{"/stocks/gainers?n=2", 2},
		{"/stocks/gainers?n=100", 4},
		{"/stocks/gainers", 4},
		{"/stocks/gainers?n=0", 4},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			status, body := get(t, app, tt.target)
			require.Equal(t, fiber.StatusOK, status)
			items := decodeArray(t, body)
			require.Len(t, items, tt.want)
			for i, item := range items {
				assert.Equal(t, fmt.Sprintf("g%d", i), item["id"])
			}
		})
	}
}

func TestLosersDefaultIsUnlimited(t *testing.T) {
	app, store, _ := setupApp(t)
	store.Replace(models.CollectionLosers, numbered("l", 35))

	status, body := get(t, app, "/stocks/losers")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decodeArray(t, body), 35)
}

func TestNewsDefaultsToTwenty(t *testing.T) {
	app, store, _ := setupApp(t)
	store.Replace(models.CollectionNews, numbered("n", 35))

	_, body := get(t, app, "/stocks/news")
	assert.Len(t, decodeArray(t, body), 20)

	_, body = get(t, app, "/stocks/news?n=30")
	assert.Len(t, decodeArray(t, body), 30)

	_, body = get(t, app, "/stocks/news?n=0")
	assert.Len(t, decodeArray(t, body), 20)
}

func TestZeroLimitFallsBackToDefault(t *testing.T) {
	app, store, _ := setupApp(t)
	store.Replace(models.CollectionGainers, numbered("g", 4))
	store.Replace(models.CollectionLosers, numbered("l", 35))

	_, body := get(t, app, "/stocks/gainers?n=0")
	assert.Len(t, decodeArray(t, body), 4)

	_, body = get(t, app, "/stocks/losers?n=0")
	assert.Len(t, decodeArray(t, body), 35)

	_, body = get(t, app, "/stocks/summary-data?n=0")
	assert.Len(t, decodeArray(t, body), 2)
}

func TestEmptyCacheReturnsEmptyArray(t *testing.T) {
	app, _, _ := setupApp(t)

	status, body := get(t, app, "/stocks/gainers?n=5")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestInvalidLimitIsRejected(t *testing.T) {
	app, store, _ := setupApp(t)
	store.Replace(models.CollectionGainers, numbered("g", 4))

	for _, target := range []string{"/stocks/gainers?n=-1", "/stocks/losers?n=abc", "/stocks/news?n=1.5"} {
		status, body := get(t, app, target)
		assert.Equal(t, fiber.StatusBadRequest, status, target)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, false, payload["success"])
		assert.Contains(t, payload["error"], "INVALID_LIMIT")
	}
}

func TestSummaryComputedOnceAndOmitsMissingIndex(t *testing.T) {
	app, _, history := setupApp(t)

	status, body := get(t, app, "/stocks/summary-data")
	require.Equal(t, fiber.StatusOK, status)
	first := decodeArray(t, body)
	require.Len(t, first, 2)
	assert.Equal(t, "^GSPC", first[0]["symbol"])
	assert.Equal(t, 102.5, first[0]["price"])
	assert.Equal(t, 2.5, first[0]["change"])
	assert.Equal(t, 2.5, first[0]["changePercent"])

	_, body = get(t, app, "/stocks/summary-data")
	assert.Equal(t, first, decodeArray(t, body))
	assert.Equal(t, int32(len(models.DefaultMarketIndices)), history.calls.Load())
}

func TestHealthReportsCollectionSizes(t *testing.T) {
	app, store, _ := setupApp(t)
	store.Replace(models.CollectionNews, numbered("n", 3))

	status, body := get(t, app, "/health")
	require.Equal(t, fiber.StatusOK, status)

	var payload struct {
		Status      string `json:"status"`
		Collections map[string]struct {
			Records int `json:"records"`
		} `json:"collections"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "ok", payload.Status)
	assert.Equal(t, 3, payload.Collections["news"].Records)
	assert.Equal(t, 0, payload.Collections["gainers"].Records)
}

func TestParseLimit(t *testing.T) {
	n, err := parseLimit("", services.NoLimit)
	require.NoError(t, err)
	assert.Equal(t, services.NoLimit, n)

	n, err = parseLimit(" 7 ", 20)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = parseLimit("0", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	_, err = parseLimit("-3", 20)
	assert.Equal(t, shared.ErrorCategoryValidation, shared.CategoryOf(err))
}
