package handlers

import (
	"strconv"
	"strings"

	"github.com/fenilmodi00/stock-api/models"
	"github.com/fenilmodi00/stock-api/services"
	"github.com/gofiber/fiber/v2"
)

// StockHandler serves cached collections under /stocks
type StockHandler struct {
	Query            *services.QueryService
	NewsDefaultLimit int
}

func NewStockHandler(query *services.QueryService, newsDefaultLimit int) *StockHandler {
	return &StockHandler{Query: query, NewsDefaultLimit: newsDefaultLimit}
}

// Register mounts the stock routes on router
func (h *StockHandler) Register(router fiber.Router) {
	stocks := router.Group("/stocks")
	stocks.Get("/gainers", h.GetGainers)
	stocks.Get("/losers", h.GetLosers)
	stocks.Get("/news", h.GetNews)
	stocks.Get("/summary-data", h.GetSummary)
}

// GetGainers returns the top gainers, all of them unless n is given
func (h *StockHandler) GetGainers(c *fiber.Ctx) error {
	return h.serve(c, models.CollectionGainers, services.NoLimit)
}

// GetLosers returns the top losers, all of them unless n is given
func (h *StockHandler) GetLosers(c *fiber.Ctx) error {
	return h.serve(c, models.CollectionLosers, services.NoLimit)
}

// GetNews returns the latest articles, NewsDefaultLimit of them unless n is given
func (h *StockHandler) GetNews(c *fiber.Ctx) error {
	return h.serve(c, models.CollectionNews, h.NewsDefaultLimit)
}

// GetSummary returns the market index summary, computing it on first use
func (h *StockHandler) GetSummary(c *fiber.Ctx) error {
	return c.JSON(h.Query.Slice(models.CollectionSummary, services.NoLimit))
}

func (h *StockHandler) serve(c *fiber.Ctx, name models.CollectionName, defaultLimit int) error {
	limit, err := parseLimit(c.Query("n"), defaultLimit)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(h.Query.Slice(name, limit))
}

// parseLimit returns defaultLimit for an absent or zero value and rejects
// anything that is not a non-negative integer
func parseLimit(raw string, defaultLimit int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultLimit, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidLimit(raw, "must be an integer")
	}
	if n < 0 {
		return 0, invalidLimit(raw, "must not be negative")
	}
	if n == 0 {
		return defaultLimit, nil
	}
	return n, nil
}
