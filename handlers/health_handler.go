package handlers

import (
	"context"
	"time"

	"github.com/fenilmodi00/stock-api/models"
	"github.com/fenilmodi00/stock-api/services"
	"github.com/fenilmodi00/stock-api/shared"
	"github.com/gofiber/fiber/v2"
)

// HealthChecker is an optional dependency reported on /health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	Store    *services.CacheStore
	Metrics  *shared.RefreshMetrics
	Database HealthChecker
}

func NewHealthHandler(store *services.CacheStore, metrics *shared.RefreshMetrics, database HealthChecker) *HealthHandler {
	return &HealthHandler{Store: store, Metrics: metrics, Database: database}
}

type collectionHealth struct {
	Records int                       `json:"records"`
	Refresh *shared.CollectionMetrics `json:"refresh,omitempty"`
}

// GetHealth reports liveness plus per-collection size and refresh status.
// It stays 200 while the cache is stale; staleness is visible in the refresh fields.
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	sizes := h.Store.Sizes()
	collections := make(map[models.CollectionName]collectionHealth, len(sizes))
	for _, name := range models.AllCollections {
		entry := collectionHealth{Records: sizes[name]}
		if h.Metrics != nil {
			if snapshot, ok := h.Metrics.Snapshot(string(name)); ok {
				entry.Refresh = &snapshot
			}
		}
		collections[name] = entry
	}

	response := fiber.Map{
		"status":      "ok",
		"timestamp":   time.Now().Unix(),
		"collections": collections,
	}

	if h.Database != nil {
		if err := h.Database.HealthCheck(c.UserContext()); err != nil {
			response["database"] = fiber.Map{"status": "unavailable", "error": err.Error()}
		} else {
			response["database"] = fiber.Map{"status": "ok"}
		}
	}

	return c.JSON(response)
}
