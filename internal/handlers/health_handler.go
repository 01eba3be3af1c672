package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"neurowave-gateway/internal/models"
	"neurowave-gateway/internal/services"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Health(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	manager *services.StatusManager
	store   Pinger
	logger  *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(manager *services.StatusManager, store Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		manager: manager,
		store:   store,
		logger:  logger,
	}
}

// Health returns the health status of the gateway itself
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready reports whether the gateway can serve, and in which mode.
// Fallback mode is still ready; only a failing prediction store is not.
func (h *HealthHandler) Ready(c *gin.Context) {
	mode := h.manager.GetStatus().Mode

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Health(ctx); err != nil {
		h.logger.Warn("Prediction store is not reachable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, models.ReadyResponse{
			Status: "unavailable",
			Mode:   mode,
		})
		return
	}

	c.JSON(http.StatusOK, models.ReadyResponse{
		Status: "ok",
		Mode:   mode,
	})
}
