package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"neurowave-gateway/internal/services"
)

// ModelHandler serves model details and evaluation metrics
type ModelHandler struct {
	catalog *services.ModelCatalog
}

// NewModelHandler creates a new model handler
func NewModelHandler(catalog *services.ModelCatalog) *ModelHandler {
	return &ModelHandler{
		catalog: catalog,
	}
}

// GetModelInfo returns the model details, live when the inference service is reachable
func (h *ModelHandler) GetModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Details(c.Request.Context()))
}

// GetMetrics returns the evaluation metrics
func (h *ModelHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Metrics(c.Request.Context()))
}
