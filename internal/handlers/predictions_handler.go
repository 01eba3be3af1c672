package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"neurowave-gateway/internal/models"
	"neurowave-gateway/internal/services"
)

const defaultPredictionsLimit = 20

type predictionsQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}

// PredictionsHandler lists persisted classifications
type PredictionsHandler struct {
	classifier *services.ClassificationService
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewPredictionsHandler creates a new predictions handler
func NewPredictionsHandler(classifier *services.ClassificationService, logger *zap.Logger) *PredictionsHandler {
	return &PredictionsHandler{
		classifier: classifier,
		validate:   validator.New(),
		logger:     logger,
	}
}

// List returns the most recent classifications, newest first
func (h *PredictionsHandler) List(c *gin.Context) {
	var query predictionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid query: " + err.Error(),
		})
		return
	}

	if err := h.validate.Struct(&query); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Validation failed: " + err.Error(),
		})
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultPredictionsLimit
	}

	logs, err := h.classifier.RecentPredictions(c.Request.Context(), query.Limit)
	if err != nil {
		h.logger.Error("Failed to load prediction logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to load predictions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": logs,
		"count":       len(logs),
	})
}
