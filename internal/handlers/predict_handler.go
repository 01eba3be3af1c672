package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"neurowave-gateway/internal/models"
	"neurowave-gateway/internal/services"
)

// PredictHandler handles classification requests
type PredictHandler struct {
	classifier *services.ClassificationService
	uploads    *UploadValidator
	logger     *zap.Logger
}

// NewPredictHandler creates a new predict handler
func NewPredictHandler(classifier *services.ClassificationService, uploads *UploadValidator, logger *zap.Logger) *PredictHandler {
	return &PredictHandler{
		classifier: classifier,
		uploads:    uploads,
		logger:     logger,
	}
}

// Predict classifies a single uploaded scan
func (h *PredictHandler) Predict(c *gin.Context) {
	file, msg := h.uploads.Read(c)
	if msg != "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}

	classification, err := h.classifier.Classify(c.Request.Context(), file)
	if err != nil {
		h.logger.Error("Prediction error", zap.String("filename", file.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Internal server error during prediction",
		})
		return
	}

	c.JSON(http.StatusOK, models.PredictionAPIResponse{
		Success: true,
		Result:  classification.Result,
		Metadata: models.PredictionMetadata{
			Filename:       file.Filename,
			FileSize:       file.Size(),
			FileType:       file.ContentType,
			Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
			ModelUsed:      classification.ModelUsed,
			ProcessingMode: classification.Mode,
		},
	})
}
