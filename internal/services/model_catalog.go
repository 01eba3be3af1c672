package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"neurowave-gateway/internal/models"
)

// ModelInfoSource is the subset of ModelClient the catalog depends on
type ModelInfoSource interface {
	IsServiceAvailable(ctx context.Context) bool
	GetModelInfo(ctx context.Context) (*models.ModelInfo, error)
}

// ModelCatalog serves model details and metrics, preferring live data
type ModelCatalog struct {
	source    ModelInfoSource
	simulator *Simulator
	logger    *zap.Logger
	now       func() time.Time
}

// NewModelCatalog creates a catalog backed by source
func NewModelCatalog(source ModelInfoSource, simulator *Simulator, logger *zap.Logger) *ModelCatalog {
	return &ModelCatalog{
		source:    source,
		simulator: simulator,
		logger:    logger,
		now:       time.Now,
	}
}

// Details merges the live model info over the fallback table
func (c *ModelCatalog) Details(ctx context.Context) models.ModelDetails {
	details := fallbackModelDetails()
	usingRealModel := false

	if c.source.IsServiceAvailable(ctx) {
		info, err := c.source.GetModelInfo(ctx)
		if err != nil {
			c.logger.Warn("Error fetching real model info", zap.Error(err))
		} else {
			details.ModelType = info.ModelType
			details.Backbone = info.Backbone
			details.SequenceModel = info.SequenceModel
			details.TotalParameters = info.TotalParameters
			details.TrainableParameters = info.TrainableParameters
			details.ClassNames = info.ClassNames
			details.Device = info.Device
			details.InputImageSize = info.InputSize
			usingRealModel = true
		}
	} else {
		c.logger.Info("Model service unavailable, using fallback info")
	}

	details.LastUpdated = c.now().UTC().Format(time.RFC3339)
	if usingRealModel {
		details.Status = "deployed"
		details.HealthCheck = "passing"
		details.DataSource = "real_model"
	} else {
		details.Status = models.ModeFallback
		details.HealthCheck = "simulated"
		details.DataSource = models.ModeFallback
	}

	return details
}

// Metrics returns the evaluation metrics with a small live jitter
func (c *ModelCatalog) Metrics(ctx context.Context) models.ModelMetrics {
	metrics := fallbackModelMetrics()
	usingRealModel := c.source.IsServiceAvailable(ctx)

	if usingRealModel {
		metrics.ServiceStatus = "active"
		metrics.RealTimeInference = true
	}

	metrics.OverallAccuracy += c.simulator.Jitter(0.2)
	metrics.ProcessingTime += c.simulator.Jitter(0.1)
	metrics.Timestamp = c.now().UTC().Format(time.RFC3339)
	if usingRealModel {
		metrics.Status = "active"
		metrics.DataSource = "real_model"
	} else {
		metrics.Status = "simulated"
		metrics.DataSource = "cached"
	}

	return metrics
}
