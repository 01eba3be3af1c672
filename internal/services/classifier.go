package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"neurowave-gateway/internal/models"
)

const (
	modelUsedReal       = "CNN-GRU Hybrid"
	modelUsedSimulation = "Simulation"
)

// InferenceBackend is the subset of ModelClient the classifier depends on
type InferenceBackend interface {
	Predict(ctx context.Context, file models.ImageFile) (*models.PredictionResult, error)
	IsServiceAvailable(ctx context.Context) bool
}

// PredictionRepository persists classification outcomes
type PredictionRepository interface {
	SavePrediction(ctx context.Context, entry models.PredictionLog) error
	RecentPredictions(ctx context.Context, limit int) ([]models.PredictionLog, error)
}

// ClassificationService decides between the real inference service and simulation.
// Client errors never reach the caller; they switch the request to fallback mode.
type ClassificationService struct {
	backend     InferenceBackend
	simulator   *Simulator
	repo        PredictionRepository
	logger      *zap.Logger
	predictions *prometheus.CounterVec

	wgBg sync.WaitGroup
}

// NewClassificationService creates the service and registers its counters on reg
func NewClassificationService(
	backend InferenceBackend,
	simulator *Simulator,
	repo PredictionRepository,
	reg prometheus.Registerer,
	logger *zap.Logger,
) *ClassificationService {
	predictions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurowave_predictions_total",
			Help: "Classifications served, by processing mode",
		}, []string{"mode"},
	)
	reg.MustRegister(predictions)

	return &ClassificationService{
		backend:     backend,
		simulator:   simulator,
		repo:        repo,
		logger:      logger,
		predictions: predictions,
	}
}

// Classify runs file through the inference service, or the simulator when that fails
func (s *ClassificationService) Classify(ctx context.Context, file models.ImageFile) (*models.Classification, error) {
	if s.backend.IsServiceAvailable(ctx) {
		result, err := s.backend.Predict(ctx, file)
		if err == nil {
			s.logger.Info("Real model prediction successful", zap.String("predicted_class", result.PredictedClass))
			classification := &models.Classification{
				Result:    result,
				Mode:      models.ModeReal,
				ModelUsed: modelUsedReal,
			}
			s.record(file, classification)
			return classification, nil
		}

		kind, _ := KindOf(err)
		s.logger.Warn("Model service error, using fallback simulation",
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
	} else {
		s.logger.Info("Model service unavailable, falling back to simulation")
	}

	if err := s.simulator.Wait(ctx); err != nil {
		return nil, fmt.Errorf("simulation interrupted: %w", err)
	}

	classification := &models.Classification{
		Result:    s.simulator.Predict(),
		Mode:      models.ModeFallback,
		ModelUsed: modelUsedSimulation,
	}
	s.record(file, classification)
	return classification, nil
}

// Predict adapts Classify to the upload workflow's predictor
func (s *ClassificationService) Predict(ctx context.Context, file models.ImageFile) (*models.PredictionResult, error) {
	classification, err := s.Classify(ctx, file)
	if err != nil {
		return nil, err
	}
	return classification.Result, nil
}

// RecentPredictions returns the latest persisted classifications
func (s *ClassificationService) RecentPredictions(ctx context.Context, limit int) ([]models.PredictionLog, error) {
	return s.repo.RecentPredictions(ctx, limit)
}

// Wait blocks until all background writes complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *ClassificationService) Wait() {
	s.wgBg.Wait()
}

func (s *ClassificationService) record(file models.ImageFile, c *models.Classification) {
	s.predictions.WithLabelValues(c.Mode).Inc()

	entry := models.PredictionLog{
		Filename:         file.Filename,
		FileSize:         file.Size(),
		FileType:         file.ContentType,
		PredictedClass:   c.Result.PredictedClass,
		ConfidenceScore:  c.Result.ConfidenceScore,
		ProcessingTimeMs: c.Result.ProcessingTimeMs,
		Mode:             c.Mode,
		CreatedAt:        time.Now().UTC(),
	}

	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.SavePrediction(bgCtx, entry); err != nil {
			s.logger.Error("Failed to save prediction log", zap.Error(err))
		}
	}()
}
