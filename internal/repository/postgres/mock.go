package postgres

import (
	"context"
	"sync"

	"neurowave-gateway/internal/models"
)

const mockCapacity = 500

// MockRepository keeps recent prediction logs in memory when no database is configured
type MockRepository struct {
	mu     sync.RWMutex
	nextID int64
	logs   []models.PredictionLog
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// SavePrediction appends the entry, dropping the oldest beyond capacity
func (r *MockRepository) SavePrediction(ctx context.Context, entry models.PredictionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	entry.ID = r.nextID
	r.logs = append(r.logs, entry)
	if len(r.logs) > mockCapacity {
		r.logs = r.logs[len(r.logs)-mockCapacity:]
	}
	return nil
}

// RecentPredictions returns the newest entries first
func (r *MockRepository) RecentPredictions(ctx context.Context, limit int) ([]models.PredictionLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit > len(r.logs) {
		limit = len(r.logs)
	}
	results := make([]models.PredictionLog, 0, limit)
	for i := len(r.logs) - 1; i >= 0 && len(results) < limit; i-- {
		results = append(results, r.logs[i])
	}
	return results, nil
}

// Health always succeeds in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}
