package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"neurowave-gateway/internal/models"
)

const (
	defaultCheckInterval = 30 * time.Second
	statusErrorMessage   = "Model service is not responding"
)

// HealthChecker probes the inference service
type HealthChecker interface {
	CheckHealth(ctx context.Context) (*models.HealthResponse, error)
}

type subscriber struct {
	id       uint64
	callback func(models.ModelStatus)
	mu       sync.Mutex
	active   bool
}

// StatusManager keeps the single shared ModelStatus up to date.
// UpdateStatus is the only writer; the record is swapped as a whole.
type StatusManager struct {
	checker HealthChecker
	logger  *zap.Logger
	now     func() time.Time

	mu          sync.RWMutex
	status      models.ModelStatus
	subscribers []*subscriber
	nextID      uint64

	updateMu sync.Mutex

	loopMu sync.Mutex
	stopCh chan struct{}
	loopWG sync.WaitGroup
	loops  atomic.Int32
}

// NewStatusManager creates a manager in the default fallback state
func NewStatusManager(checker HealthChecker, logger *zap.Logger) *StatusManager {
	m := &StatusManager{
		checker: checker,
		logger:  logger,
		now:     time.Now,
	}
	m.status = models.ModelStatus{
		LastChecked: m.now(),
		Mode:        models.ModeFallback,
	}
	return m
}

// CheckModelHealth runs one timed probe. Failures map to unhealthy.
func (m *StatusManager) CheckModelHealth(ctx context.Context) models.ModelHealth {
	start := m.now()
	health, err := m.checker.CheckHealth(ctx)
	elapsed := m.now().Sub(start).Milliseconds()

	if err != nil {
		return models.ModelHealth{
			Status:       models.HealthUnhealthy,
			Timestamp:    float64(m.now().UnixMilli()) / 1000,
			ResponseTime: elapsed,
		}
	}

	status := models.HealthUnhealthy
	if health.Status == models.HealthHealthy {
		status = models.HealthHealthy
	}
	return models.ModelHealth{
		Status:       status,
		Timestamp:    health.Timestamp,
		ResponseTime: elapsed,
	}
}

// UpdateStatus probes the service, replaces the shared status and notifies subscribers
func (m *StatusManager) UpdateStatus(ctx context.Context) models.ModelStatus {
	m.updateMu.Lock()
	defer m.updateMu.Unlock()

	health := m.CheckModelHealth(ctx)
	healthy := health.Status == models.HealthHealthy

	responseTime := health.ResponseTime
	next := models.ModelStatus{
		IsAvailable:  healthy,
		IsHealthy:    healthy,
		ResponseTime: &responseTime,
		LastChecked:  m.now(),
		Mode:         models.ModeFallback,
	}
	if healthy {
		next.Mode = models.ModeReal
	} else {
		message := statusErrorMessage
		next.Error = &message
	}

	m.mu.Lock()
	previous := m.status
	m.status = next
	subs := make([]*subscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	if previous.Mode != next.Mode {
		m.logger.Info("Model status changed",
			zap.String("from", previous.Mode),
			zap.String("to", next.Mode),
			zap.Int64("response_time_ms", responseTime),
		)
	}

	for _, sub := range subs {
		sub.notify(next)
	}

	return next
}

func (s *subscriber) notify(status models.ModelStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.callback(status)
	}
}

// GetStatus returns a copy of the current status
func (m *StatusManager) GetStatus() models.ModelStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Subscribe registers callback for status updates. The returned function
// removes it; calling it more than once is a no-op. Once it returns the
// callback is never invoked again. It must not be called from inside the
// callback itself.
func (m *StatusManager) Subscribe(callback func(models.ModelStatus)) func() {
	m.mu.Lock()
	m.nextID++
	sub := &subscriber{id: m.nextID, callback: callback, active: true}
	m.subscribers = append(m.subscribers, sub)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		for i, s := range m.subscribers {
			if s.id == sub.id {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				break
			}
		}
		m.mu.Unlock()

		sub.mu.Lock()
		sub.active = false
		sub.mu.Unlock()
	}
}

// StartPeriodicCheck runs an immediate update and then one every interval.
// A running loop is stopped first so at most one loop polls at a time.
func (m *StatusManager) StartPeriodicCheck(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultCheckInterval
	}

	m.loopMu.Lock()
	defer m.loopMu.Unlock()

	m.stopLocked()

	stopCh := make(chan struct{})
	m.stopCh = stopCh
	m.loopWG.Add(1)
	go m.pollLoop(ctx, interval, stopCh)
}

// StopPeriodicCheck stops the polling loop if one is running
func (m *StatusManager) StopPeriodicCheck() {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	m.stopLocked()
}

func (m *StatusManager) stopLocked() {
	if m.stopCh == nil {
		return
	}
	close(m.stopCh)
	m.stopCh = nil
	m.loopWG.Wait()
}

func (m *StatusManager) pollLoop(ctx context.Context, interval time.Duration, stopCh chan struct{}) {
	defer m.loopWG.Done()

	m.loops.Add(1)
	defer m.loops.Add(-1)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.UpdateStatus(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.UpdateStatus(ctx)
		}
	}
}

// TestModelConnection probes the service once without touching the shared status
func (m *StatusManager) TestModelConnection(ctx context.Context) models.ConnectionTest {
	start := m.now()
	_, err := m.checker.CheckHealth(ctx)
	elapsed := m.now().Sub(start).Milliseconds()

	if err != nil {
		return models.ConnectionTest{
			Success:      false,
			ResponseTime: elapsed,
			Error:        err.Error(),
		}
	}
	return models.ConnectionTest{Success: true, ResponseTime: elapsed}
}
