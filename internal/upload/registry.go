package upload

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown or evicted session IDs
var ErrSessionNotFound = errors.New("upload session not found")

const defaultSessionTTL = 30 * time.Minute

// Registry owns the live upload sessions
type Registry struct {
	predictor Predictor
	previews  PreviewStore
	ttl       time.Duration
	logger    *zap.Logger
	opts      []Option

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry. Sessions idle longer than ttl are
// evicted by Run.
func NewRegistry(predictor Predictor, previews PreviewStore, ttl time.Duration, logger *zap.Logger, opts ...Option) *Registry {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Registry{
		predictor: predictor,
		previews:  previews,
		ttl:       ttl,
		logger:    logger,
		opts:      opts,
		sessions:  make(map[string]*Session),
	}
}

// Create registers a new idle session
func (r *Registry) Create() *Session {
	session := NewSession(uuid.NewString(), r.predictor, r.previews, r.logger, r.opts...)

	r.mu.Lock()
	r.sessions[session.ID()] = session
	r.mu.Unlock()

	r.logger.Debug("Upload session created", zap.String("session_id", session.ID()))
	return session
}

// Get looks up a session by ID
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Remove resets the session, releasing its preview, and forgets it
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	session.Reset()
	return nil
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Run evicts idle sessions until ctx is done
func (r *Registry) Run(ctx context.Context) {
	interval := r.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.evictIdle(now); n > 0 {
				r.logger.Info("Evicted idle upload sessions", zap.Int("count", n))
			}
		}
	}
}

// evictIdle removes sessions that are not processing and have been idle past the TTL
func (r *Registry) evictIdle(now time.Time) int {
	var stale []*Session

	r.mu.Lock()
	for id, session := range r.sessions {
		lastActivity, idle := session.idleSince()
		if idle && now.Sub(lastActivity) > r.ttl {
			stale = append(stale, session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, session := range stale {
		session.Reset()
	}
	return len(stale)
}
