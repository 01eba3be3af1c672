package upload

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"neurowave-gateway/internal/models"
)

var (
	// ErrProcessing is returned when a submission is already in flight
	ErrProcessing = errors.New("upload is already being processed")
	// ErrNotReady is returned by Submit outside the FileSelected phase
	ErrNotReady = errors.New("no file selected for processing")
)

const (
	defaultTickInterval = 200 * time.Millisecond
	progressStep        = 10
	progressCeiling     = 90
)

// Phase is the position of a session in the upload workflow
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseFileSelected Phase = "file_selected"
	PhaseProcessing   Phase = "processing"
	PhaseSucceeded    Phase = "succeeded"
	PhaseFailed       Phase = "failed"
)

// Predictor classifies one file
type Predictor interface {
	Predict(ctx context.Context, file models.ImageFile) (*models.PredictionResult, error)
}

// FileInfo describes the selected file
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// State is a snapshot of a session
type State struct {
	ID           string                   `json:"id"`
	Phase        Phase                    `json:"phase"`
	File         *FileInfo                `json:"file"`
	Preview      *string                  `json:"preview"`
	IsProcessing bool                     `json:"isProcessing"`
	Progress     int                      `json:"progress"`
	Result       *models.PredictionResult `json:"result"`
	Error        *string                  `json:"error"`
}

// Option configures a Session
type Option func(*Session)

// WithTickInterval sets how often the progress indicator advances
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.tick = d
		}
	}
}

// Session drives one file through selection, processing and a result.
// At most one submission is in flight; result and error are never both set.
type Session struct {
	id        string
	predictor Predictor
	previews  PreviewStore
	logger    *zap.Logger
	tick      time.Duration

	mu           sync.Mutex
	file         *models.ImageFile
	preview      string
	processing   bool
	progress     int
	result       *models.PredictionResult
	errMsg       *string
	generation   uint64
	cancel       context.CancelFunc
	lastActivity time.Time
}

// NewSession creates an idle session
func NewSession(id string, predictor Predictor, previews PreviewStore, logger *zap.Logger, opts ...Option) *Session {
	s := &Session{
		id:           id,
		predictor:    predictor,
		previews:     previews,
		logger:       logger,
		tick:         defaultTickInterval,
		lastActivity: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// SelectFile replaces the current file and preview and clears any outcome.
// An in-flight submission is cancelled and its outcome discarded.
func (s *Session) SelectFile(file models.ImageFile) error {
	uri, err := s.previews.Create(file)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.abandonLocked()
	if s.preview != "" {
		s.previews.Release(s.preview)
	}

	s.file = &file
	s.preview = uri
	s.progress = 0
	s.result = nil
	s.errMsg = nil
	s.lastActivity = time.Now()
	return nil
}

// Submit processes the selected file and blocks until it completes
func (s *Session) Submit(ctx context.Context) error {
	run, err := s.begin(ctx)
	if err != nil {
		return err
	}
	run()
	return nil
}

// Start moves the session to processing and completes it in the background
func (s *Session) Start(ctx context.Context) error {
	run, err := s.begin(ctx)
	if err != nil {
		return err
	}
	go run()
	return nil
}

// Reset releases the preview and returns the session to idle
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abandonLocked()
	if s.preview != "" {
		s.previews.Release(s.preview)
	}

	s.file = nil
	s.preview = ""
	s.progress = 0
	s.result = nil
	s.errMsg = nil
	s.lastActivity = time.Now()
}

// State returns a snapshot of the session
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		ID:           s.id,
		Phase:        s.phaseLocked(),
		IsProcessing: s.processing,
		Progress:     s.progress,
		Result:       s.result,
		Error:        s.errMsg,
	}
	if s.file != nil {
		state.File = &FileInfo{Name: s.file.Filename, Size: s.file.Size(), Type: s.file.ContentType}
	}
	if s.preview != "" {
		preview := s.preview
		state.Preview = &preview
	}
	return state
}

// Preview returns the preview resource of the selected file
func (s *Session) Preview() (models.ImageFile, bool) {
	s.mu.Lock()
	uri := s.preview
	s.mu.Unlock()

	if uri == "" {
		return models.ImageFile{}, false
	}
	return s.previews.Open(uri)
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity, !s.processing
}

func (s *Session) phaseLocked() Phase {
	switch {
	case s.processing:
		return PhaseProcessing
	case s.result != nil:
		return PhaseSucceeded
	case s.errMsg != nil:
		return PhaseFailed
	case s.file != nil:
		return PhaseFileSelected
	default:
		return PhaseIdle
	}
}

// abandonLocked cancels an in-flight submission. Its late outcome is
// dropped because the generation no longer matches.
func (s *Session) abandonLocked() {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.processing = false
}

func (s *Session) begin(ctx context.Context) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processing {
		return nil, ErrProcessing
	}
	if s.phaseLocked() != PhaseFileSelected {
		return nil, ErrNotReady
	}

	s.generation++
	gen := s.generation
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.processing = true
	s.progress = 0
	s.lastActivity = time.Now()
	file := *s.file

	stop := make(chan struct{})
	tickerDone := make(chan struct{})
	go s.tickProgress(gen, stop, tickerDone)

	run := func() {
		defer cancel()
		result, err := s.predictor.Predict(runCtx, file)
		close(stop)
		<-tickerDone
		s.finish(gen, result, err)
	}
	return run, nil
}

// tickProgress advances the cosmetic progress indicator without ever reaching 100
func (s *Session) tickProgress(gen uint64, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.generation != gen || !s.processing {
				s.mu.Unlock()
				return
			}
			if s.progress < progressCeiling {
				s.progress += progressStep
			}
			s.mu.Unlock()
		}
	}
}

func (s *Session) finish(gen uint64, result *models.PredictionResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		s.logger.Debug("Discarding outcome of abandoned upload", zap.String("session_id", s.id))
		return
	}

	s.processing = false
	s.cancel = nil
	s.lastActivity = time.Now()

	if err == nil && result == nil {
		err = errors.New("prediction returned no result")
	}
	if err != nil {
		message := err.Error()
		s.progress = 0
		s.result = nil
		s.errMsg = &message
		s.logger.Info("Upload processing failed", zap.String("session_id", s.id), zap.Error(err))
		return
	}

	s.progress = 100
	s.result = result
	s.errMsg = nil
}
