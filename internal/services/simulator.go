package services

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"neurowave-gateway/internal/models"
)

// Simulator produces placeholder predictions while the inference service is unreachable.
// It never talks to the network.
type Simulator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	classes  []string
	minDelay time.Duration
	maxDelay time.Duration
}

// NewSimulator creates a simulator whose Delay is drawn from [minDelay, maxDelay]
func NewSimulator(minDelay, maxDelay time.Duration, seed int64) *Simulator {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Simulator{
		rng:      rand.New(rand.NewSource(seed)),
		classes:  models.ClassNames,
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

// Predict returns a random but well-formed prediction: the predicted class
// holds the largest probability and the probabilities sum to ~100.
func (s *Simulator) Predict() *models.PredictionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	predicted := s.rng.Intn(len(s.classes))
	baseConfidence := 85 + s.rng.Float64()*10
	remaining := 100 - baseConfidence

	raw := make(map[string]float64, len(s.classes))
	for i, class := range s.classes {
		if i == predicted {
			raw[class] = round1(baseConfidence)
			continue
		}
		share := remaining / float64(len(s.classes)-1) * (0.5 + s.rng.Float64())
		raw[class] = round1(share)
	}

	var total float64
	for _, p := range raw {
		total += p
	}

	probabilities := make(map[string]float64, len(raw))
	for class, p := range raw {
		probabilities[class] = round1(p / total * 100)
	}

	processingTime := 1500 + s.rng.Float64()*2000
	predictedClass := s.classes[predicted]

	return &models.PredictionResult{
		PredictedClass:     predictedClass,
		ConfidenceScore:    probabilities[predictedClass],
		ClassProbabilities: probabilities,
		ProcessingTimeMs:   int64(math.Round(processingTime)),
		InferenceTime:      math.Round(processingTime/10) / 100,
	}
}

// Delay returns a wait that mimics real inference latency
func (s *Simulator) Delay() time.Duration {
	if s.maxDelay == s.minDelay {
		return s.minDelay
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minDelay + time.Duration(s.rng.Int63n(int64(s.maxDelay-s.minDelay)))
}

// Wait blocks for Delay or until ctx is done
func (s *Simulator) Wait(ctx context.Context) error {
	timer := time.NewTimer(s.Delay())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Jitter returns a value in [-spread/2, spread/2)
func (s *Simulator) Jitter(spread float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (s.rng.Float64() - 0.5) * spread
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
