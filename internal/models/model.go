package models

import (
	"time"
)

// Tumor classes produced by the classifier
var ClassNames = []string{"Glioma", "Meningioma", "Pituitary", "No Tumor"}

// ImageFile is an uploaded scan held in memory
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the file size in bytes
func (f ImageFile) Size() int64 {
	return int64(len(f.Data))
}

// PredictionResult represents one classification produced by the inference service
type PredictionResult struct {
	PredictedClass     string             `json:"predicted_class"`
	ConfidenceScore    float64            `json:"confidence_score"`
	ClassProbabilities map[string]float64 `json:"class_probabilities"`
	ProcessingTimeMs   int64              `json:"processing_time_ms"`
	InferenceTime      float64            `json:"inference_time"`
}

// PredictResponse is the body returned by the inference service on POST /predict
type PredictResponse struct {
	Success bool              `json:"success"`
	Result  *PredictionResult `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ModelInfo is the body returned by the inference service on GET /model-info
type ModelInfo struct {
	ModelType           string   `json:"model_type"`
	Backbone            string   `json:"backbone"`
	SequenceModel       string   `json:"sequence_model"`
	NumClasses          int      `json:"num_classes"`
	ClassNames          []string `json:"class_names"`
	TotalParameters     int64    `json:"total_parameters"`
	TrainableParameters int64    `json:"trainable_parameters"`
	Device              string   `json:"device"`
	InputSize           string   `json:"input_size"`
	Status              string   `json:"status"`
}

// HealthResponse is the body returned by the inference service on GET /health
type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}

// Inference service modes
const (
	ModeReal     = "real"
	ModeFallback = "fallback"
)

// Health states reported by a single probe
const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
	HealthUnknown   = "unknown"
)

// ModelHealth is the outcome of one timed health probe
type ModelHealth struct {
	Status       string  `json:"status"`
	Timestamp    float64 `json:"timestamp"`
	ResponseTime int64   `json:"responseTime"`
}

// ModelStatus is the shared view of inference service availability.
// It is always replaced as a whole, never updated field by field.
type ModelStatus struct {
	IsAvailable  bool      `json:"isAvailable"`
	IsHealthy    bool      `json:"isHealthy"`
	ResponseTime *int64    `json:"responseTime"`
	LastChecked  time.Time `json:"lastChecked"`
	Error        *string   `json:"error"`
	Mode         string    `json:"mode"`
}

// ConnectionTest is the result of a manual connection probe
type ConnectionTest struct {
	Success      bool   `json:"success"`
	ResponseTime int64  `json:"responseTime"`
	Error        string `json:"error,omitempty"`
}

// Classification is a prediction together with the path that produced it
type Classification struct {
	Result    *PredictionResult `json:"result"`
	Mode      string            `json:"mode"`
	ModelUsed string            `json:"model_used"`
}

// PredictionLog is one persisted classification
type PredictionLog struct {
	ID               int64     `json:"id"`
	Filename         string    `json:"filename"`
	FileSize         int64     `json:"file_size"`
	FileType         string    `json:"file_type"`
	PredictedClass   string    `json:"predicted_class"`
	ConfidenceScore  float64   `json:"confidence_score"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Mode             string    `json:"mode"`
	CreatedAt        time.Time `json:"created_at"`
}

// PredictionMetadata describes the upload behind a /api/predict response
type PredictionMetadata struct {
	Filename       string `json:"filename"`
	FileSize       int64  `json:"fileSize"`
	FileType       string `json:"fileType"`
	Timestamp      string `json:"timestamp"`
	ModelUsed      string `json:"modelUsed"`
	ProcessingMode string `json:"processingMode"`
}

// PredictionAPIResponse represents the response for /api/predict
type PredictionAPIResponse struct {
	Success  bool               `json:"success"`
	Result   *PredictionResult  `json:"result"`
	Metadata PredictionMetadata `json:"metadata"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
