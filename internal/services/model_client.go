package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"neurowave-gateway/internal/models"
)

const (
	defaultPredictTimeout = 30 * time.Second
	defaultHealthTimeout  = 5 * time.Second
	maxResponseBytes      = 1 << 20
)

// ModelClient calls the external inference service
type ModelClient struct {
	baseURL       string
	timeout       time.Duration
	healthTimeout time.Duration
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewModelClient creates a client for the inference service at baseURL.
// Non-positive timeouts fall back to the defaults.
func NewModelClient(baseURL string, timeout, healthTimeout time.Duration, logger *zap.Logger) *ModelClient {
	if timeout <= 0 {
		timeout = defaultPredictTimeout
	}
	if healthTimeout <= 0 {
		healthTimeout = defaultHealthTimeout
	}

	return &ModelClient{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		timeout:       timeout,
		healthTimeout: healthTimeout,
		httpClient:    &http.Client{},
		logger:        logger,
	}
}

// Predict uploads file to POST /predict. Every failure is a *PredictionError.
// No retries are attempted.
func (c *ModelClient) Predict(ctx context.Context, file models.ImageFile) (*models.PredictionResult, error) {
	body, contentType, err := encodeMultipart(file)
	if err != nil {
		return nil, newNetworkError(err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return nil, newNetworkError(err)
	}
	req.Header.Set("Content-Type", contentType)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(reqCtx, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransportError(reqCtx, err)
	}

	c.logger.Debug("Inference service responded",
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	switch code := resp.StatusCode; {
	case code >= 500:
		return nil, newServerError(code, errorMessage(payload))
	case code == http.StatusUnprocessableEntity:
		message := errorMessage(payload)
		if message == "" {
			message = "unsupported or corrupted file"
		}
		return nil, newValidationError(code, message)
	case code < 200 || code >= 300:
		message := errorMessage(payload)
		if message == "" {
			message = fmt.Sprintf("HTTP %d: %s", code, http.StatusText(code))
		}
		return nil, newValidationError(code, message)
	}

	var out models.PredictResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, newValidationError(resp.StatusCode, "malformed prediction response")
	}
	if !out.Success {
		message := out.Error
		if message == "" {
			message = "prediction failed"
		}
		return nil, newValidationError(resp.StatusCode, message)
	}
	if out.Result == nil || out.Result.PredictedClass == "" {
		return nil, newValidationError(resp.StatusCode, "prediction response missing result")
	}

	return out.Result, nil
}

// GetModelInfo fetches GET /model-info
func (c *ModelClient) GetModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/model-info", nil)
	if err != nil {
		return nil, fmt.Errorf("create model info request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var info models.ModelInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode model info: %w", err)
	}

	return &info, nil
}

// CheckHealth probes GET /health. All failures collapse into ErrServiceUnavailable.
func (c *ModelClient) CheckHealth(ctx context.Context) (*models.HealthResponse, error) {
	health, err := c.fetchHealth(ctx)
	if err != nil {
		c.logger.Debug("Health check failed", zap.Error(err))
		return nil, ErrServiceUnavailable
	}
	return health, nil
}

// IsServiceAvailable reports whether CheckHealth succeeds
func (c *ModelClient) IsServiceAvailable(ctx context.Context) bool {
	_, err := c.CheckHealth(ctx)
	return err == nil
}

func (c *ModelClient) fetchHealth(ctx context.Context) (*models.HealthResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var health models.HealthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	if health.Status == "" {
		return nil, errors.New("health response missing status")
	}

	return &health, nil
}

func classifyTransportError(reqCtx context.Context, err error) *PredictionError {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return newTimeoutError(err)
	}
	return newNetworkError(err)
}

// errorMessage extracts "error" or "detail" from an error body
func errorMessage(payload []byte) string {
	var body struct {
		Error  string          `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	if len(body.Detail) == 0 || string(body.Detail) == "null" {
		return ""
	}

	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err == nil {
		return detail
	}
	return string(body.Detail)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(file models.ImageFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	filename := file.Filename
	if filename == "" {
		filename = "upload"
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("write multipart part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}
