package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"

	"neurowave-gateway/internal/middleware"
	"neurowave-gateway/internal/models"
	"neurowave-gateway/internal/repository/postgres"
	"neurowave-gateway/internal/services"
	"neurowave-gateway/internal/upload"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func init() {
	gin.SetMode(gin.TestMode)
}

type envOptions struct {
	healthy bool
	apiKey  string
	maxMB   int64
}

type testEnv struct {
	router     *gin.Engine
	manager    *services.StatusManager
	classifier *services.ClassificationService
	status     *StatusHandler
	healthy    *atomic.Bool
	predicts   *atomic.Int32
}

func newFakeInference(t *testing.T, healthy *atomic.Bool, predicts *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(models.HealthResponse{Status: "healthy", Timestamp: 1700000000})
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		predicts.Add(1)
		_ = json.NewEncoder(w).Encode(models.PredictResponse{
			Success: true,
			Result: &models.PredictionResult{
				PredictedClass:     "Meningioma",
				ConfidenceScore:    91.2,
				ClassProbabilities: map[string]float64{"Glioma": 3.1, "Meningioma": 91.2, "Pituitary": 4.0, "No Tumor": 1.7},
				ProcessingTimeMs:   812,
				InferenceTime:      0.81,
			},
		})
	})
	mux.HandleFunc("/model-info", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.ModelInfo{
			ModelType:  "CNN-GRU Hybrid",
			Backbone:   "ResNet50",
			ClassNames: models.ClassNames,
			Device:     "cuda",
			InputSize:  "224x224x3",
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	if opts.maxMB == 0 {
		opts.maxMB = 10
	}
	logger := zaptest.NewLogger(t)

	healthy := &atomic.Bool{}
	healthy.Store(opts.healthy)
	predicts := &atomic.Int32{}
	inference := newFakeInference(t, healthy, predicts)

	registry := prometheus.NewRegistry()
	client := services.NewModelClient(inference.URL, time.Second, time.Second, logger)
	manager := services.NewStatusManager(client, logger)
	simulator := services.NewSimulator(0, 0, 42)
	store := postgres.NewMockRepository()
	classifier := services.NewClassificationService(client, simulator, store, registry, logger)
	catalog := services.NewModelCatalog(client, simulator, logger)
	sessions := upload.NewRegistry(classifier, upload.NewMemoryPreviews(), time.Minute, logger,
		upload.WithTickInterval(5*time.Millisecond))
	uploads := NewUploadValidator(opts.maxMB)
	status := NewStatusHandler(manager)

	t.Cleanup(classifier.Wait)

	router := (&Router{
		Health:      NewHealthHandler(manager, store, logger),
		Predict:     NewPredictHandler(classifier, uploads, logger),
		Model:       NewModelHandler(catalog),
		Status:      status,
		Predictions: NewPredictionsHandler(classifier, logger),
		Uploads:     NewUploadHandler(context.Background(), sessions, uploads, logger),

		Auth:      middleware.NewAuthMiddleware(opts.apiKey),
		Logger:    middleware.NewLoggerMiddleware(logger),
		Recovery:  middleware.NewRecoveryMiddleware(logger),
		CORS:      middleware.NewCORSMiddleware(),
		RateLimit: middleware.NewRateLimitMiddleware(logger, 1000, 1000),
		Metrics:   middleware.NewMetricsMiddleware(registry),
		Gatherer:  registry,
	}).SetupRoutes()

	return &testEnv{
		router:     router,
		manager:    manager,
		classifier: classifier,
		status:     status,
		healthy:    healthy,
		predicts:   predicts,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, method, target, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if filename != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		if contentType != "" {
			header.Set("Content-Type", contentType)
		}
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("failed to write part: %v", err)
		}
	} else if err := writer.WriteField("note", "no file here"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode body %q: %v", w.Body.String(), err)
	}
	return v
}

func TestPredictUsesRealModel(t *testing.T) {
	env := newTestEnv(t, envOptions{healthy: true})

	w := env.do(multipartRequest(t, http.MethodPost, "/api/predict", "scan.png", "image/png", pngHeader))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decode[models.PredictionAPIResponse](t, w)
	if !resp.Success || resp.Result.PredictedClass != "Meningioma" {
		t.Fatalf("unexpected result: %+v", resp)
	}
	meta := resp.Metadata
	if meta.ProcessingMode != "real" || meta.ModelUsed != "CNN-GRU Hybrid" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if meta.Filename != "scan.png" || meta.FileType != "image/png" || meta.FileSize != int64(len(pngHeader)) {
		t.Fatalf("unexpected file metadata: %+v", meta)
	}
	if _, err := time.Parse(time.RFC3339Nano, meta.Timestamp); err != nil {
		t.Fatalf("timestamp is not RFC 3339: %q", meta.Timestamp)
	}
}

func TestPredictFallsBackWhenServiceDown(t *testing.T) {
	env := newTestEnv(t, envOptions{healthy: false})

	w := env.do(multipartRequest(t, http.MethodPost, "/api/predict", "scan.jpg", "image/jpeg", []byte("jpeg-bytes")))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := decode[models.PredictionAPIResponse](t, w)
	if resp.Metadata.ProcessingMode != "fallback" || resp.Metadata.ModelUsed != "Simulation" {
		t.Fatalf("unexpected metadata: %+v", resp.Metadata)
	}
	if len(resp.Result.ClassProbabilities) != len(models.ClassNames) {
		t.Fatalf("unexpected probabilities: %+v", resp.Result.ClassProbabilities)
	}
	if env.predicts.Load() != 0 {
		t.Fatalf("inference service must not be called while unavailable")
	}
}

func TestPredictRejectsInvalidUploads(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		want        string
	}{
		{"missing file", "", "", nil, "No file provided"},
		{"wrong type", "notes.txt", "text/plain", []byte("hello"), "Invalid file type. Please upload JPEG, PNG, or DICOM files."},
		{"gif", "anim.gif", "image/gif", []byte("GIF89a"), "Invalid file type. Please upload JPEG, PNG, or DICOM files."},
		{"too large", "huge.png", "image/png", bytes.Repeat([]byte{0x1}, 1<<20+10), "File too large. Maximum size is 1MB."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, envOptions{healthy: true, maxMB: 1})

			w := env.do(multipartRequest(t, http.MethodPost, "/api/predict", tt.filename, tt.contentType, tt.data))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if got := decode[models.ErrorResponse](t, w).Error; got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
			if env.predicts.Load() != 0 {
				t.Fatalf("rejected upload reached the inference service")
			}
		})
	}
}

func TestPredictSniffsUndeclaredType(t *testing.T) {
	env := newTestEnv(t, envOptions{healthy: true})

	w := env.do(multipartRequest(t, http.MethodPost, "/api/predict", "scan", "application/octet-stream", pngHeader))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode[models.PredictionAPIResponse](t, w).Metadata.FileType; got != "image/png" {
		t.Fatalf("expected sniffed image/png, got %q", got)
	}
}

func TestModelInfoAndMetrics(t *testing.T) {
	env := newTestEnv(t, envOptions{healthy: false})

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/model-info", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	details := decode[models.ModelDetails](t, w)
	if details.Status != "fallback" || details.HealthCheck != "simulated" {
		t.Fatalf("unexpected details markers: %+v", details)
	}

	env.healthy.Store(true)
	details = decode[models.ModelDetails](t, env.do(httptest.NewRequest(http.MethodGet, "/api/model-info", nil)))
	if details.Status != "deployed" || details.Backbone != "ResNet50" || details.Device != "cuda" {
		t.Fatalf("expected live details: %+v", details)
	}

	metrics := decode[models.ModelMetrics](t, env.do(httptest.NewRequest(http.MethodGet, "/api/metrics", nil)))
	if metrics.Status != "active" || metrics.DataSource != "real_model" {
		t.Fatalf("unexpected metrics markers: %+v", metrics)
	}
}

func TestModelStatusEndpoints(t *testing.T) {
	env := newTestEnv(t, envOptions{healthy: true})

	status := decode[models.ModelStatus](t, env.do(httptest.NewRequest(http.MethodGet, "/api/model-status", nil)))
	if status.Mode != models.ModeFallback || status.IsAvailable {
		t.Fatalf("expected initial fallback status: %+v", status)
	}

	w := env.do(httptest.NewRequest(http.MethodPost, "/api/model-status/refresh", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	status = decode[models.ModelStatus](t, w)
	if status.Mode != models.ModeReal || !status.IsHealthy || status.ResponseTime == nil {
		t.Fatalf("expected real status after refresh: %+v", status)
	}

	env.healthy.Store(false)
	test := decode[models.ConnectionTest](t, env.do(httptest.NewRequest(http.MethodPost, "/api/model-status/test", nil)))
	if test.Success || test.Error == "" {
		t.Fatalf("expected failed connection test: %+v", test)
	}
	if env.manager.GetStatus().Mode != models.ModeReal {
		t.Fatalf("connection test must not change the shared status")
	}
}

func TestModelStatusMutationsRequireAPIKey(t *testing.T) {
	env := newTestEnv(t, envOptions{healthy: true, apiKey: "secret"})

	if w := env.do(httptest.NewRequest(http.MethodPost, "/api/model-status/refresh", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/model-status/refresh", nil)
	req.Header.Set("X-API-KEY", "wrong")
	if w := env.do(req); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/model-status/refresh", nil)
	req.Header.Set("X-API-KEY", "secret")
	if w := env.do(req); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", w.Code)
	}

	if w := env.do(httptest.NewRequest(http.MethodGet, "/api/model-status", nil)); w.Code != http.StatusOK {
		t.Fatalf("reading status must not require a key, got %d", w.Code)
	}
}

func TestModelStatusStream(t *testing.T) {
	env := newTestEnv(t, envOptions{healthy: true})
	server := httptest.NewServer(env.router)
	defer server.Close()
	defer env.status.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/model-status/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	var modes []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() && len(modes) < 2 {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var status models.ModelStatus
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &status); err != nil {
			t.Fatalf("bad event payload %q: %v", line, err)
		}
		modes = append(modes, status.Mode)
		if len(modes) == 1 {
			go env.manager.UpdateStatus(context.Background())
		}
	}

	if len(modes) != 2 || modes[0] != models.ModeFallback || modes[1] != models.ModeReal {
		t.Fatalf("expected fallback then real events, got %v", modes)
	}
}

func TestPredictionsList(t *testing.T) {
	env := newTestEnv(t, envOptions{healthy: true})

	for i := 0; i < 2; i++ {
		w := env.do(multipartRequest(t, http.MethodPost, "/api/predict", "scan.png", "image/png", pngHeader))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	}
	env.classifier.Wait()

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/predictions?limit=1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode[struct {
		Predictions []models.PredictionLog `json:"predictions"`
		Count       int                    `json:"count"`
	}](t, w)
	if body.Count != 1 || body.Predictions[0].Mode != models.ModeReal || body.Predictions[0].Filename != "scan.png" {
		t.Fatalf("unexpected predictions: %+v", body)
	}

	if w := env.do(httptest.NewRequest(http.MethodGet, "/api/predictions?limit=500", nil)); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range limit, got %d", w.Code)
	}
	if w := env.do(httptest.NewRequest(http.MethodGet, "/api/predictions?limit=abc", nil)); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric limit, got %d", w.Code)
	}
}

func TestUploadSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, envOptions{healthy: true})

	w := env.do(multipartRequest(t, http.MethodPost, "/api/uploads", "scan.png", "image/png", pngHeader))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	state := decode[upload.State](t, w)
	if state.Phase != upload.PhaseFileSelected || state.File == nil || state.Preview == nil {
		t.Fatalf("unexpected created state: %+v", state)
	}
	base := "/api/uploads/" + state.ID

	preview := env.do(httptest.NewRequest(http.MethodGet, base+"/preview", nil))
	if preview.Code != http.StatusOK || !bytes.Equal(preview.Body.Bytes(), pngHeader) {
		t.Fatalf("unexpected preview: %d", preview.Code)
	}
	if ct := preview.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected preview content type %q", ct)
	}

	if w := env.do(httptest.NewRequest(http.MethodPost, base+"/submit", nil)); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		state = decode[upload.State](t, env.do(httptest.NewRequest(http.MethodGet, base, nil)))
		if state.Phase == upload.PhaseSucceeded {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("upload did not finish: %+v", state)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if state.Progress != 100 || state.Result == nil || state.Result.PredictedClass != "Meningioma" || state.Error != nil {
		t.Fatalf("unexpected final state: %+v", state)
	}

	if w := env.do(httptest.NewRequest(http.MethodPost, base+"/submit", nil)); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 after completion, got %d", w.Code)
	}

	w = env.do(multipartRequest(t, http.MethodPut, base+"/file", "second.png", "image/png", pngHeader))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if state = decode[upload.State](t, w); state.Phase != upload.PhaseFileSelected || state.Result != nil || state.File.Name != "second.png" {
		t.Fatalf("replacing the file must clear the outcome: %+v", state)
	}

	if w := env.do(httptest.NewRequest(http.MethodDelete, base, nil)); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := env.do(httptest.NewRequest(http.MethodGet, base, nil)); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestUploadRejectsInvalidFile(t *testing.T) {
	env := newTestEnv(t, envOptions{healthy: true})

	w := env.do(multipartRequest(t, http.MethodPost, "/api/uploads", "notes.txt", "text/plain", []byte("hello")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if w := env.do(httptest.NewRequest(http.MethodPost, "/api/uploads/unknown/submit", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", w.Code)
	}
}

func TestHealthReadyAndMetrics(t *testing.T) {
	env := newTestEnv(t, envOptions{healthy: true})

	if w := env.do(httptest.NewRequest(http.MethodGet, "/health", nil)); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w := env.do(httptest.NewRequest(http.MethodGet, "/ready", nil))
	ready := decode[models.ReadyResponse](t, w)
	if w.Code != http.StatusOK || ready.Status != "ok" || ready.Mode != models.ModeFallback {
		t.Fatalf("unexpected readiness: %d %+v", w.Code, ready)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatalf("expected a request id header")
	}

	env.do(multipartRequest(t, http.MethodPost, "/api/predict", "scan.png", "image/png", pngHeader))

	w = env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	for _, metric := range []string{"neurowave_predictions_total", "http_requests_total", `path="/api/predict"`} {
		if !strings.Contains(string(body), metric) {
			t.Fatalf("expected %s in metrics output", metric)
		}
	}
}
