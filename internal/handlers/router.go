package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"neurowave-gateway/internal/middleware"
)

// Router bundles the handlers and middleware mounted on the engine
type Router struct {
	Health      *HealthHandler
	Predict     *PredictHandler
	Model       *ModelHandler
	Status      *StatusHandler
	Predictions *PredictionsHandler
	Uploads     *UploadHandler

	Auth      *middleware.AuthMiddleware
	Logger    *middleware.LoggerMiddleware
	Recovery  *middleware.RecoveryMiddleware
	CORS      *middleware.CORSMiddleware
	RateLimit *middleware.RateLimitMiddleware
	Metrics   *middleware.MetricsMiddleware
	Gatherer  prometheus.Gatherer
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(r.Logger.RequestLogger())
	router.Use(r.Recovery.RecoveryWithZap())
	router.Use(r.CORS.SetupCORS())
	router.Use(r.Metrics.Instrument())

	// Probes and scraping bypass rate limiting
	router.GET("/health", r.Health.Health)
	router.GET("/ready", r.Health.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.Use(r.RateLimit.RateLimit())
	{
		api.POST("/predict", r.Predict.Predict)
		api.GET("/model-info", r.Model.GetModelInfo)
		api.GET("/metrics", r.Model.GetMetrics)
		api.GET("/predictions", r.Predictions.List)

		status := api.Group("/model-status")
		status.GET("", r.Status.GetStatus)
		status.GET("/stream", r.Status.Stream)
		status.POST("/refresh", r.Auth.AuthRequired(), r.Status.Refresh)
		status.POST("/test", r.Auth.AuthRequired(), r.Status.TestConnection)

		uploads := api.Group("/uploads")
		uploads.POST("", r.Uploads.Create)
		uploads.GET("/:id", r.Uploads.Get)
		uploads.PUT("/:id/file", r.Uploads.ReplaceFile)
		uploads.POST("/:id/submit", r.Uploads.Submit)
		uploads.GET("/:id/preview", r.Uploads.Preview)
		uploads.DELETE("/:id", r.Uploads.Delete)
	}

	return router
}
