package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggerMiddleware handles request logging
type LoggerMiddleware struct {
	logger *zap.Logger
}

// NewLoggerMiddleware creates a new logger middleware
func NewLoggerMiddleware(logger *zap.Logger) *LoggerMiddleware {
	return &LoggerMiddleware{
		logger: logger,
	}
}

// RequestLogger logs every request through zap. Health probes log at debug.
func (m *LoggerMiddleware) RequestLogger() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			requestID, _ := param.Keys[requestIDKey].(string)
			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.String("client_ip", param.ClientIP),
				zap.String("method", param.Method),
				zap.String("path", param.Path),
				zap.Int("status_code", param.StatusCode),
				zap.Duration("latency", param.Latency),
				zap.Int("body_size", param.BodySize),
				zap.String("user_agent", param.Request.UserAgent()),
			}
			if param.ErrorMessage != "" {
				fields = append(fields, zap.String("error", param.ErrorMessage))
			}

			switch {
			case param.StatusCode >= 500:
				m.logger.Error("Request", fields...)
			case param.Path == "/health" || param.Path == "/ready" || param.Path == "/metrics":
				m.logger.Debug("Request", fields...)
			default:
				m.logger.Info("Request", fields...)
			}
			return ""
		},
	})
}
