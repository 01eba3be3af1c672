package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Port                string        `validate:"required,numeric"`
	ModelAPIURL         string        `validate:"required,url"`
	ModelTimeout        time.Duration `validate:"gt=0"`
	HealthTimeout       time.Duration `validate:"gt=0"`
	HealthCheckInterval time.Duration `validate:"gt=0"`
	MaxFileSizeMB       int64         `validate:"gt=0"`
	SimulationMinDelay  time.Duration `validate:"gte=0"`
	SimulationMaxDelay  time.Duration `validate:"gtefield=SimulationMinDelay"`
	UploadSessionTTL    time.Duration `validate:"gt=0"`
	RateLimitRPS        float64       `validate:"gt=0"`
	RateLimitBurst      int           `validate:"gt=0"`
	APIKey              string
	DatabaseURL         string
	LogLevel            string `validate:"oneof=debug info warn error"`
}

// MaxFileSizeBytes returns the upload size limit in bytes
func (c *Config) MaxFileSizeBytes() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}

func LoadConfig(logger *zap.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	modelTimeout, err := getEnvMillis("MODEL_TIMEOUT_MS", 30000)
	if err != nil {
		return nil, err
	}
	healthTimeout, err := getEnvMillis("HEALTH_TIMEOUT_MS", 5000)
	if err != nil {
		return nil, err
	}
	healthInterval, err := getEnvMillis("HEALTH_CHECK_INTERVAL_MS", 30000)
	if err != nil {
		return nil, err
	}
	simMin, err := getEnvMillis("SIMULATION_MIN_DELAY_MS", 2000)
	if err != nil {
		return nil, err
	}
	simMax, err := getEnvMillis("SIMULATION_MAX_DELAY_MS", 3000)
	if err != nil {
		return nil, err
	}

	maxFileSize, err := strconv.ParseInt(getEnvOrDefault("MAX_FILE_SIZE_MB", "10"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid max file size: %v", err)
	}

	sessionTTL, err := strconv.Atoi(getEnvOrDefault("UPLOAD_SESSION_TTL_MINUTES", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid upload session ttl: %v", err)
	}

	rps, err := strconv.ParseFloat(getEnvOrDefault("RATE_LIMIT_RPS", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit rps: %v", err)
	}

	burst, err := strconv.Atoi(getEnvOrDefault("RATE_LIMIT_BURST", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit burst: %v", err)
	}

	config := &Config{
		Port:                getEnvOrDefault("PORT", "8080"),
		ModelAPIURL:         getEnvOrDefault("MODEL_API_URL", "http://localhost:8001"),
		ModelTimeout:        modelTimeout,
		HealthTimeout:       healthTimeout,
		HealthCheckInterval: healthInterval,
		MaxFileSizeMB:       maxFileSize,
		SimulationMinDelay:  simMin,
		SimulationMaxDelay:  simMax,
		UploadSessionTTL:    time.Duration(sessionTTL) * time.Minute,
		RateLimitRPS:        rps,
		RateLimitBurst:      burst,
		APIKey:              getEnvOrDefault("API_KEY", ""),
		DatabaseURL:         getEnvOrDefault("DATABASE_URL", ""),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvMillis(key string, defaultValue int) (time.Duration, error) {
	ms, err := strconv.Atoi(getEnvOrDefault(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
