package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"neurowave-gateway/internal/models"
)

const schema = `
	CREATE TABLE IF NOT EXISTS prediction_logs (
		id                 BIGSERIAL PRIMARY KEY,
		filename           TEXT NOT NULL,
		file_size          BIGINT NOT NULL,
		file_type          TEXT NOT NULL,
		predicted_class    TEXT NOT NULL,
		confidence_score   DOUBLE PRECISION NOT NULL,
		processing_time_ms BIGINT NOT NULL,
		mode               TEXT NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS prediction_logs_created_at_idx ON prediction_logs (created_at DESC);
`

// PostgresRepository stores prediction logs in PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the prediction_logs table if it does not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return nil
}

// SavePrediction persists one classification outcome
func (r *PostgresRepository) SavePrediction(ctx context.Context, entry models.PredictionLog) error {
	query := `
		INSERT INTO prediction_logs (
			filename, file_size, file_type, predicted_class,
			confidence_score, processing_time_ms, mode, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.Filename, entry.FileSize, entry.FileType, entry.PredictedClass,
		entry.ConfidenceScore, entry.ProcessingTimeMs, entry.Mode, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save prediction log: %w", err)
	}

	return nil
}

// RecentPredictions returns the newest prediction logs first
func (r *PostgresRepository) RecentPredictions(ctx context.Context, limit int) ([]models.PredictionLog, error) {
	query := `
		SELECT id, filename, file_size, file_type, predicted_class,
			   confidence_score, processing_time_ms, mode, created_at
		FROM prediction_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query prediction logs: %w", err)
	}
	defer rows.Close()

	results := make([]models.PredictionLog, 0, limit)
	for rows.Next() {
		var p models.PredictionLog
		err := rows.Scan(
			&p.ID, &p.Filename, &p.FileSize, &p.FileType, &p.PredictedClass,
			&p.ConfidenceScore, &p.ProcessingTimeMs, &p.Mode, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan prediction row: %w", err)
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read prediction logs: %w", err)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
