package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartfarmer/backend/internal/domain"
)

const (
	tableWeather     = "weather_snapshots"
	tablePredictions = "prediction_logs"

	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// Schema creates the tables used by the repository.
const Schema = `
CREATE TABLE IF NOT EXISTS weather_snapshots (
	id          BIGSERIAL PRIMARY KEY,
	district    TEXT NOT NULL,
	city        TEXT NOT NULL,
	temperature INTEGER NOT NULL,
	humidity    INTEGER NOT NULL,
	wind        INTEGER NOT NULL,
	condition   TEXT NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL,
	payload     JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS prediction_logs (
	id              UUID PRIMARY KEY,
	district        TEXT NOT NULL,
	season          TEXT NOT NULL,
	crop            TEXT NOT NULL,
	area            DOUBLE PRECISION NOT NULL,
	predicted_yield DOUBLE PRECISION NOT NULL,
	is_mock         BOOLEAN NOT NULL,
	note            TEXT NOT NULL DEFAULT '',
	input           JSONB NOT NULL,
	prediction      JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS prediction_logs_created_at_idx ON prediction_logs (created_at DESC);
`

var predictionColumns = []string{"id", "input", "prediction", "note", "created_at"}

// dbtx is the subset of *pgxpool.Pool the repository uses.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// PostgresRepository implements domain.DataRepository
type PostgresRepository struct {
	db dbtx
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: pool}
}

// builder returns a statement builder using PostgreSQL placeholders.
func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// EnsureSchema creates missing tables.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return nil
}

// SaveWeatherSnapshot persists a provider snapshot to PostgreSQL
func (r *PostgresRepository) SaveWeatherSnapshot(ctx context.Context, data domain.WeatherSnapshot) error {
	query, args, err := insertWeatherQuery(data)
	if err != nil {
		return fmt.Errorf("postgres: failed to build weather insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres: failed to save weather snapshot: %w", err)
	}
	return nil
}

func insertWeatherQuery(data domain.WeatherSnapshot) (string, []any, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", nil, err
	}
	return builder().Insert(tableWeather).
		Columns("district", "city", "temperature", "humidity", "wind", "condition", "observed_at", "payload").
		Values(data.District, data.City, data.Temperature, data.Humidity, data.Wind, data.Condition, data.Timestamp, payload).
		ToSql()
}

// SavePredictionLog persists a prediction request/response to PostgreSQL
func (r *PostgresRepository) SavePredictionLog(ctx context.Context, entry domain.PredictionLog) error {
	query, args, err := insertPredictionQuery(entry)
	if err != nil {
		return fmt.Errorf("postgres: failed to build prediction insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres: failed to save prediction log: %w", err)
	}
	return nil
}

func insertPredictionQuery(entry domain.PredictionLog) (string, []any, error) {
	input, err := json.Marshal(entry.Input)
	if err != nil {
		return "", nil, err
	}
	prediction, err := json.Marshal(entry.Prediction)
	if err != nil {
		return "", nil, err
	}
	return builder().Insert(tablePredictions).
		Columns("id", "district", "season", "crop", "area", "predicted_yield", "is_mock", "note", "input", "prediction", "created_at").
		Values(
			entry.ID, entry.Input.District, entry.Input.Season, entry.Input.PrimaryCrop(), entry.Input.TotalArea(),
			entry.Prediction.PredictedYield, entry.Prediction.IsMock, entry.Note, input, prediction, entry.CreatedAt,
		).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
}

// RecentPredictions returns the newest prediction logs first
func (r *PostgresRepository) RecentPredictions(ctx context.Context, limit int) ([]domain.PredictionLog, error) {
	query, args, err := recentPredictionsQuery(limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to build prediction query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query prediction logs: %w", err)
	}
	defer rows.Close()

	var results []domain.PredictionLog
	for rows.Next() {
		var (
			e                 domain.PredictionLog
			input, prediction []byte
		)
		if err := rows.Scan(&e.ID, &input, &prediction, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan prediction row: %w", err)
		}
		if err := errors.Join(json.Unmarshal(input, &e.Input), json.Unmarshal(prediction, &e.Prediction)); err != nil {
			return nil, fmt.Errorf("postgres: failed to decode prediction row %s: %w", e.ID, err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read prediction logs: %w", err)
	}

	return results, nil
}

func recentPredictionsQuery(limit int) (string, []any, error) {
	return builder().Select(predictionColumns...).
		From(tablePredictions).
		OrderBy("created_at DESC").
		Limit(uint64(clampLimit(limit))).
		ToSql()
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecentLimit
	case limit > maxRecentLimit:
		return maxRecentLimit
	default:
		return limit
	}
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
