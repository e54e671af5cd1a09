package domain

import (
	"context"
	"time"
)

// PredictionLog is a persisted prediction request/response pair
type PredictionLog struct {
	ID         string          `json:"id"`
	Input      FarmInput       `json:"input"`
	Prediction YieldPrediction `json:"prediction"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// DataRepository defines the interface for data persistence
// This follows the Dependency Inversion Principle - domain defines the interface
type DataRepository interface {
	// SaveWeatherSnapshot persists a weather snapshot fetched from the provider
	SaveWeatherSnapshot(ctx context.Context, data WeatherSnapshot) error

	// SavePredictionLog persists a prediction request/response
	SavePredictionLog(ctx context.Context, entry PredictionLog) error

	// RecentPredictions returns the newest prediction logs first
	RecentPredictions(ctx context.Context, limit int) ([]PredictionLog, error)

	// Health checks storage connectivity
	Health(ctx context.Context) error
}
