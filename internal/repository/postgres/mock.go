package postgres

import (
	"context"
	"sync"

	"github.com/smartfarmer/backend/internal/domain"
)

// mockCapacity bounds how many rows of each kind are kept in memory.
const mockCapacity = 500

// MockRepository implements domain.DataRepository in memory for demo mode
type MockRepository struct {
	mu          sync.RWMutex
	weather     []domain.WeatherSnapshot
	predictions []domain.PredictionLog
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// SaveWeatherSnapshot keeps the snapshot in memory
func (r *MockRepository) SaveWeatherSnapshot(_ context.Context, data domain.WeatherSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weather = appendBounded(r.weather, data)
	return nil
}

// SavePredictionLog keeps the entry in memory
func (r *MockRepository) SavePredictionLog(_ context.Context, entry domain.PredictionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.predictions = appendBounded(r.predictions, entry)
	return nil
}

// RecentPredictions returns the newest entries first
func (r *MockRepository) RecentPredictions(_ context.Context, limit int) ([]domain.PredictionLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit = clampLimit(limit)
	out := make([]domain.PredictionLog, 0, min(limit, len(r.predictions)))
	for i := len(r.predictions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.predictions[i])
	}
	return out, nil
}

// WeatherSnapshots returns how many snapshots are held
func (r *MockRepository) WeatherSnapshots() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.weather)
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(context.Context) error {
	return nil
}

func appendBounded[T any](s []T, v T) []T {
	s = append(s, v)
	if len(s) > mockCapacity {
		s = s[len(s)-mockCapacity:]
	}
	return s
}
