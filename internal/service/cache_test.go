package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfarmer/backend/internal/domain"
	"github.com/smartfarmer/backend/internal/observability"
)

// countingGeocoder resolves every name to a fixed location and counts calls.
type countingGeocoder struct {
	calls map[string]int
	err   error
}

func (g *countingGeocoder) Geocode(_ context.Context, name string) (domain.Location, error) {
	if g.calls == nil {
		g.calls = map[string]int{}
	}
	g.calls[name]++
	if g.err != nil {
		return domain.Location{}, g.err
	}
	return domain.Location{District: "Puri", City: name}, nil
}

func TestCachedGeocoder_EvictsLeastRecentlyUsed(t *testing.T) {
	inner := &countingGeocoder{}
	metrics := observability.NewMetricsForTesting()
	geo := NewCachedGeocoder(inner, 2, metrics)
	ctx := context.Background()

	for _, name := range []string{"Konark", "Pipili", "konark ", "Satapada", "Konark", "Pipili"} {
		_, err := geo.Geocode(ctx, name)
		require.NoError(t, err)
	}

	// Satapada evicted Pipili; Konark stayed warm.
	assert.Equal(t, 1, inner.calls["Konark"])
	assert.Equal(t, 2, inner.calls["Pipili"])
	assert.Equal(t, 2.0, counterValue(t, metrics.GeocodeCache.WithLabelValues("hit")))
	assert.Equal(t, 4.0, counterValue(t, metrics.GeocodeCache.WithLabelValues("miss")))
}

func TestCachedGeocoder_FailuresAreNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("down")}
	geo := NewCachedGeocoder(inner, 0, nil)

	_, err := geo.Geocode(context.Background(), "Konark")
	require.Error(t, err)

	inner.err = nil
	loc, err := geo.Geocode(context.Background(), "Konark")
	require.NoError(t, err)
	assert.Equal(t, "Konark", loc.City)
	assert.Equal(t, 2, inner.calls["Konark"])
}
