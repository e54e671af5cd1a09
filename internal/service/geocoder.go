package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/smartfarmer/backend/internal/domain"
)

// Geocoder resolves a free-text place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (domain.Location, error)
}

// OpenWeatherGeocoder implements Geocoder with the OpenWeather direct geocoding API.
type OpenWeatherGeocoder struct {
	apiKey  string
	baseURL string
	remote  *remoteClient
}

// NewOpenWeatherGeocoder creates a geocoder sharing the weather provider's credentials.
func NewOpenWeatherGeocoder(apiKey, baseURL string, remote *remoteClient) *OpenWeatherGeocoder {
	return &OpenWeatherGeocoder{apiKey: apiKey, baseURL: baseURL, remote: remote}
}

type geocodeResult struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

// Geocode looks up the best match for name and attaches the nearest district.
func (g *OpenWeatherGeocoder) Geocode(ctx context.Context, name string) (domain.Location, error) {
	if g.apiKey == "" {
		return domain.Location{}, fmt.Errorf("geocode: %w", domain.ErrConfigurationMissing)
	}

	params := url.Values{
		"q":     {name},
		"limit": {"1"},
		"appid": {g.apiKey},
	}
	var results []geocodeResult
	if err := g.remote.getJSON(ctx, g.baseURL+"/geo/1.0/direct?"+params.Encode(), &results); err != nil {
		return domain.Location{}, err
	}
	if len(results) == 0 {
		return domain.Location{}, fmt.Errorf("geocode: %q: %w", name, domain.ErrUnknownLocation)
	}

	r := results[0]
	city := r.Name
	if strings.TrimSpace(city) == "" {
		city = name
	}
	return domain.Location{
		District: domain.NearestDistrict(r.Lat, r.Lon).District,
		City:     city,
		Lat:      r.Lat,
		Lon:      r.Lon,
	}, nil
}
