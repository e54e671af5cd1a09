package service

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smartfarmer/backend/internal/config"
)

// countingServer is a fake provider that records how often it was hit.
type countingServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newCountingServer(t *testing.T, h http.HandlerFunc) *countingServer {
	t.Helper()
	cs := &countingServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *countingServer) Calls() int { return int(cs.calls.Load()) }

func testConfig() *config.Config {
	return &config.Config{
		OpenWeatherBaseURL:   "http://127.0.0.1:0",
		WeatherVariant:       config.WeatherVariantCurrent,
		GeocodeCacheSize:     10,
		MLPayloadFormat:      config.MLPayloadJSON,
		ChatbotPayloadFormat: config.ChatbotPayloadMessage,
		RemoteTimeout:        2 * time.Second,
		RefreshInterval:      time.Minute,
		DefaultDistrict:      "Cuttack",
		DefaultLanguage:      "en",
	}
}
