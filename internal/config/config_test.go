package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.OpenWeatherAPIKey)
	assert.Equal(t, "https://api.openweathermap.org", cfg.OpenWeatherBaseURL)
	assert.Equal(t, WeatherVariantCurrent, cfg.WeatherVariant)
	assert.Equal(t, 1, cfg.WeatherMaxRetries)
	assert.Equal(t, 500, cfg.GeocodeCacheSize)
	assert.Equal(t, MLPayloadJSON, cfg.MLPayloadFormat)
	assert.Equal(t, ChatbotPayloadMessage, cfg.ChatbotPayloadFormat)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 8*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "Cuttack", cfg.DefaultDistrict)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Zero(t, cfg.RandomSeed)

	assert.False(t, cfg.WeatherEnabled())
	assert.False(t, cfg.MLEnabled())
	assert.False(t, cfg.AdvisoryEnabled())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("DATABASE_URL", "postgres://farmer@localhost/farm")
	t.Setenv("OPENWEATHER_API_KEY", " ow-key ")
	t.Setenv("OPENWEATHER_BASE_URL", "http://weather.local/")
	t.Setenv("WEATHER_VARIANT", "onecall")
	t.Setenv("WEATHER_MAX_RETRIES", "3")
	t.Setenv("GEOCODE_CACHE_SIZE", "50")
	t.Setenv("ML_SERVICE_URL", "http://ml.local/")
	t.Setenv("ML_PAYLOAD_FORMAT", "positional")
	t.Setenv("CHATBOT_API_URL", "http://chat.local")
	t.Setenv("CHATBOT_PAYLOAD_FORMAT", "question")
	t.Setenv("REMOTE_TIMEOUT", "5s")
	t.Setenv("REFRESH_INTERVAL", "1m")
	t.Setenv("DEFAULT_DISTRICT", "Puri")
	t.Setenv("DEFAULT_LANGUAGE", "or")
	t.Setenv("RANDOM_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "postgres://farmer@localhost/farm", cfg.DatabaseURL)
	assert.Equal(t, "ow-key", cfg.OpenWeatherAPIKey)
	assert.Equal(t, "http://weather.local", cfg.OpenWeatherBaseURL)
	assert.Equal(t, WeatherVariantOneCall, cfg.WeatherVariant)
	assert.Equal(t, 3, cfg.WeatherMaxRetries)
	assert.Equal(t, 50, cfg.GeocodeCacheSize)
	assert.Equal(t, "http://ml.local", cfg.MLServiceURL)
	assert.Equal(t, MLPayloadPositional, cfg.MLPayloadFormat)
	assert.Equal(t, "http://chat.local", cfg.ChatbotURL)
	assert.Equal(t, ChatbotPayloadQuestion, cfg.ChatbotPayloadFormat)
	assert.Equal(t, 5*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "Puri", cfg.DefaultDistrict)
	assert.Equal(t, "or", cfg.DefaultLanguage)
	assert.Equal(t, int64(42), cfg.RandomSeed)

	assert.True(t, cfg.WeatherEnabled())
	assert.True(t, cfg.MLEnabled())
	assert.True(t, cfg.AdvisoryEnabled())
}

func TestLoad_GeminiKeyEnablesAdvisory(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AdvisoryEnabled())
}

func TestLoad_InvalidRemoteTimeout(t *testing.T) {
	t.Setenv("REMOTE_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REMOTE_TIMEOUT")
}

func TestLoad_NegativeRefreshInterval(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "-1m")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REFRESH_INTERVAL")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "0s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidWeatherVariant(t *testing.T) {
	t.Setenv("WEATHER_VARIANT", "hourly")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEATHER_VARIANT")
}

func TestLoad_InvalidPayloadFormats(t *testing.T) {
	t.Run("ml", func(t *testing.T) {
		t.Setenv("ML_PAYLOAD_FORMAT", "xml")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ML_PAYLOAD_FORMAT")
	})
	t.Run("chatbot", func(t *testing.T) {
		t.Setenv("CHATBOT_PAYLOAD_FORMAT", "prompt")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CHATBOT_PAYLOAD_FORMAT")
	})
}

func TestLoad_NegativeRetries(t *testing.T) {
	t.Setenv("WEATHER_MAX_RETRIES", "-2")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEATHER_MAX_RETRIES")
}

func TestLoad_NonPositiveCacheSizeFallsBackToDefault(t *testing.T) {
	t.Setenv("GEOCODE_CACHE_SIZE", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.GeocodeCacheSize)
}
