package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Weather provider response variants.
const (
	WeatherVariantCurrent = "current"
	WeatherVariantOneCall = "onecall"
)

// Outbound payload formats.
const (
	MLPayloadJSON           = "json"
	MLPayloadPositional     = "positional"
	ChatbotPayloadMessage   = "message"
	ChatbotPayloadQuestion  = "question"
	defaultOpenWeatherBase  = "https://api.openweathermap.org"
	defaultGeminiModel      = "gemini-2.0-flash"
	defaultDistrict         = "Cuttack"
	defaultLanguage         = "en"
	defaultGeocodeCacheSize = 500
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Port     string
	Env      string
	LogLevel string
	// LogFormat is "json" or "console".
	LogFormat   string
	DatabaseURL string

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	WeatherVariant     string
	WeatherMaxRetries  int
	GeocodeCacheSize   int

	MLServiceURL    string
	MLPayloadFormat string

	ChatbotURL           string
	ChatbotPayloadFormat string
	GeminiAPIKey         string
	GeminiModel          string

	RemoteTimeout   time.Duration
	RefreshInterval time.Duration
	ShutdownTimeout time.Duration

	DefaultDistrict string
	DefaultLanguage string
	RandomSeed      int64
}

// Load reads configuration from environment variables, applying defaults where unset.
// Missing credentials are not an error: the gateways degrade to fallback data.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("OPENWEATHER_BASE_URL", defaultOpenWeatherBase)
	v.SetDefault("WEATHER_VARIANT", WeatherVariantCurrent)
	v.SetDefault("WEATHER_MAX_RETRIES", 1)
	v.SetDefault("GEOCODE_CACHE_SIZE", defaultGeocodeCacheSize)
	v.SetDefault("ML_PAYLOAD_FORMAT", MLPayloadJSON)
	v.SetDefault("CHATBOT_PAYLOAD_FORMAT", ChatbotPayloadMessage)
	v.SetDefault("GEMINI_MODEL", defaultGeminiModel)
	v.SetDefault("REMOTE_TIMEOUT", "8s")
	v.SetDefault("REFRESH_INTERVAL", "5m")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DEFAULT_DISTRICT", defaultDistrict)
	v.SetDefault("DEFAULT_LANGUAGE", defaultLanguage)
	v.SetDefault("RANDOM_SEED", 0)

	remoteTimeout, err := parsePositiveDuration(v, "REMOTE_TIMEOUT")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parsePositiveDuration(v, "REFRESH_INTERVAL")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parsePositiveDuration(v, "SHUTDOWN_TIMEOUT")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        v.GetString("PORT"),
		Env:         v.GetString("GO_ENV"),
		LogLevel:    strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:   strings.ToLower(v.GetString("LOG_FORMAT")),
		DatabaseURL: v.GetString("DATABASE_URL"),

		OpenWeatherAPIKey:  strings.TrimSpace(v.GetString("OPENWEATHER_API_KEY")),
		OpenWeatherBaseURL: strings.TrimRight(v.GetString("OPENWEATHER_BASE_URL"), "/"),
		WeatherVariant:     strings.ToLower(v.GetString("WEATHER_VARIANT")),
		WeatherMaxRetries:  v.GetInt("WEATHER_MAX_RETRIES"),
		GeocodeCacheSize:   v.GetInt("GEOCODE_CACHE_SIZE"),

		MLServiceURL:    strings.TrimRight(strings.TrimSpace(v.GetString("ML_SERVICE_URL")), "/"),
		MLPayloadFormat: strings.ToLower(v.GetString("ML_PAYLOAD_FORMAT")),

		ChatbotURL:           strings.TrimRight(strings.TrimSpace(v.GetString("CHATBOT_API_URL")), "/"),
		ChatbotPayloadFormat: strings.ToLower(v.GetString("CHATBOT_PAYLOAD_FORMAT")),
		GeminiAPIKey:         strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		GeminiModel:          v.GetString("GEMINI_MODEL"),

		RemoteTimeout:   remoteTimeout,
		RefreshInterval: refreshInterval,
		ShutdownTimeout: shutdownTimeout,

		DefaultDistrict: v.GetString("DEFAULT_DISTRICT"),
		DefaultLanguage: v.GetString("DEFAULT_LANGUAGE"),
		RandomSeed:      v.GetInt64("RANDOM_SEED"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.WeatherVariant {
	case WeatherVariantCurrent, WeatherVariantOneCall:
	default:
		return fmt.Errorf("invalid WEATHER_VARIANT %q", c.WeatherVariant)
	}
	switch c.MLPayloadFormat {
	case MLPayloadJSON, MLPayloadPositional:
	default:
		return fmt.Errorf("invalid ML_PAYLOAD_FORMAT %q", c.MLPayloadFormat)
	}
	switch c.ChatbotPayloadFormat {
	case ChatbotPayloadMessage, ChatbotPayloadQuestion:
	default:
		return fmt.Errorf("invalid CHATBOT_PAYLOAD_FORMAT %q", c.ChatbotPayloadFormat)
	}
	if c.WeatherMaxRetries < 0 {
		return errors.New("WEATHER_MAX_RETRIES must not be negative")
	}
	if c.GeocodeCacheSize <= 0 {
		c.GeocodeCacheSize = defaultGeocodeCacheSize
	}
	return nil
}

// WeatherEnabled reports whether the weather provider is configured.
func (c *Config) WeatherEnabled() bool { return c.OpenWeatherAPIKey != "" }

// MLEnabled reports whether the yield prediction endpoint is configured.
func (c *Config) MLEnabled() bool { return c.MLServiceURL != "" }

// AdvisoryEnabled reports whether any advisory provider is configured.
func (c *Config) AdvisoryEnabled() bool { return c.ChatbotURL != "" || c.GeminiAPIKey != "" }

func parsePositiveDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
