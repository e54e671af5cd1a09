package domain

import "time"

// WeatherSnapshot represents normalized current conditions for a location
type WeatherSnapshot struct {
	District    string        `json:"district,omitempty"`
	City        string        `json:"city"`
	Country     string        `json:"country,omitempty"`
	Temperature int           `json:"temperature"`
	Humidity    int           `json:"humidity"`
	Wind        int           `json:"wind"`
	Condition   string        `json:"condition"`
	Description string        `json:"description,omitempty"`
	Icon        string        `json:"icon"`
	Pressure    int           `json:"pressure,omitempty"`
	Visibility  float64       `json:"visibility,omitempty"`
	UVIndex     *float64      `json:"uv_index,omitempty"`
	Hourly      []HourlyPoint `json:"hourly,omitempty"`
	Daily       []DailyPoint  `json:"daily,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	IsMock      bool          `json:"is_mock"`
}

// HourlyPoint is one hour of forecast data
type HourlyPoint struct {
	Time                     time.Time `json:"time"`
	Temperature              int       `json:"temperature"`
	Humidity                 int       `json:"humidity"`
	Condition                string    `json:"condition"`
	Icon                     string    `json:"icon"`
	PrecipitationProbability int       `json:"precipitation_probability"`
}

// DailyPoint is one day of forecast data
type DailyPoint struct {
	Date                     time.Time `json:"date"`
	TempMin                  int       `json:"temp_min"`
	TempMax                  int       `json:"temp_max"`
	Humidity                 int       `json:"humidity"`
	Condition                string    `json:"condition"`
	Description              string    `json:"description,omitempty"`
	Icon                     string    `json:"icon"`
	PrecipitationProbability int       `json:"precipitation_probability"`
}

// Provider sizes for the optional forecast series.
const (
	HourlyPoints = 24
	DailyPoints  = 7
)

// DefaultWeatherIcon is shown for any condition outside the known vocabulary.
const DefaultWeatherIcon = "🌤️"

var conditionIcons = map[string]string{
	"Clear":        "☀️",
	"Clouds":       "☁️",
	"Rain":         "🌧️",
	"Drizzle":      "🌦️",
	"Thunderstorm": "⛈️",
	"Snow":         "❄️",
	"Mist":         "🌫️",
	"Fog":          "🌫️",
	"Haze":         "🌫️",
}

// ConditionIcon maps a provider condition to a display icon. It is total:
// unknown conditions get DefaultWeatherIcon.
func ConditionIcon(condition string) string {
	if icon, ok := conditionIcons[condition]; ok {
		return icon
	}
	return DefaultWeatherIcon
}
