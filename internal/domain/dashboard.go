package domain

import "time"

// SoilHealth represents synthesized soil indicators for the dashboard
type SoilHealth struct {
	PH         float64 `json:"ph"`
	Nitrogen   string  `json:"nitrogen"`
	Phosphorus string  `json:"phosphorus"`
	Potassium  string  `json:"potassium"`
}

// Suggestions holds the dashboard's advice for today and tomorrow
type Suggestions struct {
	Today    string `json:"today"`
	Tomorrow string `json:"tomorrow"`
}

// DashboardSnapshot aggregates everything the dashboard surface renders
type DashboardSnapshot struct {
	District    string          `json:"district"`
	Language    Language        `json:"language"`
	Weather     WeatherSnapshot `json:"weather"`
	Forecast    []DailyPoint    `json:"forecast,omitempty"`
	SoilHealth  SoilHealth      `json:"soil_health"`
	Suggestions Suggestions     `json:"suggestions"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// PredictionResult is what the prediction surface renders: the prediction
// plus crop advice, each of which may independently come from a fallback.
type PredictionResult struct {
	Prediction YieldPrediction `json:"prediction"`
	Advice     string          `json:"advice"`
	AdviceNote string          `json:"advice_note,omitempty"`
}

// ChatReply is the chat surface's view of one advisory turn.
type ChatReply struct {
	Message   string    `json:"message"`
	Language  Language  `json:"language"`
	Timestamp time.Time `json:"timestamp"`
}
