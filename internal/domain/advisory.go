package domain

import (
	"strings"
	"time"
)

// Language is one of the closed set of UI languages.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
	LanguageOdia    Language = "or"
)

// ParseLanguage normalizes a language code; anything unknown is English.
func ParseLanguage(code string) Language {
	switch Language(strings.ToLower(strings.TrimSpace(code))) {
	case LanguageHindi:
		return LanguageHindi
	case LanguageOdia:
		return LanguageOdia
	default:
		return LanguageEnglish
	}
}

// AdvisoryContext is optional enrichment sent along with a chat message.
// None of the fields are required.
type AdvisoryContext struct {
	Language Language         `json:"language"`
	District string           `json:"district,omitempty"`
	Season   string           `json:"season,omitempty"`
	Crop     string           `json:"crop,omitempty"`
	Area     float64          `json:"area,omitempty"`
	Weather  *WeatherSnapshot `json:"weather,omitempty"`
	UserID   string           `json:"userId,omitempty"`
}

// AdvisoryResponse is the result of one chat turn. Success is false when the
// message came from the canned fallback table; Error then holds the cause.
type AdvisoryResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
