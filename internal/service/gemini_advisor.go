package service

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/smartfarmer/backend/internal/domain"
)

// contentGenerator is the slice of *genai.Models the advisor needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var languageNames = map[domain.Language]string{
	domain.LanguageEnglish: "English",
	domain.LanguageHindi:   "Hindi",
	domain.LanguageOdia:    "Odia",
}

// GeminiAdvisor implements AdvisoryProvider with the Gemini API.
type GeminiAdvisor struct {
	models contentGenerator
	model  string
}

// NewGeminiAdvisor creates a Gemini-backed advisor.
func NewGeminiAdvisor(ctx context.Context, apiKey, model string) (*GeminiAdvisor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}
	return &GeminiAdvisor{models: client.Models, model: model}, nil
}

// Ask sends the message with the farm context as a system instruction.
func (g *GeminiAdvisor) Ask(ctx context.Context, message string, actx domain.AdvisoryContext) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction(actx), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.4),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(message), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w: %v", domain.ErrRemoteUnavailable, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: empty response: %w", domain.ErrMalformedResponse)
	}
	return text, nil
}

func systemInstruction(actx domain.AdvisoryContext) string {
	var b strings.Builder
	b.WriteString("You are an agricultural advisor for smallholder farmers in Odisha, India. ")
	b.WriteString("Give short, practical answers. Reply in ")
	b.WriteString(languageNames[domain.ParseLanguage(string(actx.Language))])
	b.WriteString(".")
	if actx.District != "" {
		fmt.Fprintf(&b, " District: %s.", actx.District)
	}
	if actx.Season != "" {
		fmt.Fprintf(&b, " Season: %s.", actx.Season)
	}
	if actx.Crop != "" {
		fmt.Fprintf(&b, " Crop: %s.", actx.Crop)
	}
	if actx.Area > 0 {
		fmt.Fprintf(&b, " Area: %g hectares.", actx.Area)
	}
	if w := actx.Weather; w != nil {
		fmt.Fprintf(&b, " Current weather: %s, %d°C, %d%% humidity.", w.Condition, w.Temperature, w.Humidity)
	}
	return b.String()
}
