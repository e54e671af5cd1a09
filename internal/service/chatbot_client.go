package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/smartfarmer/backend/internal/config"
	"github.com/smartfarmer/backend/internal/domain"
)

// answerFields lists where chatbot deployments have put their reply text.
var answerFields = []string{"response", "message", "answer", "reply", "text", "output"}

// ChatbotClient implements AdvisoryProvider against a hosted chat endpoint.
type ChatbotClient struct {
	baseURL       string
	payloadFormat string
	remote        *remoteClient
}

// NewChatbotClient creates a chatbot provider for POST {baseURL}/chat.
func NewChatbotClient(baseURL, payloadFormat string, timeout time.Duration) *ChatbotClient {
	return &ChatbotClient{
		baseURL:       baseURL,
		payloadFormat: payloadFormat,
		remote:        newRemoteClient("chatbot", timeout, 0),
	}
}

type chatContext struct {
	Language string                  `json:"language"`
	District *string                 `json:"district"`
	Season   *string                 `json:"season"`
	Crop     *string                 `json:"crop"`
	Area     *float64                `json:"area,omitempty"`
	Weather  *domain.WeatherSnapshot `json:"weather"`
	UserID   *string                 `json:"userId"`
}

type chatRequest struct {
	Message string      `json:"message"`
	Context chatContext `json:"context"`
}

type questionRequest struct {
	Question string `json:"question"`
	Language string `json:"language,omitempty"`
}

// Ask posts the message and extracts the reply text.
func (c *ChatbotClient) Ask(ctx context.Context, message string, actx domain.AdvisoryContext) (string, error) {
	body, err := json.Marshal(c.payload(message, actx))
	if err != nil {
		return "", fmt.Errorf("chatbot: failed to marshal request: %w", err)
	}

	var raw map[string]any
	if err := c.remote.postJSON(ctx, c.baseURL+"/chat", body, &raw); err != nil {
		return "", err
	}

	if answer := extractAnswer(raw); answer != "" {
		return answer, nil
	}
	return "", fmt.Errorf("chatbot: no answer field in response: %w", domain.ErrMalformedResponse)
}

func (c *ChatbotClient) payload(message string, actx domain.AdvisoryContext) any {
	lang := string(domain.ParseLanguage(string(actx.Language)))
	if c.payloadFormat == config.ChatbotPayloadQuestion {
		return questionRequest{Question: message, Language: lang}
	}
	cc := chatContext{
		Language: lang,
		District: optional(actx.District),
		Season:   optional(actx.Season),
		Crop:     optional(actx.Crop),
		Weather:  actx.Weather,
		UserID:   optional(actx.UserID),
	}
	if actx.Area > 0 {
		cc.Area = &actx.Area
	}
	return chatRequest{Message: message, Context: cc}
}

// extractAnswer looks for the reply at the top level, then under "data".
func extractAnswer(raw map[string]any) string {
	for _, k := range answerFields {
		if s, ok := raw[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	if nested, ok := raw["data"].(map[string]any); ok {
		return extractAnswer(nested)
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
