package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/smartfarmer/backend/internal/config"
	"github.com/smartfarmer/backend/internal/domain"
	"github.com/smartfarmer/backend/internal/observability"
)

// AdvisoryProvider answers a farming question. Implementations return
// classified domain errors.
type AdvisoryProvider interface {
	Ask(ctx context.Context, message string, actx domain.AdvisoryContext) (string, error)
}

// NewAdvisoryProvider picks the configured provider: the chatbot endpoint
// first, then Gemini. It returns nil when neither is configured.
func NewAdvisoryProvider(ctx context.Context, cfg *config.Config) (AdvisoryProvider, error) {
	switch {
	case cfg.ChatbotURL != "":
		return NewChatbotClient(cfg.ChatbotURL, cfg.ChatbotPayloadFormat, cfg.RemoteTimeout), nil
	case cfg.GeminiAPIKey != "":
		advisor, err := NewGeminiAdvisor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return advisor, nil
	default:
		return nil, nil
	}
}

// AdvisoryService is the advisory gateway. Ask never fails: provider errors
// are recorded in the response and answered from the canned table.
type AdvisoryService struct {
	provider AdvisoryProvider
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAdvisoryService creates the advisory gateway. provider may be nil.
func NewAdvisoryService(provider AdvisoryProvider, clock clockwork.Clock, metrics *observability.Metrics, logger *zap.Logger) *AdvisoryService {
	return &AdvisoryService{provider: provider, clock: clock, metrics: metrics, logger: logger}
}

// Ask sends message to the provider with the optional context.
func (s *AdvisoryService) Ask(ctx context.Context, message string, actx domain.AdvisoryContext) domain.AdvisoryResponse {
	actx.Language = domain.ParseLanguage(string(actx.Language))

	answer, err := s.ask(ctx, message, actx)
	if err != nil {
		if errors.Is(err, domain.ErrConfigurationMissing) {
			s.logger.Info("advisory provider not configured, using canned reply")
		} else {
			s.logger.Warn("advisory provider unavailable, using canned reply", zap.Error(err))
		}
		s.metrics.Observe(observability.GatewayAdvisory, observability.OutcomeFallback)
		return domain.AdvisoryResponse{
			Success:   false,
			Message:   FallbackResponse(message, actx.Language),
			Error:     err.Error(),
			Timestamp: s.clock.Now(),
		}
	}

	s.metrics.Observe(observability.GatewayAdvisory, observability.OutcomeRemote)
	return domain.AdvisoryResponse{Success: true, Message: answer, Timestamp: s.clock.Now()}
}

func (s *AdvisoryService) ask(ctx context.Context, message string, actx domain.AdvisoryContext) (string, error) {
	if s.provider == nil {
		return "", fmt.Errorf("advisory: %w", domain.ErrConfigurationMissing)
	}
	start := s.clock.Now()
	defer func() {
		s.metrics.ObserveDuration(observability.GatewayAdvisory, s.clock.Since(start).Seconds())
	}()
	return s.provider.Ask(ctx, message, actx)
}

// CropAdviceMessage builds the question asked for a submitted prediction.
func CropAdviceMessage(in domain.FarmInput) string {
	return fmt.Sprintf("I need advice for growing %s in %s district during %s season on %g hectares. "+
		"What are the best practices, potential challenges, and recommendations?",
		in.PrimaryCrop(), in.District, in.Season, in.TotalArea())
}

// WeatherAdviceMessage builds the question asked for the dashboard's daily tip.
func WeatherAdviceMessage(w domain.WeatherSnapshot, crop, district string) string {
	return fmt.Sprintf("Given the current weather conditions (%s, %d°C, %d%% humidity), "+
		"what farming activities should I focus on for my %s crop in %s?",
		w.Condition, w.Temperature, w.Humidity, crop, district)
}
