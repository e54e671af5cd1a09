package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smartfarmer/backend/internal/config"
	"github.com/smartfarmer/backend/internal/domain"
	"github.com/smartfarmer/backend/internal/observability"
)

// defaultConfidence is reported when the model omits a confidence score.
const defaultConfidence = 85

// YieldService bridges to the remote yield model. Predict always produces a
// usable envelope: remote failures are answered by the simulator.
type YieldService struct {
	serviceURL    string
	payloadFormat string
	remote        *remoteClient
	validate      *validator.Validate
	sim           *Simulator
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NewYieldService creates the yield prediction gateway.
func NewYieldService(cfg *config.Config, sim *Simulator, metrics *observability.Metrics, logger *zap.Logger) *YieldService {
	return &YieldService{
		serviceURL:    cfg.MLServiceURL,
		payloadFormat: cfg.MLPayloadFormat,
		remote:        newRemoteClient("ml_bridge", cfg.RemoteTimeout, 0),
		validate:      validator.New(),
		sim:           sim,
		metrics:       metrics,
		logger:        logger,
	}
}

// Validate checks a farm input before any network I/O. Failures are
// *domain.ValidationError.
func (s *YieldService) Validate(in domain.FarmInput) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return validationMessage(verrs[0])
		}
		return domain.NewValidationError("input", err.Error())
	}
	if !in.MultiPlot() && (strings.TrimSpace(in.Crop) == "" || in.Area <= 0) {
		return domain.NewValidationError("crop", "crop and a positive area are required")
	}
	return nil
}

func validationMessage(fe validator.FieldError) *domain.ValidationError {
	switch fe.StructField() {
	case "District":
		return domain.NewValidationError("district", "district is required")
	case "Season":
		return domain.NewValidationError("season", "season is required")
	case "Crop", "Area":
		return domain.NewValidationError("subPlots", "every sub-plot needs a crop and a positive area")
	default:
		return domain.NewValidationError(strings.ToLower(fe.Field()), fe.Error())
	}
}

// Predict validates the input, calls the model and normalizes its answer.
// Any remote failure yields a simulated prediction marked with a note.
func (s *YieldService) Predict(ctx context.Context, in domain.FarmInput) domain.Envelope[domain.YieldPrediction] {
	if err := s.Validate(in); err != nil {
		s.metrics.Observe(observability.GatewayYield, observability.OutcomeValidation)
		return domain.Fail[domain.YieldPrediction](err.Error())
	}

	pred, err := s.callRemote(ctx, in)
	if err != nil {
		if errors.Is(err, domain.ErrConfigurationMissing) {
			s.logger.Info("ml service not configured, using simulated prediction")
		} else {
			s.logger.Warn("ml service unavailable, using simulated prediction", zap.Error(err))
		}
		s.metrics.Observe(observability.GatewayYield, observability.OutcomeFallback)
		return domain.Fallback(s.sim.SimulatePrediction(in), NoteSimulatedPrediction)
	}

	s.metrics.Observe(observability.GatewayYield, observability.OutcomeRemote)
	return domain.OK(pred)
}

// Status checks the model's health endpoint.
func (s *YieldService) Status(ctx context.Context) domain.ModelStatus {
	if s.serviceURL == "" {
		return domain.ModelStatus{Status: domain.ModelUnconfigured}
	}
	if err := s.remote.ping(ctx, s.serviceURL+"/health"); err != nil {
		return domain.ModelStatus{Status: domain.ModelOffline, URL: s.serviceURL, Error: err.Error()}
	}
	return domain.ModelStatus{Status: domain.ModelOnline, URL: s.serviceURL}
}

func (s *YieldService) callRemote(ctx context.Context, in domain.FarmInput) (domain.YieldPrediction, error) {
	if s.serviceURL == "" {
		return domain.YieldPrediction{}, fmt.Errorf("ml_bridge: %w", domain.ErrConfigurationMissing)
	}

	body, err := json.Marshal(s.payload(in))
	if err != nil {
		return domain.YieldPrediction{}, fmt.Errorf("ml_bridge: failed to marshal request: %w", err)
	}

	var raw any
	start := s.sim.clock.Now()
	err = s.remote.postJSON(ctx, s.serviceURL+"/predict", body, &raw)
	s.metrics.ObserveDuration(observability.GatewayYield, s.sim.clock.Since(start).Seconds())
	if err != nil {
		return domain.YieldPrediction{}, err
	}
	return s.normalize(raw, in)
}

// mlRequest is the object form of the prediction request.
type mlRequest struct {
	District string           `json:"district"`
	Year     int              `json:"year"`
	Season   string           `json:"season"`
	Crop     string           `json:"crop"`
	Area     float64          `json:"area"`
	SubPlots []domain.SubPlot `json:"subPlots"`
}

func (s *YieldService) payload(in domain.FarmInput) any {
	subPlots := in.SubPlots
	if subPlots == nil {
		subPlots = []domain.SubPlot{}
	}
	if s.payloadFormat == config.MLPayloadPositional {
		return map[string][]any{
			"data": {in.District, in.Year, in.Season, in.PrimaryCrop(), in.TotalArea(), subPlots},
		}
	}
	return mlRequest{
		District: in.District,
		Year:     in.Year,
		Season:   in.Season,
		Crop:     in.Crop,
		Area:     in.Area,
		SubPlots: subPlots,
	}
}

// normalize maps the model's response onto YieldPrediction. Field names vary
// between model deployments; missing derived fields are filled with the same
// formulas the simulator uses.
func (s *YieldService) normalize(raw any, in domain.FarmInput) (domain.YieldPrediction, error) {
	fields := unwrapPositional(raw)
	if fields == nil {
		return domain.YieldPrediction{}, fmt.Errorf("ml_bridge: unexpected response shape: %w", domain.ErrMalformedResponse)
	}

	perHa, ok := numberField(fields, "predicted_yield", "predictedYield", "yield", "prediction")
	if !ok || perHa <= 0 {
		return domain.YieldPrediction{}, fmt.Errorf("ml_bridge: no predicted yield in response: %w", domain.ErrMalformedResponse)
	}

	crop := in.PrimaryCrop()
	area := in.TotalArea()
	pred := domain.YieldPrediction{
		Crop:           crop,
		District:       in.District,
		Season:         in.Season,
		Year:           in.Year,
		Area:           area,
		PredictedYield: perHa,
		Factors: domain.Factors{
			District: in.District,
			Season:   in.Season,
			Crop:     crop,
			Year:     in.Year,
			Area:     area,
		},
	}

	if v, ok := numberField(fields, "total_yield", "totalYield"); ok {
		pred.TotalYield = v
	} else {
		pred.TotalYield = math.Round(perHa * area)
	}
	if v, ok := numberField(fields, "comparative_percentage", "comparativePercentage"); ok {
		pred.ComparativePercentage = v
	} else {
		pred.ComparativePercentage = domain.ComparativePercentage(crop, perHa)
	}
	if v, ok := numberField(fields, "confidence"); ok {
		pred.Confidence = int(math.Round(v))
	} else {
		pred.Confidence = defaultConfidence
	}
	if v, ok := numberField(fields, "market_price", "marketPrice"); ok {
		pred.MarketPrice = int(math.Round(v))
	} else {
		pred.MarketPrice = s.sim.MarketPrice(crop)
	}
	if v, ok := numberField(fields, "expected_revenue", "expectedRevenue"); ok {
		pred.ExpectedRevenue = int64(math.Round(v))
	} else {
		pred.ExpectedRevenue = s.sim.ExpectedRevenue(crop, pred.TotalYield)
	}
	if recs := stringsField(fields, "recommendations"); len(recs) > 0 {
		pred.Recommendations = recs
	} else {
		pred.Recommendations = s.sim.Recommendations(crop, in.Season, perHa)
	}
	pred.SubPlotResults = subPlotResults(fields)

	return pred, nil
}

// unwrapPositional accepts either an object or {"data": [value|object, ...]}.
func unwrapPositional(raw any) map[string]any {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	data, ok := obj["data"].([]any)
	if !ok || len(data) == 0 {
		return obj
	}
	switch first := data[0].(type) {
	case map[string]any:
		return first
	case float64, string:
		return map[string]any{"predicted_yield": first}
	default:
		return nil
	}
}

// numberField returns the first key present as a number or numeric string.
func numberField(fields map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := fields[k].(type) {
		case float64:
			return v, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "%")), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func stringsField(fields map[string]any, key string) []string {
	list, ok := fields[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func subPlotResults(fields map[string]any) []domain.SubPlotResult {
	var list []any
	for _, k := range []string{"sub_plot_results", "subPlotResults"} {
		if l, ok := fields[k].([]any); ok {
			list = l
			break
		}
	}
	out := make([]domain.SubPlotResult, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		crop, _ := obj["crop"].(string)
		area, _ := numberField(obj, "area")
		perHa, _ := numberField(obj, "yieldPerHa", "yield_per_ha", "yield")
		total, ok := numberField(obj, "totalYield", "total_yield")
		if !ok {
			total = math.Round(perHa * area)
		}
		out = append(out, domain.SubPlotResult{Crop: crop, Area: area, YieldPerHa: perHa, TotalYield: total})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
