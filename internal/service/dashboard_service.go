package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smartfarmer/backend/internal/config"
	"github.com/smartfarmer/backend/internal/domain"
	"github.com/smartfarmer/backend/internal/observability"
)

const (
	// dashboardForecastDays is the forecast horizon requested for the dashboard.
	dashboardForecastDays = 5
	// maxTipLength bounds the advisory text shown as the daily tip, in runes.
	maxTipLength = 200
	// persistTimeout bounds each background save.
	persistTimeout = 5 * time.Second
	// dashboardCrop is the crop the daily tip is asked about.
	dashboardCrop = domain.DefaultCrop
)

// NoteOfflineChat marks chat replies taken from the canned table.
const NoteOfflineChat = "Using offline response due to chatbot unavailability"

var todayTips = map[domain.Language]string{
	domain.LanguageEnglish: "Monitor soil moisture levels and check for pest infestations. Ideal time for light fertilization.",
	domain.LanguageHindi:   "मिट्टी की नमी के स्तर की निगरानी करें और कीट संक्रमण की जांच करें। हल्के उर्वरक के लिए आदर्श समय।",
	domain.LanguageOdia:    "ମାଟିର ଆର୍ଦ୍ରତା ସ୍ତର ମନିଟର୍ କରନ୍ତୁ ଏବଂ କୀଟ ସଂକ୍ରମଣ ଯାଞ୍ଚ କରନ୍ତୁ। ହାଲୁକା ସାର ପାଇଁ ଉପଯୁକ୍ତ ସମୟ।",
}

var tomorrowTips = map[domain.Language]string{
	domain.LanguageEnglish: "Prepare for possible rainfall. Ensure proper drainage and consider applying organic compost.",
	domain.LanguageHindi:   "संभावित वर्षा के लिए तैयार रहें। उचित जल निकासी सुनिश्चित करें और जैविक खाद लगाने पर विचार करें।",
	domain.LanguageOdia:    "ସମ୍ଭାବ୍ୟ ବର୍ଷା ପାଇଁ ପ୍ରସ୍ତୁତ ହୁଅନ୍ତୁ। ଉପଯୁକ୍ତ ଡ୍ରେନେଜ୍ ନିଶ୍ଚିତ କରନ୍ତୁ ଏବଂ ଜୈବିକ କମ୍ପୋଷ୍ଟ ପ୍ରୟୋଗ କରିବାକୁ ବିଚାର କରନ୍ତୁ।",
}

var cropAdviceFallback = map[domain.Language]string{
	domain.LanguageEnglish: "Use certified seed at the recommended rate, sow within your district's advised window and apply fertilizer according to a soil test. " +
		"Contact your nearest Krishi Vigyan Kendra or block agriculture officer for crop-specific guidance.",
	domain.LanguageHindi: "अनुशंसित दर पर प्रमाणित बीज का उपयोग करें, अपने जिले की सलाहित अवधि में बुवाई करें और मिट्टी परीक्षण के अनुसार उर्वरक डालें। " +
		"फसल-विशेष मार्गदर्शन के लिए निकटतम कृषि विज्ञान केंद्र या प्रखंड कृषि अधिकारी से संपर्क करें।",
	domain.LanguageOdia: "ସୁପାରିଶ ହାରରେ ପ୍ରମାଣିତ ବିହନ ବ୍ୟବହାର କରନ୍ତୁ, ଆପଣଙ୍କ ଜିଲ୍ଲାର ପରାମର୍ଶିତ ସମୟରେ ବୁଣନ୍ତୁ ଏବଂ ମାଟି ପରୀକ୍ଷା ଅନୁଯାୟୀ ସାର ପ୍ରୟୋଗ କରନ୍ତୁ। " +
		"ଫସଲ ନିର୍ଦ୍ଦିଷ୍ଟ ମାର୍ଗଦର୍ଶନ ପାଇଁ ନିକଟସ୍ଥ କୃଷି ବିଜ୍ଞାନ କେନ୍ଦ୍ର କିମ୍ବା ବ୍ଲକ କୃଷି ଅଧିକାରୀଙ୍କ ସହ ଯୋଗାଯୋଗ କରନ୍ତୁ।",
}

// WeatherGateway is the weather lookup the facade depends on.
type WeatherGateway interface {
	GetCurrentWeather(ctx context.Context, key string) (domain.WeatherSnapshot, error)
	GetWeatherByCoordinates(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error)
	GetForecast(ctx context.Context, key string, days int) ([]domain.DailyPoint, error)
}

// YieldGateway is the prediction service the facade depends on.
type YieldGateway interface {
	Validate(in domain.FarmInput) error
	Predict(ctx context.Context, in domain.FarmInput) domain.Envelope[domain.YieldPrediction]
	Status(ctx context.Context) domain.ModelStatus
}

// AdviceGateway is the advisory service the facade depends on.
type AdviceGateway interface {
	Ask(ctx context.Context, message string, actx domain.AdvisoryContext) domain.AdvisoryResponse
}

// Orchestrator is the single entry point for every UI surface. It sequences
// gateway calls, bounds each with a timeout and wraps results in an envelope.
type Orchestrator struct {
	weather  WeatherGateway
	yield    YieldGateway
	advisory AdviceGateway
	sim      *Simulator
	repo     DataRepository
	tracker  *GenerationTracker

	timeout         time.Duration
	defaultDistrict string
	defaultLanguage domain.Language

	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *zap.Logger

	wgBg sync.WaitGroup // tracks background saves for graceful shutdown
}

// NewOrchestrator creates the facade.
func NewOrchestrator(
	cfg *config.Config,
	weather WeatherGateway,
	yield YieldGateway,
	advisory AdviceGateway,
	sim *Simulator,
	repo DataRepository,
	clock clockwork.Clock,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		weather:         weather,
		yield:           yield,
		advisory:        advisory,
		sim:             sim,
		repo:            repo,
		tracker:         NewGenerationTracker(),
		timeout:         cfg.RemoteTimeout,
		defaultDistrict: cfg.DefaultDistrict,
		defaultLanguage: domain.ParseLanguage(cfg.DefaultLanguage),
		clock:           clock,
		metrics:         metrics,
		logger:          logger,
	}
}

// WaitBackground blocks until all background save goroutines complete.
// Call during graceful shutdown to avoid dropped writes.
func (o *Orchestrator) WaitBackground() {
	o.wgBg.Wait()
}

// FetchDashboardSnapshot builds the dashboard for a district. It always
// produces a snapshot: when the provider is unavailable the weather is
// simulated and the envelope carries a note. The only error is ErrSuperseded.
func (o *Orchestrator) FetchDashboardSnapshot(ctx context.Context, session, district string, lang domain.Language) (domain.Envelope[domain.DashboardSnapshot], error) {
	district = o.district(district)
	lang = o.language(lang)

	ctx, ticket := o.tracker.Begin(ctx, session, SurfaceDashboard)
	defer ticket.Release()

	var (
		weather    domain.WeatherSnapshot
		weatherErr error
		forecast   []domain.DailyPoint
	)
	var g errgroup.Group
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()
		weather, weatherErr = o.weather.GetCurrentWeather(callCtx, district)
		return nil
	})
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()
		days, err := o.weather.GetForecast(callCtx, district, dashboardForecastDays)
		if err == nil {
			forecast = days
		}
		return nil
	})
	_ = g.Wait()

	var note string
	if weatherErr != nil {
		o.logger.Info("using simulated weather", zap.String("district", district), zap.Error(weatherErr))
		o.metrics.Observe(observability.GatewayWeather, observability.OutcomeFallback)
		weather = o.sim.SimulateWeather(o.location(district))
		note = NoteSimulatedWeather
	}
	if len(forecast) == 0 {
		forecast = weather.Daily
	}

	today, adviceFallback := o.todaySuggestion(ctx, district, lang, weather, weatherErr == nil)
	if note == "" && adviceFallback {
		note = NoteStaticAdvice
	}

	snap := domain.DashboardSnapshot{
		District:   district,
		Language:   lang,
		Weather:    weather,
		Forecast:   forecast,
		SoilHealth: o.sim.SimulateSoilHealth(),
		Suggestions: domain.Suggestions{
			Today:    today,
			Tomorrow: tomorrowSuggestion(forecast, lang),
		},
		GeneratedAt: o.clock.Now(),
	}

	if !ticket.Current() {
		return domain.Envelope[domain.DashboardSnapshot]{}, fmt.Errorf("dashboard: %w", domain.ErrSuperseded)
	}

	if !weather.IsMock {
		o.persist(func(ctx context.Context) error { return o.repo.SaveWeatherSnapshot(ctx, weather) })
	}

	if note != "" {
		return domain.Fallback(snap, note), nil
	}
	return domain.OK(snap), nil
}

// todaySuggestion asks the advisory gateway for a tip based on real weather.
// The bool reports whether the static tip was used instead.
func (o *Orchestrator) todaySuggestion(ctx context.Context, district string, lang domain.Language, weather domain.WeatherSnapshot, realWeather bool) (string, bool) {
	if !realWeather {
		return todayTips[lang], false
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	resp := o.advisory.Ask(callCtx, WeatherAdviceMessage(weather, dashboardCrop, district), domain.AdvisoryContext{
		Language: lang,
		District: district,
		Crop:     dashboardCrop,
		Weather:  &weather,
	})
	if !resp.Success {
		return todayTips[lang], true
	}
	return truncate(resp.Message, maxTipLength), false
}

func tomorrowSuggestion(forecast []domain.DailyPoint, lang domain.Language) string {
	if len(forecast) < 2 {
		return tomorrowTips[lang]
	}
	d := forecast[1]
	desc := d.Description
	if desc == "" {
		desc = d.Condition
	}
	return fmt.Sprintf("Tomorrow: %s, %d°C/%d°C", desc, d.TempMax, d.TempMin)
}

// SubmitPrediction validates the form, then asks for a prediction and crop
// advice concurrently. Validation failures return a failed envelope without
// any network call.
func (o *Orchestrator) SubmitPrediction(ctx context.Context, session string, in domain.FarmInput, lang domain.Language) (domain.Envelope[domain.PredictionResult], error) {
	lang = o.language(lang)

	if err := o.yield.Validate(in); err != nil {
		o.metrics.Observe(observability.GatewayYield, observability.OutcomeValidation)
		return domain.Fail[domain.PredictionResult](err.Error()), err
	}

	ctx, ticket := o.tracker.Begin(ctx, session, SurfacePrediction)
	defer ticket.Release()

	var (
		pred   domain.Envelope[domain.YieldPrediction]
		advice domain.AdvisoryResponse
	)
	var g errgroup.Group
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()
		pred = o.yield.Predict(callCtx, in)
		return nil
	})
	g.Go(func() error {
		callCtx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()
		advice = o.advisory.Ask(callCtx, CropAdviceMessage(in), domain.AdvisoryContext{
			Language: lang,
			District: in.District,
			Season:   in.Season,
			Crop:     in.PrimaryCrop(),
			Area:     in.TotalArea(),
			UserID:   session,
		})
		return nil
	})
	_ = g.Wait()

	if !ticket.Current() {
		return domain.Envelope[domain.PredictionResult]{}, fmt.Errorf("prediction: %w", domain.ErrSuperseded)
	}
	if !pred.Success || pred.Data == nil {
		return domain.Fail[domain.PredictionResult](pred.Message), domain.NewValidationError("input", pred.Message)
	}

	result := domain.PredictionResult{Prediction: *pred.Data, Advice: advice.Message}
	if !advice.Success {
		result.Advice = cropAdviceFallback[lang]
		result.AdviceNote = NoteStaticAdvice
	}

	entry := domain.PredictionLog{
		ID:         uuid.NewString(),
		Input:      in,
		Prediction: result.Prediction,
		Note:       pred.Note,
		CreatedAt:  o.clock.Now(),
	}
	o.persist(func(ctx context.Context) error { return o.repo.SavePredictionLog(ctx, entry) })

	switch {
	case pred.Note != "":
		return domain.Fallback(result, pred.Note), nil
	case result.AdviceNote != "":
		return domain.Fallback(result, result.AdviceNote), nil
	default:
		return domain.OK(result), nil
	}
}

// SendChatMessage relays one chat turn. An empty message is a validation
// failure; provider failures produce a canned reply with a note.
func (o *Orchestrator) SendChatMessage(ctx context.Context, session, text string, actx domain.AdvisoryContext) (domain.Envelope[domain.ChatReply], error) {
	text = strings.TrimSpace(text)
	if text == "" {
		err := domain.NewValidationError("message", "message is required")
		return domain.Fail[domain.ChatReply](err.Error()), err
	}
	actx.Language = o.language(actx.Language)
	if actx.UserID == "" {
		actx.UserID = session
	}
	if actx.UserID == "" {
		actx.UserID = uuid.NewString()
	}

	ctx, ticket := o.tracker.Begin(ctx, session, SurfaceChat)
	defer ticket.Release()

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	resp := o.advisory.Ask(callCtx, text, actx)
	cancel()

	if !ticket.Current() {
		return domain.Envelope[domain.ChatReply]{}, fmt.Errorf("chat: %w", domain.ErrSuperseded)
	}

	reply := domain.ChatReply{Message: resp.Message, Language: actx.Language, Timestamp: resp.Timestamp}
	if !resp.Success {
		return domain.Fallback(reply, NoteOfflineChat), nil
	}
	return domain.OK(reply), nil
}

// CurrentWeather returns the gateway's snapshot without substitution.
func (o *Orchestrator) CurrentWeather(ctx context.Context, location string) (domain.WeatherSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.weather.GetCurrentWeather(ctx, o.district(location))
}

// CurrentWeatherAt returns the gateway's snapshot for a coordinate pair.
func (o *Orchestrator) CurrentWeatherAt(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.weather.GetWeatherByCoordinates(ctx, lat, lon)
}

// Forecast returns the gateway's daily forecast without substitution.
func (o *Orchestrator) Forecast(ctx context.Context, location string, days int) ([]domain.DailyPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.weather.GetForecast(ctx, o.district(location), days)
}

// RecentPredictions returns the newest logged predictions.
func (o *Orchestrator) RecentPredictions(ctx context.Context, limit int) ([]domain.PredictionLog, error) {
	return o.repo.RecentPredictions(ctx, limit)
}

// ModelStatus checks the prediction endpoint.
func (o *Orchestrator) ModelStatus(ctx context.Context) domain.ModelStatus {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return o.yield.Status(ctx)
}

// persist runs save in the background with its own timeout.
func (o *Orchestrator) persist(save func(ctx context.Context) error) {
	o.wgBg.Add(1)
	go func() {
		defer o.wgBg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := save(ctx); err != nil {
			o.logger.Warn("background save failed", zap.Error(err))
		}
	}()
}

func (o *Orchestrator) district(d string) string {
	d = strings.TrimSpace(d)
	if d == "" {
		return o.defaultDistrict
	}
	return d
}

func (o *Orchestrator) language(lang domain.Language) domain.Language {
	if strings.TrimSpace(string(lang)) == "" {
		return o.defaultLanguage
	}
	return domain.ParseLanguage(string(lang))
}

func (o *Orchestrator) location(district string) domain.Location {
	if loc, ok := domain.LookupLocation(district); ok {
		return loc
	}
	return domain.Location{District: district, City: district}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}

// IsSuperseded reports whether err came from a request replaced by a newer one.
func IsSuperseded(err error) bool {
	return errors.Is(err, domain.ErrSuperseded)
}
